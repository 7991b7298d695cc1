package ports

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		date := civil.Date{Year: 2026, Month: time.October, Day: 23}
		clock := civil.Time{Hour: 14, Minute: 30}
		at := time.Date(2026, time.October, 23, 14, 30, 0, 0, time.UTC)

		state := domain.NewDialogueState()
		state.Greeted = true
		state.Intent = domain.IntentBooking
		state.PendingDate = &date
		state.PendingTime = &clock
		state.Propose(at)
		state.LastResponse = "Should I book it? (yes/no)"

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.True(t, loaded.Greeted)
		assert.Equal(t, domain.IntentBooking, loaded.Intent)
		require.NotNil(t, loaded.PendingDate)
		assert.Equal(t, date, *loaded.PendingDate)
		require.NotNil(t, loaded.PendingTime)
		assert.Equal(t, clock, *loaded.PendingTime)
		require.NotNil(t, loaded.SuggestedInstant)
		assert.True(t, at.Equal(*loaded.SuggestedInstant))
		assert.True(t, loaded.AwaitingConfirmation)
		assert.Equal(t, state.LastResponse, loaded.LastResponse)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, &domain.DialogueState{Greeted: true}))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Greeted = false

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, again.Greeted, "mutating a loaded state must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewDialogueState())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewDialogueState())
		_ = store.Save(ctx, id2, domain.NewDialogueState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
