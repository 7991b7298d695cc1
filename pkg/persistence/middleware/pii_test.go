package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/agenda/pkg/adapters/memory"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware(middleware.DefaultRedactPatterns)(underlying)
	ctx := context.Background()

	state := domain.NewDialogueState()
	state.LastResponse = "✅ Booked for Friday, Oct 23 at 02:00 PM\n🔗 [View in Calendar](https://calendar.example/evt-1)"

	require.NoError(t, store.Save(ctx, "s1", state))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, stored.LastResponse, "calendar.example")
	assert.Contains(t, stored.LastResponse, "✅ Booked for Friday")
	assert.Contains(t, state.LastResponse, "calendar.example", "the caller's state is not modified")
}

func TestChain_RedactThenEncrypt(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.Chain(underlying,
		middleware.NewRedactionMiddleware([]string{`secret-\w+`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ctx := context.Background()

	state := domain.NewDialogueState()
	state.LastResponse = "token secret-abc"
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "token ***", loaded.LastResponse)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
