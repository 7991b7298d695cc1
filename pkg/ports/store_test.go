package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/ports"
)

// MockStore is a minimal map-backed StateStore used to exercise the contract suite itself.
type MockStore struct {
	data map[string]domain.DialogueState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.DialogueState),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state *domain.DialogueState) error {
	m.data[sessionID] = *state.Snapshot()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.DialogueState, error) {
	state, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Snapshot(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}
