package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It backs unit tests and single-node
// deployments that run without Redis.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[uuid.UUID]*Draft)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, owner uuid.UUID) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[owner]
	if !ok {
		return nil, nil
	}
	return cloneDraft(draft), nil
}

func (s *MemoryStore) Put(ctx context.Context, owner uuid.UUID, draft *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[owner] = cloneDraft(draft)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, owner uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, owner)
	return nil
}

// cloneDraft copies a draft including its slices, so stored drafts never
// share backing arrays with caller values.
func cloneDraft(d *Draft) *Draft {
	copied := *d
	copied.Allergies = append([]string(nil), d.Allergies...)
	copied.Dislikes = append([]string(nil), d.Dislikes...)
	copied.Religions = append([]string(nil), d.Religions...)
	copied.SelectedItems = append([]SelectedItem(nil), d.SelectedItems...)
	if d.ActivePlanID != nil {
		id := *d.ActivePlanID
		copied.ActivePlanID = &id
	}
	return &copied
}
