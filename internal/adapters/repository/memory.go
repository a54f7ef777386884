package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/jury/internal/domain/model"
)

// MemoryStore keeps drafts in process memory. Values are copied on the way in
// and out so callers never share maps with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[model.DraftKey]model.Draft
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[model.DraftKey]model.Draft)}
}

func (s *MemoryStore) Save(_ context.Context, d model.Draft) error {
	if err := validateKey(d.DraftKey); err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[d.DraftKey] = d.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key model.DraftKey) (model.Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[key]
	s.mu.RUnlock()
	if !ok {
		return model.Draft{}, ErrNotFound
	}
	return d.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, key model.DraftKey) error {
	s.mu.Lock()
	delete(s.drafts, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context, eventID, judgeID string) ([]model.Draft, error) {
	s.mu.RLock()
	out := make([]model.Draft, 0)
	for k, d := range s.drafts {
		if k.EventID == eventID && k.JudgeID == judgeID {
			out = append(out, d.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationID < out[j].ApplicationID })
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

func (s *MemoryStore) Close() error { return nil }
