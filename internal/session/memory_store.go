package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, patch Patch) error {
	if patch.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[userID]
	if !ok {
		st = *newState(userID)
	}
	patch.Apply(&st)
	s.sessions[userID] = st
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	return s.Save(ctx, userID, ClearPatch())
}

func (s *MemoryStore) ListPaused(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, st := range s.sessions {
		if st.PausedForHuman {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}
