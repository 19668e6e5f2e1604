package repository

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]MatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]MatchRecord)}
}

func (s *MemoryStore) SaveMatch(_ context.Context, rec MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	rec.Log = append([]byte(nil), rec.Log...)
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return MatchRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListMatches(_ context.Context, limit int) ([]MatchRecord, error) {
	s.mu.RLock()
	out := make([]MatchRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
