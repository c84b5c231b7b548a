package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps drafts in a per-process LRU. Drafts are lost on restart and are not
// shared between instances.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

func NewMemoryStore(maxSize int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](maxSize, nil, ttl)}
}

func (s *MemoryStore) Put(_ context.Context, kind Kind, id string, draft any) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode %s draft: %w", kind, err)
	}
	s.cache.Add(draftKey(kind, id), data)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, kind Kind, id string, out any) error {
	data, ok := s.cache.Get(draftKey(kind, id))
	if !ok {
		return ErrDraftNotFound
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s draft: %w", kind, err)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, kind Kind, id string) error {
	s.cache.Remove(draftKey(kind, id))
	return nil
}
