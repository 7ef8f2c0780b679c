package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"velo/internal/model"
)

// MemoryStore keeps encoded records in maps. Records go through the same
// codec as the other backends so a round trip behaves identically.
type MemoryStore struct {
	mu     sync.RWMutex
	tabs   map[string][]byte
	index  *Index
	images map[uuid.UUID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tabs:   make(map[string][]byte),
		images: make(map[uuid.UUID][]byte),
	}
}

func tabKey(doc, tab uuid.UUID) string { return doc.String() + "/" + tab.String() }

func (s *MemoryStore) SaveCheckpoint(ctx context.Context, doc, tab uuid.UUID, cp *model.Checkpoint) error {
	data, err := EncodeCheckpoint(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tabKey(doc, tab)] = data
	return nil
}

func (s *MemoryStore) LoadCheckpoint(ctx context.Context, doc, tab uuid.UUID) (*model.Checkpoint, error) {
	s.mu.RLock()
	data, ok := s.tabs[tabKey(doc, tab)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tab %s: %w", tab, ErrNotFound)
	}
	return DecodeCheckpoint(data)
}

func (s *MemoryStore) SaveIndex(ctx context.Context, idx Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = &idx
	return nil
}

func (s *MemoryStore) LoadIndex(ctx context.Context) (Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return Index{}, fmt.Errorf("index: %w", ErrNotFound)
	}
	return *s.index, nil
}

func (s *MemoryStore) SaveImage(ctx context.Context, id uuid.UUID, png []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = append([]byte(nil), png...)
	return nil
}

func (s *MemoryStore) LoadImage(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.images[id]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return data, nil
}

func (s *MemoryStore) DeleteTab(ctx context.Context, doc, tab uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tabKey(doc, tab))
	return nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, doc uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := doc.String() + "/"
	for k := range s.tabs {
		if strings.HasPrefix(k, prefix) {
			delete(s.tabs, k)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
