package pagestore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/matthewbaird/pageforge/internal/schema"
)

// MemoryStore implements Store in memory.
// Intended for demos and testing: no database required.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]memoryPage
}

type memoryPage struct {
	doc       []byte
	title     string
	updatedAt time.Time
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]memoryPage)}
}

func (s *MemoryStore) Save(_ context.Context, doc *schema.PageDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[doc.PageKey] = memoryPage{doc: data, title: doc.Title, updatedAt: time.Now().UTC()}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, pageKey string) (*schema.PageDocument, error) {
	s.mu.RLock()
	p, ok := s.pages[pageKey]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	doc, err := schema.ParseDocument(p.doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.pages))
	for key, p := range s.pages {
		out = append(out, Summary{PageKey: key, Title: p.title, UpdatedAt: p.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, pageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[pageKey]; !ok {
		return ErrNotFound
	}
	delete(s.pages, pageKey)
	return nil
}
