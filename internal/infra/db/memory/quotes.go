// Package memory is a process-local quote document store, used when no
// database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"window-counter/backend/internal/domain/quote"
)

type QuoteStore struct {
	mu          sync.RWMutex
	collections map[string][]quote.Quote
	now         func() time.Time
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{collections: make(map[string][]quote.Quote), now: time.Now}
}

// WithClock replaces the timestamp source.
func (s *QuoteStore) WithClock(now func() time.Time) *QuoteStore {
	s.now = now
	return s
}

func (s *QuoteStore) Create(_ context.Context, collection string, q quote.Quote) (quote.Quote, error) {
	q.ID = uuid.NewString()
	q.SavedAt = s.now().UTC()
	q.LineItems = quote.CloneItems(q.LineItems)

	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], q)
	s.mu.Unlock()
	return cloneQuote(q), nil
}

// List returns documents in insertion order.
func (s *QuoteStore) List(_ context.Context, collection, ownerID string) ([]quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]quote.Quote, 0, len(s.collections[collection]))
	for _, q := range s.collections[collection] {
		if ownerID != "" && q.OwnerID != ownerID {
			continue
		}
		out = append(out, cloneQuote(q))
	}
	return out, nil
}

func (s *QuoteStore) Get(_ context.Context, collection, id string) (quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.collections[collection] {
		if q.ID == id {
			return cloneQuote(q), nil
		}
	}
	return quote.Quote{}, quote.ErrNotFound
}

func (s *QuoteStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return quote.ErrNotFound
}

func (s *QuoteStore) Ping(context.Context) error { return nil }

func cloneQuote(q quote.Quote) quote.Quote {
	q.LineItems = quote.CloneItems(q.LineItems)
	return q
}
