package messages

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]PendingMessage
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: map[string]PendingMessage{}} }

func (r *MemoryRepo) Insert(ctx context.Context, m PendingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[m.ID] = m
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (PendingMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return PendingMessage{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) MarkPlayed(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok || m.IsPlayed {
		return false, nil
	}
	m.IsPlayed = true
	m.PlayedAt = &at
	r.rows[id] = m
	return true, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *MemoryRepo) LatestUnplayed(ctx context.Context, customerID string) (PendingMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		best  PendingMessage
		found bool
	)
	for _, m := range r.rows {
		if m.CustomerID != customerID || m.IsPlayed {
			continue
		}
		if !found || m.CreatedAt.After(best.CreatedAt) {
			best, found = m, true
		}
	}
	if !found {
		return PendingMessage{}, ErrNotFound
	}
	return best, nil
}
