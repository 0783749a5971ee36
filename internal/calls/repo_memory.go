package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]CallLog
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: map[string]CallLog{}} }

func (r *MemoryRepo) Insert(ctx context.Context, c CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c
	return nil
}

func (r *MemoryRepo) SetCallSID(ctx context.Context, id, callSID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	c.CallSID = callSID
	c.UpdatedAt = at
	r.rows[id] = c
	return nil
}

func (r *MemoryRepo) ApplyStatus(ctx context.Context, id string, u StatusUpdate, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if u.Status != "" && !c.Status.Terminal() {
		c.Status = u.Status
	}
	if u.DurationSeconds != nil {
		c.DurationSeconds = *u.DurationSeconds
	}
	if u.AnsweredBy != nil {
		c.AnsweredBy = *u.AnsweredBy
	}
	if u.Notes != nil {
		c.Notes = *u.Notes
	}
	c.UpdatedAt = at
	r.rows[id] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallLog, 0, len(r.rows))
	for _, c := range r.rows {
		if !f.From.IsZero() && c.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !c.CreatedAt.Before(f.To) {
			continue
		}
		if f.Direction != "" && c.Direction != f.Direction {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// All returns every row, for assertions.
func (r *MemoryRepo) All() []CallLog {
	out, _ := r.List(context.Background(), Filter{})
	return out
}
