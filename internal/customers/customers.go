package customers

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"bookstore-ivr/internal/telephony"
)

var ErrNotFound = errors.New("customers: not found")

// Customer is the narrow read the IVR needs from the customer table.
type Customer struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`
}

type Repository interface {
	Get(ctx context.Context, id string) (Customer, error)
	// FindByPhone matches on the last ten digits, so stored numbers in any
	// punctuation style resolve.
	FindByPhone(ctx context.Context, phone string) (Customer, error)
}

// PostgresRepo reads the customers table owned by the back office.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Get(ctx context.Context, id string) (Customer, error) {
	const q = `
SELECT id, COALESCE(name, ''), COALESCE(phone, '')
FROM customers
WHERE id = $1
`
	return scan(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) FindByPhone(ctx context.Context, phone string) (Customer, error) {
	key := lastTen(phone)
	if key == "" {
		return Customer{}, ErrNotFound
	}
	const q = `
SELECT id, COALESCE(name, ''), COALESCE(phone, '')
FROM customers
WHERE RIGHT(regexp_replace(phone, '\D', '', 'g'), 10) = $1
ORDER BY id
LIMIT 1
`
	return scan(r.db.QueryRowContext(ctx, q, key))
}

func scan(row *sql.Row) (Customer, error) {
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	return c, nil
}

func lastTen(phone string) string {
	digits := strings.TrimPrefix(telephony.NormalizeE164(phone), "+")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Customer
}

func NewMemoryRepo(cs ...Customer) *MemoryRepo {
	r := &MemoryRepo{rows: map[string]Customer{}}
	for _, c := range cs {
		r.rows[c.ID] = c
	}
	return r
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) FindByPhone(ctx context.Context, phone string) (Customer, error) {
	key := lastTen(phone)
	if key == "" {
		return Customer{}, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if lastTen(c.Phone) == key {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}
