package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookstore-ivr/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("messages: not found")
	ErrInvalidArgument = errors.New("messages: invalid argument")
)

type Repository interface {
	Insert(ctx context.Context, m PendingMessage) error
	Get(ctx context.Context, id string) (PendingMessage, error)
	// MarkPlayed flips is_played false->true. It reports false when the row
	// was already played or does not exist.
	MarkPlayed(ctx context.Context, id string, at time.Time) (bool, error)
	// Delete is a no-op for a missing row.
	Delete(ctx context.Context, id string) error
	LatestUnplayed(ctx context.Context, customerID string) (PendingMessage, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, customerID, message string) (PendingMessage, error) {
	customerID = strings.TrimSpace(customerID)
	message = strings.TrimSpace(message)
	if customerID == "" || message == "" {
		return PendingMessage{}, ErrInvalidArgument
	}
	m := PendingMessage{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Message:    message,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return PendingMessage{}, fmt.Errorf("create pending message: %w", err)
	}
	return m, nil
}

func (s *Service) Fetch(ctx context.Context, id string) (PendingMessage, error) {
	if id == "" {
		return PendingMessage{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Resolve is the fail-open form of Fetch used inside a live call.
func (s *Service) Resolve(ctx context.Context, id string) Lookup {
	m, err := s.Fetch(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.From(ctx).Warn("pending message lookup failed", "pending_message_id", id, "err", err)
		}
		return Lookup{}
	}
	return Lookup{Message: m, Found: true}
}

// MarkPlayed transitions the message to played exactly once.
func (s *Service) MarkPlayed(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidArgument
	}
	return s.repo.MarkPlayed(ctx, id, s.clock().UTC())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.repo.Delete(ctx, id)
}

// LatestUnplayed returns the newest unplayed message for a customer, fail open.
func (s *Service) LatestUnplayed(ctx context.Context, customerID string) Lookup {
	if customerID == "" {
		return Lookup{}
	}
	m, err := s.repo.LatestUnplayed(ctx, customerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.From(ctx).Warn("latest pending message lookup failed", "customer_id", customerID, "err", err)
		}
		return Lookup{}
	}
	return Lookup{Message: m, Found: true}
}
