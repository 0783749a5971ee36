package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// Repository is the persistence contract for call logs.
//
// There is no Delete: call logs are an append-and-update history.
type Repository interface {
	Insert(ctx context.Context, c CallLog) error
	SetCallSID(ctx context.Context, id, callSID string, at time.Time) error
	// ApplyStatus must leave a terminal status untouched in the same
	// statement that writes it; the other columns are still set.
	ApplyStatus(ctx context.Context, id string, u StatusUpdate, at time.Time) error
	Get(ctx context.Context, id string) (CallLog, error)
	List(ctx context.Context, f Filter) ([]CallLog, error)
}

// Service owns call log lifecycle rules.
type Service struct {
	repo  Repository
	clock func() time.Time
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now, newID: uuid.NewString}
}

// CreateCall inserts a row in status initiated.
func (s *Service) CreateCall(ctx context.Context, req CreateCallRequest) (CallLog, error) {
	if !req.Direction.Valid() {
		return CallLog{}, fmt.Errorf("%w: direction %q", ErrInvalidArgument, req.Direction)
	}
	now := s.clock().UTC()
	c := CallLog{
		ID:           s.newID(),
		CustomerID:   strings.TrimSpace(req.CustomerID),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Direction:    req.Direction,
		Status:       StatusInitiated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return CallLog{}, fmt.Errorf("create call log: %w", err)
	}
	return c, nil
}

func (s *Service) AttachProviderID(ctx context.Context, id, callSID string) error {
	if id == "" || callSID == "" {
		return ErrInvalidArgument
	}
	return s.repo.SetCallSID(ctx, id, callSID, s.clock().UTC())
}

// UpdateStatus writes a status transition. A terminal status already on the
// row wins over u.Status; duration, answered-by and notes are set as given.
func (s *Service) UpdateStatus(ctx context.Context, id string, u StatusUpdate) error {
	if id == "" || u.Status == "" {
		return ErrInvalidArgument
	}
	return s.repo.ApplyStatus(ctx, id, u, s.clock().UTC())
}

// Annotate sets duration, answered-by and notes without touching status.
// Used for callbacks from a leg that does not decide the call's outcome.
func (s *Service) Annotate(ctx context.Context, id string, u StatusUpdate) error {
	if id == "" {
		return ErrInvalidArgument
	}
	u.Status = ""
	if u.DurationSeconds == nil && u.AnsweredBy == nil && u.Notes == nil {
		return nil
	}
	return s.repo.ApplyStatus(ctx, id, u, s.clock().UTC())
}

func (s *Service) MarkFailed(ctx context.Context, id, reason string) error {
	return s.UpdateStatus(ctx, id, StatusUpdate{Status: StatusFailed, Notes: &reason})
}

func (s *Service) Get(ctx context.Context, id string) (CallLog, error) {
	if id == "" {
		return CallLog{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]CallLog, error) {
	if f.Direction != "" && !f.Direction.Valid() {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, f)
}
