package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookstore-ivr/pkg/logger"
)

var (
	ErrInvalidArgument = errors.New("payments: invalid argument")
	ErrCardExpired     = errors.New("payments: card expired")
	ErrNotConfigured   = errors.New("payments: gateway not configured")
)

// Charger is the payment gateway contract. Implementations live outside
// this repository.
type Charger interface {
	Charge(ctx context.Context, amountMinor int64, currency string, card Card, idempotencyKey string) (ChargeResult, error)
}

// Service validates a charge before it reaches the gateway.
type Service struct {
	charger Charger
	clock   func() time.Time
}

func NewService(charger Charger) *Service {
	return &Service{charger: charger, clock: time.Now}
}

func (s *Service) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if s.charger == nil {
		return ChargeResult{}, ErrNotConfigured
	}
	if err := s.validate(req); err != nil {
		return ChargeResult{}, err
	}

	res, err := s.charger.Charge(ctx, req.AmountMinor, strings.ToUpper(req.Currency), req.Card, req.IdempotencyKey)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charge: %w", err)
	}
	if res.At.IsZero() {
		res.At = s.clock().UTC()
	}

	logger.From(ctx).Info("charge processed",
		"approved", res.Approved,
		"ref", res.Ref,
		"amount_minor", req.AmountMinor,
		"currency", strings.ToUpper(req.Currency),
		"call_log_id", req.CallLogID,
	)
	return res, nil
}

func (s *Service) validate(req ChargeRequest) error {
	if req.AmountMinor <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	if len(req.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Card.Token) == "" {
		return fmt.Errorf("%w: card token required", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return fmt.Errorf("%w: idempotency key required", ErrInvalidArgument)
	}
	if req.Card.ExpYear > 0 && req.Card.ExpMonth > 0 {
		now := s.clock().UTC()
		// valid through the last day of the expiry month
		expires := time.Date(req.Card.ExpYear, time.Month(req.Card.ExpMonth)+1, 1, 0, 0, 0, 0, time.UTC)
		if !now.Before(expires) {
			return ErrCardExpired
		}
	}
	return nil
}
