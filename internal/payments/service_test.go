package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedService(c Charger) *Service {
	s := NewService(c)
	s.clock = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func validRequest() ChargeRequest {
	return ChargeRequest{
		AmountMinor:    2599,
		Currency:       "usd",
		Card:           Card{Token: "tok_visa", Last4: "4242", ExpMonth: 3, ExpYear: 2026},
		IdempotencyKey: "k1",
	}
}

func TestService_ValidatesBeforeCharging(t *testing.T) {
	svc := fixedService(NewSandboxCharger())
	ctx := context.Background()

	cases := map[string]func(*ChargeRequest){
		"zero amount":   func(r *ChargeRequest) { r.AmountMinor = 0 },
		"bad currency":  func(r *ChargeRequest) { r.Currency = "dollars" },
		"missing token": func(r *ChargeRequest) { r.Card.Token = " " },
		"missing key":   func(r *ChargeRequest) { r.IdempotencyKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Charge(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestService_ExpiredCard(t *testing.T) {
	svc := fixedService(NewSandboxCharger())
	req := validRequest()
	req.Card.ExpMonth, req.Card.ExpYear = 2, 2026

	_, err := svc.Charge(context.Background(), req)
	assert.ErrorIs(t, err, ErrCardExpired)
}

func TestService_SandboxApprovesAndIsIdempotent(t *testing.T) {
	svc := fixedService(NewSandboxCharger())
	ctx := context.Background()

	first, err := svc.Charge(ctx, validRequest())
	require.NoError(t, err)
	assert.True(t, first.Approved)
	assert.NotEmpty(t, first.Ref)
	assert.False(t, first.At.IsZero())

	again, err := svc.Charge(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, first.Ref, again.Ref)

	req := validRequest()
	req.IdempotencyKey = "k2"
	req.Card.Token = "decline_insufficient"
	declined, err := svc.Charge(ctx, req)
	require.NoError(t, err)
	assert.False(t, declined.Approved)
}

type failingCharger struct{}

func (failingCharger) Charge(ctx context.Context, amountMinor int64, currency string, card Card, key string) (ChargeResult, error) {
	return ChargeResult{}, errors.New("gateway timeout")
}

func TestService_GatewayErrorWrapped(t *testing.T) {
	_, err := fixedService(failingCharger{}).Charge(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway timeout")

	_, err = NewService(nil).Charge(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
