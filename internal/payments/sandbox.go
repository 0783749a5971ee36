package payments

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SandboxCharger approves every charge except tokens prefixed "decline".
// Repeated idempotency keys return the first result. Local runs only.
type SandboxCharger struct {
	mu   sync.Mutex
	seen map[string]ChargeResult
}

func NewSandboxCharger() *SandboxCharger {
	return &SandboxCharger{seen: map[string]ChargeResult{}}
}

func (s *SandboxCharger) Charge(ctx context.Context, amountMinor int64, currency string, card Card, idempotencyKey string) (ChargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.seen[idempotencyKey]; ok {
		return res, nil
	}
	res := ChargeResult{
		Approved: !strings.HasPrefix(card.Token, "decline"),
		Ref:      "sbx_" + uuid.NewString(),
	}
	s.seen[idempotencyKey] = res
	return res, nil
}
