package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEvent      = errors.New("audit: invalid event")
	ErrRepoNotConfigured = errors.New("audit: repository not configured")
)

// Repository appends events. Implementations never update or delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Actor is the authenticated user behind an audited action.
type Actor struct {
	UserID string
	Role   string
	IP     string
}

// Service stamps and appends audit events. Callers log and continue when
// it fails.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return ErrRepoNotConfigured
	}
	if e.Type == "" || e.ActorUserID == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// CallPlaced records an outbound call placed through the API.
func (s *Service) CallPlaced(ctx context.Context, typ EventType, a Actor, callLogID, phone, message string) error {
	return s.Append(ctx, Event{
		Type:        typ,
		ActorUserID: a.UserID,
		ActorRole:   a.Role,
		IPAddress:   a.IP,
		CallLogID:   callLogID,
		PhoneNumber: phone,
		Message:     message,
	})
}

// SettingsChanged records an edit of the store settings. The new values go
// into Metadata; the forwarding number is also kept in PhoneNumber so it can
// be searched.
func (s *Service) SettingsChanged(ctx context.Context, a Actor, storeName, cellPhone string) error {
	meta, err := json.Marshal(map[string]string{"store_name": storeName, "cell_phone": cellPhone})
	if err != nil {
		return err
	}
	return s.Append(ctx, Event{
		Type:        EventTypeSettingsUpdated,
		ActorUserID: a.UserID,
		ActorRole:   a.Role,
		IPAddress:   a.IP,
		PhoneNumber: cellPhone,
		Message:     "store settings updated",
		Metadata:    string(meta),
	})
}
