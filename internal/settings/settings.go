package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookstore-ivr/internal/telephony"
	"bookstore-ivr/pkg/logger"
	"bookstore-ivr/pkg/utils"
)

// DefaultStoreName is spoken when no settings row exists.
const DefaultStoreName = "the bookstore"

var (
	ErrNotFound        = errors.New("settings: not found")
	ErrInvalidArgument = errors.New("settings: invalid argument")
	ErrReadOnly        = errors.New("settings: repository is read-only")
)

// Settings is the single store configuration row the IVR reads.
type Settings struct {
	StoreName string `json:"store_name" db:"store_name"`
	// CellPhone is the forwarding number staff answer on.
	CellPhone string `json:"cell_phone" db:"cell_phone"`
}

type Repository interface {
	Get(ctx context.Context) (Settings, error)
}

// Saver is implemented by repositories that can write the settings row.
type Saver interface {
	Save(ctx context.Context, st Settings) error
}

// Service reads store settings. Live calls use Load, which never fails.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Get returns the stored row or an error.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	if s.repo == nil {
		return Settings{}, errors.New("settings: repository not configured")
	}
	st, err := s.repo.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	st.StoreName = strings.TrimSpace(st.StoreName)
	st.CellPhone = strings.TrimSpace(st.CellPhone)
	return st, nil
}

// Load fails open: a missing row or storage error yields defaults.
func (s *Service) Load(ctx context.Context) Settings {
	st, err := s.Get(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.From(ctx).Warn("settings lookup failed", "err", err)
	}
	if st.StoreName == "" {
		st.StoreName = DefaultStoreName
	}
	return st
}

// Update validates and stores new settings. CellPhone is normalized to E.164;
// an empty value clears forwarding.
func (s *Service) Update(ctx context.Context, st Settings) (Settings, error) {
	saver, ok := s.repo.(Saver)
	if !ok {
		return Settings{}, ErrReadOnly
	}

	st.StoreName = strings.TrimSpace(st.StoreName)
	if st.StoreName == "" {
		return Settings{}, fmt.Errorf("%w: store_name required", ErrInvalidArgument)
	}
	raw := strings.TrimSpace(st.CellPhone)
	st.CellPhone = telephony.NormalizeE164(raw)
	if raw != "" && len(st.CellPhone) < 11 {
		return Settings{}, fmt.Errorf("%w: cell_phone %q is not a dialable number", ErrInvalidArgument, raw)
	}

	if err := saver.Save(ctx, st); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	logger.From(ctx).Info("settings updated", "forwarding_enabled", st.CellPhone != "")
	return st, nil
}

// PostgresRepo reads the newest row of the settings table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Get(ctx context.Context) (Settings, error) {
	const q = `
SELECT COALESCE(store_name, ''), COALESCE(cell_phone, '')
FROM settings
ORDER BY id DESC
LIMIT 1
`
	var st Settings
	if err := r.db.QueryRowContext(ctx, q).Scan(&st.StoreName, &st.CellPhone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	return st, nil
}

// Save updates the newest row in place, inserting the first one if none
// exists. The row lock keeps two concurrent saves from both inserting.
func (r *PostgresRepo) Save(ctx context.Context, st Settings) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM settings ORDER BY id DESC LIMIT 1 FOR UPDATE`).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO settings (store_name, cell_phone, updated_at) VALUES ($1, $2, now())`,
				st.StoreName, st.CellPhone,
			)
			return err
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE settings SET store_name = $1, cell_phone = $2, updated_at = now() WHERE id = $3`,
			st.StoreName, st.CellPhone, id,
		)
		return err
	})
}

// StaticRepo serves fixed settings, for tests and local runs.
type StaticRepo struct {
	Settings Settings
	Err      error
}

func (r StaticRepo) Get(ctx context.Context) (Settings, error) {
	if r.Err != nil {
		return Settings{}, r.Err
	}
	return r.Settings, nil
}
