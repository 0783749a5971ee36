package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

type PostgresRepo struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresRepo) Insert(ctx context.Context, m PendingMessage) error {
	sqlStr, args, err := r.sb.
		Insert("pending_messages").
		Columns("id", "customer_id", "message", "is_played", "created_at").
		Values(m.ID, m.CustomerID, m.Message, false, m.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert pending message sql: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert pending message: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (PendingMessage, error) {
	sqlStr, args, err := r.selectMessages().
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return PendingMessage{}, fmt.Errorf("build get pending message sql: %w", err)
	}
	return r.scanOne(r.db.QueryRowContext(ctx, sqlStr, args...))
}

func (r *PostgresRepo) MarkPlayed(ctx context.Context, id string, at time.Time) (bool, error) {
	sqlStr, args, err := r.sb.
		Update("pending_messages").
		Set("is_played", true).
		Set("played_at", at).
		Where(sq.Eq{"id": id, "is_played": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark played sql: %w", err)
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("mark pending message played: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark pending message played: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := r.sb.
		Delete("pending_messages").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete pending message sql: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("delete pending message: %w", err)
	}
	return nil
}

func (r *PostgresRepo) LatestUnplayed(ctx context.Context, customerID string) (PendingMessage, error) {
	sqlStr, args, err := r.selectMessages().
		Where(sq.Eq{"customer_id": customerID, "is_played": false}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return PendingMessage{}, fmt.Errorf("build latest pending message sql: %w", err)
	}
	return r.scanOne(r.db.QueryRowContext(ctx, sqlStr, args...))
}

func (r *PostgresRepo) selectMessages() sq.SelectBuilder {
	return r.sb.
		Select("id", "customer_id", "message", "is_played", "played_at", "created_at").
		From("pending_messages")
}

func (r *PostgresRepo) scanOne(row *sql.Row) (PendingMessage, error) {
	var (
		m        PendingMessage
		playedAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.CustomerID, &m.Message, &m.IsPlayed, &playedAt, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PendingMessage{}, ErrNotFound
		}
		return PendingMessage{}, fmt.Errorf("scan pending message: %w", err)
	}
	if playedAt.Valid {
		t := playedAt.Time
		m.PlayedAt = &t
	}
	return m, nil
}
