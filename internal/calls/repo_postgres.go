package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const callLogColumns = "id, customer_id, phone_number, customer_name, direction, status, call_sid, duration_seconds, answered_by, notes, created_at, updated_at"

// PostgresRepo stores call logs in the call_logs table.
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

func (r *PostgresRepo) Insert(ctx context.Context, c CallLog) error {
	query := r.sb.
		Insert("call_logs").
		Columns(
			"id",
			"customer_id",
			"phone_number",
			"customer_name",
			"direction",
			"status",
			"created_at",
			"updated_at",
		).
		Values(
			c.ID,
			nullString(c.CustomerID),
			c.PhoneNumber,
			c.CustomerName,
			string(c.Direction),
			string(c.Status),
			c.CreatedAt,
			c.UpdatedAt,
		)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert call log sql: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert call log: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SetCallSID(ctx context.Context, id, callSID string, at time.Time) error {
	query := r.sb.
		Update("call_logs").
		Set("call_sid", callSID).
		Set("updated_at", at).
		Where(sq.Eq{"id": id})
	return r.execOne(ctx, query, "attach call sid")
}

func (r *PostgresRepo) ApplyStatus(ctx context.Context, id string, u StatusUpdate, at time.Time) error {
	query := r.sb.Update("call_logs")
	if u.Status != "" {
		terminal := make([]any, 0, len(TerminalStatuses)+1)
		for _, s := range TerminalStatuses {
			terminal = append(terminal, string(s))
		}
		terminal = append(terminal, string(u.Status))
		query = query.Set("status", sq.Expr("CASE WHEN status IN (?,?,?,?,?) THEN status ELSE ? END", terminal...))
	}
	query = query.
		Set("updated_at", at).
		Where(sq.Eq{"id": id})
	if u.DurationSeconds != nil {
		query = query.Set("duration_seconds", *u.DurationSeconds)
	}
	if u.AnsweredBy != nil {
		query = query.Set("answered_by", *u.AnsweredBy)
	}
	if u.Notes != nil {
		query = query.Set("notes", *u.Notes)
	}
	return r.execOne(ctx, query, "update call status")
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (CallLog, error) {
	query := r.sb.
		Select(callLogColumns).
		From("call_logs").
		Where(sq.Eq{"id": id}).
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return CallLog{}, fmt.Errorf("build get call log sql: %w", err)
	}
	c, err := scanCallLog(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, fmt.Errorf("get call log: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]CallLog, error) {
	query := r.sb.
		Select(callLogColumns).
		From("call_logs").
		OrderBy("created_at ASC")
	if !f.From.IsZero() {
		query = query.Where(sq.GtOrEq{"created_at": f.From})
	}
	if !f.To.IsZero() {
		query = query.Where(sq.Lt{"created_at": f.To})
	}
	if f.Direction != "" {
		query = query.Where(sq.Eq{"direction": string(f.Direction)})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list call logs sql: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	out := make([]CallLog, 0)
	for rows.Next() {
		c, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call log: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) execOne(ctx context.Context, query sq.UpdateBuilder, op string) error {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (CallLog, error) {
	var (
		c                                      CallLog
		customerID, callSID, answeredBy, notes sql.NullString
		direction, status                      string
	)
	if err := row.Scan(
		&c.ID,
		&customerID,
		&c.PhoneNumber,
		&c.CustomerName,
		&direction,
		&status,
		&callSID,
		&c.DurationSeconds,
		&answeredBy,
		&notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return CallLog{}, err
	}
	c.CustomerID = customerID.String
	c.CallSID = callSID.String
	c.AnsweredBy = answeredBy.String
	c.Notes = notes.String
	c.Direction = Direction(direction)
	c.Status = Status(status)
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
