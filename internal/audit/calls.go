package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CallRecord is one audited procedure call. Inputs are never recorded.
type CallRecord struct {
	ID         string    `db:"id"          json:"id"`
	Procedure  string    `db:"procedure"   json:"procedure"`
	Username   string    `db:"username"    json:"username"`
	Code       string    `db:"code"        json:"code"`
	DurationUS uint64    `db:"duration_us" json:"duration_us"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}

// CallsRepository stores and lists audited calls.
type CallsRepository interface {
	InsertBatch(ctx context.Context, recs []CallRecord) error
	ListRecent(ctx context.Context, procedure, username string, limit, offset int) ([]CallRecord, error)
}

type chCallsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHCallsRepository(ch *sqlx.DB) CallsRepository {
	return &chCallsRepository{ch: ch}
}

// InsertBatch writes recs as one ClickHouse block: clickhouse-go buffers the
// prepared statement's rows and sends them on commit.
func (r *chCallsRepository) InsertBatch(ctx context.Context, recs []CallRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calls batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO trpc.calls (id, procedure, username, code, duration_us, created_at)
		VALUES (:id, :procedure, :username, :code, :duration_us, :created_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare calls batch: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec); err != nil {
			return fmt.Errorf("append call %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calls batch: %w", err)
	}
	return nil
}

func (r *chCallsRepository) ListRecent(ctx context.Context, procedure, username string, limit, offset int) ([]CallRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, procedure, username, code, duration_us, created_at
		FROM trpc.calls
		WHERE 1 = 1
	`
	var args []any

	if procedure != "" {
		q += " AND procedure = ?"
		args = append(args, procedure)
	}
	if username != "" {
		q += " AND username = ?"
		args = append(args, username)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []CallRecord
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
