package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
)

type ClickHouseOpts struct {
	DSN             string // clickhouse://default:@localhost:9000/trpc?dial_timeout=5s
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration // default 3s
}

func (o ClickHouseOpts) applyPool(db *sql.DB) {
	if o.MaxOpenConns > 0 {
		db.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		db.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(o.ConnMaxLifetime)
	}
	if o.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(o.ConnMaxIdleTime)
	}
}

// NewClickHouseConnection opens the audit pool and fails unless the server
// answers a ping.
func NewClickHouseConnection(ctx context.Context, opts ClickHouseOpts) (*sqlx.DB, error) {
	if opts.DSN == "" {
		return nil, ErrNoDSN
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}

	ch, err := sqlx.Open("clickhouse", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	opts.applyPool(ch.DB)

	if err := ping(ctx, opts.PingTimeout, ch.PingContext); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return ch, nil
}
