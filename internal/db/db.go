// Package db opens the optional backing stores: ClickHouse for the call
// audit trail and Redis for the rate limiter.
package db

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoDSN  = errors.New("empty ClickHouse DSN")
	ErrNoAddr = errors.New("empty Redis addr")
)

// ping runs check under its own deadline, bounded by ctx.
func ping(ctx context.Context, timeout time.Duration, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return check(ctx)
}
