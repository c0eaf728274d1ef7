package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOpts struct {
	Addr        string        // host:port, or a redis:// URL
	Password    string        // overrides a URL password when set
	DB          int           // ignored for URLs, which carry their own
	DialTimeout time.Duration // default 5s
}

func (o RedisOpts) options() (*redis.Options, error) {
	if !strings.Contains(o.Addr, "://") {
		return &redis.Options{
			Addr:        o.Addr,
			Password:    o.Password,
			DB:          o.DB,
			DialTimeout: o.DialTimeout,
		}, nil
	}

	ro, err := redis.ParseURL(o.Addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if o.Password != "" {
		ro.Password = o.Password
	}
	ro.DialTimeout = o.DialTimeout
	return ro, nil
}

// NewRedisClient connects the rate limiter's client and pings it.
func NewRedisClient(ctx context.Context, opts RedisOpts) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, ErrNoAddr
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	ro, err := opts.options()
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ro)
	if err := ping(ctx, opts.DialTimeout, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", ro.Addr, err)
	}
	return rdb, nil
}
