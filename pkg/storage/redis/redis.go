// Package redis wraps a go-redis client with pool options and a startup ping.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	_defaultPoolSize     = 20
	_defaultMinIdleConns = 2
	_defaultPoolTimeout  = 100 * time.Millisecond
	_pingTimeout         = 3 * time.Second
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = goredis.Nil

type Redis struct {
	*goredis.Client

	poolSize     int
	minIdleConns int
	poolTimeout  time.Duration
}

func New(ctx context.Context, addr, password string, db int, opts ...Option) (*Redis, error) {
	const op = "redis.New"

	r := &Redis{
		poolSize:     _defaultPoolSize,
		minIdleConns: _defaultMinIdleConns,
		poolTimeout:  _defaultPoolTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.Client = goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     r.poolSize,
		MinIdleConns: r.minIdleConns,
		PoolTimeout:  r.poolTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, _pingTimeout)
	defer cancel()

	if err := r.Ping(pingCtx).Err(); err != nil {
		_ = r.Client.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return r, nil
}

// IsNil reports whether err signals a missing key.
func IsNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}
