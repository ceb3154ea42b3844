package redis

import (
	"errors"
	"time"
)

type Option func(*Redis)

func PoolSize(size int) Option {
	return func(r *Redis) {
		r.poolSize = size
	}
}

func MinIdleConns(conns int) Option {
	return func(r *Redis) {
		r.minIdleConns = conns
	}
}

func PoolTimeout(timeout time.Duration) Option {
	return func(r *Redis) {
		r.poolTimeout = timeout
	}
}

func (r *Redis) validate() error {
	if r.poolSize <= 0 {
		return errors.New("invalid poolSize: must be > 0")
	}

	if r.minIdleConns < 0 || r.minIdleConns > r.poolSize {
		return errors.New("invalid minIdleConns: must be within [0, poolSize]")
	}

	if r.poolTimeout <= 0 {
		return errors.New("invalid poolTimeout: must be > 0")
	}

	return nil
}
