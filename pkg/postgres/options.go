package postgres

import (
	"errors"
	"time"
)

type Option func(*Postgres)

func MaxPoolSize(size int) Option {
	return func(p *Postgres) {
		p.maxPoolSize = size
	}
}

func MaxConnAttempts(attempts int) Option {
	return func(p *Postgres) {
		p.connAttempts = attempts
	}
}

func BaseRetryDelay(delay time.Duration) Option {
	return func(p *Postgres) {
		p.baseRetryDelay = delay
	}
}

// RetryBackoff multiplies the delay between connection attempts.
func RetryBackoff(factor float64) Option {
	return func(p *Postgres) {
		p.retryBackoff = factor
	}
}

func (p *Postgres) validate() error {
	if p.maxPoolSize <= 0 {
		return errors.New("invalid maxPoolSize: must be > 0")
	}
	if p.connAttempts <= 0 {
		return errors.New("invalid connAttempts: must be > 0")
	}
	if p.baseRetryDelay <= 0 {
		return errors.New("invalid baseRetryDelay: must be > 0")
	}
	if p.retryBackoff < 1 {
		return errors.New("invalid retryBackoff: must be >= 1")
	}
	if p.log == nil {
		return errors.New("invalid logger: must be non-nil")
	}
	return nil
}
