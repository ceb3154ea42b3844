// Package postgres wires database/sql over the pgx driver and exposes a
// squirrel statement builder bound to the Postgres placeholder format.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/wb-go/wbf/retry"

	"streamnotifier/pkg/logger"
)

const (
	_defaultMaxPoolSize    = 10
	_defaultConnAttempts   = 5
	_defaultBaseRetryDelay = 500 * time.Millisecond
	_defaultRetryBackoff   = 2
	_connMaxLifetime       = 5 * time.Minute
	_pingTimeout           = 5 * time.Second
)

// QueryExecuter is satisfied by both *sql.DB and *sql.Tx.
type QueryExecuter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Postgres struct {
	*sql.DB
	Builder squirrel.StatementBuilderType

	maxPoolSize    int
	connAttempts   int
	baseRetryDelay time.Duration
	retryBackoff   float64
	log            logger.Logger
}

// New opens a pool and blocks until the server answers a ping or the
// connection attempts are exhausted.
func New(ctx context.Context, dsn string, log logger.Logger, opts ...Option) (*Postgres, error) {
	const op = "postgres.New"

	pg := &Postgres{
		maxPoolSize:    _defaultMaxPoolSize,
		connAttempts:   _defaultConnAttempts,
		baseRetryDelay: _defaultBaseRetryDelay,
		retryBackoff:   _defaultRetryBackoff,
		log:            log,
	}
	for _, opt := range opts {
		opt(pg)
	}
	if err := pg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}
	db.SetMaxOpenConns(pg.maxPoolSize)
	db.SetMaxIdleConns(pg.maxPoolSize/2 + 1)
	db.SetConnMaxLifetime(_connMaxLifetime)
	db.SetConnMaxIdleTime(_connMaxLifetime)

	pg.DB = db
	pg.Builder = newBuilder()

	if err := pg.connect(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pg, nil
}

// NewWithDB wraps an already opened handle, e.g. a sqlmock connection.
func NewWithDB(db *sql.DB) *Postgres {
	return &Postgres{
		DB:      db,
		Builder: newBuilder(),
		log:     logger.NewNop(),
	}
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (p *Postgres) connect(ctx context.Context) error {
	strategy := retry.Strategy{
		Attempts: p.connAttempts,
		Delay:    p.baseRetryDelay,
		Backoff:  p.retryBackoff,
	}

	attempt := 0
	err := retry.DoContext(ctx, strategy, func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, _pingTimeout)
		defer cancel()

		if pingErr := p.DB.PingContext(pingCtx); pingErr != nil {
			p.log.Warnw("database ping failed",
				"attempt", attempt,
				"max_attempts", p.connAttempts,
				"error", pingErr,
			)
			return pingErr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping after %d attempts: %w", attempt, err)
	}

	p.log.Infow("database connected", "attempt", attempt)
	return nil
}

func (p *Postgres) Select(columns ...string) squirrel.SelectBuilder {
	return p.Builder.Select(columns...)
}

func (p *Postgres) Insert(table string) squirrel.InsertBuilder {
	return p.Builder.Insert(table)
}

func (p *Postgres) Update(table string) squirrel.UpdateBuilder {
	return p.Builder.Update(table)
}

func (p *Postgres) Delete(table string) squirrel.DeleteBuilder {
	return p.Builder.Delete(table)
}
