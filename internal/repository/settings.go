package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

const settingsTable = "configuracion"

// SettingsRepository is the key/value configuration store. Values are
// returned verbatim; parsing and defaults belong to the caller.
type SettingsRepository struct {
	base
}

func NewSettingsRepository(db *postgres.Postgres) *SettingsRepository {
	return &SettingsRepository{base{db: db}}
}

// Get returns the stored value for key, or "" when the key is absent.
func (r *SettingsRepository) Get(ctx context.Context, qe postgres.QueryExecuter, key string) (string, error) {
	const op = "repository.SettingsRepository.Get"

	values, err := r.GetAll(ctx, qe, []string{key})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return values[key], nil
}

// GetAll fetches keys in one round trip. Absent keys are missing from the map.
func (r *SettingsRepository) GetAll(
	ctx context.Context,
	qe postgres.QueryExecuter,
	keys []string,
) (map[string]string, error) {
	const op = "repository.SettingsRepository.GetAll"

	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	query, args, err := r.db.Select("clave", "COALESCE(valor, '')").
		From(settingsTable).
		Where(squirrel.Eq{"clave": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := r.exec(qe).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		values[key] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return values, nil
}

// Set upserts a single key.
func (r *SettingsRepository) Set(ctx context.Context, qe postgres.QueryExecuter, key, value string) error {
	const op = "repository.SettingsRepository.Set"

	if !entity.IsKnownSetting(key) {
		return fmt.Errorf("%s: %w: unknown setting %q", op, entity.ErrInvalidData, key)
	}

	query, args, err := r.db.Insert(settingsTable).
		Columns("clave", "valor").
		Values(key, value).
		Suffix("ON CONFLICT (clave) DO UPDATE SET valor = EXCLUDED.valor").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	if _, err = r.exec(qe).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}

	return nil
}
