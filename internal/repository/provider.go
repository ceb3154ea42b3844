package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

const (
	providersTable  = "proveedores"
	providerColumns = "id, nombre, COALESCE(contacto, ''), COALESCE(telefono, ''), COALESCE(email, ''), " +
		"COALESCE(direccion, ''), activo, fecha_registro"
)

type ProviderRepository struct {
	base
}

func NewProviderRepository(db *postgres.Postgres) *ProviderRepository {
	return &ProviderRepository{base{db: db}}
}

// List returns active providers, newest first.
func (r *ProviderRepository) List(ctx context.Context) ([]entity.Provider, error) {
	const op = "repository.ProviderRepository.List"

	query, args, err := r.db.Select(providerColumns).
		From(providersTable).
		Where(squirrel.Eq{"activo": true}).
		OrderBy("fecha_registro DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	providers := make([]entity.Provider, 0)
	for rows.Next() {
		var p entity.Provider
		if err = scanProvider(rows, &p); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		providers = append(providers, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return providers, nil
}

// GetByID only finds active providers.
func (r *ProviderRepository) GetByID(ctx context.Context, id int64) (*entity.Provider, error) {
	const op = "repository.ProviderRepository.GetByID"

	query, args, err := r.db.Select(providerColumns).
		From(providersTable).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"activo": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	var p entity.Provider
	if err = scanProvider(r.db.QueryRowContext(ctx, query, args...), &p); err != nil {
		return nil, mapError(op, err)
	}

	return &p, nil
}

func (r *ProviderRepository) Create(ctx context.Context, p entity.Provider) (int64, error) {
	const op = "repository.ProviderRepository.Create"

	query, args, err := r.db.Insert(providersTable).
		Columns("nombre", "contacto", "telefono", "email", "direccion", "activo").
		Values(p.Name, nullIfEmpty(p.Contact), nullIfEmpty(p.Phone), nullIfEmpty(p.Email), nullIfEmpty(p.Address), true).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: building query: %w", op, err)
	}

	var id int64
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapError(op, err)
	}

	return id, nil
}

func (r *ProviderRepository) Update(ctx context.Context, p entity.Provider) error {
	const op = "repository.ProviderRepository.Update"

	query, args, err := r.db.Update(providersTable).
		Set("nombre", p.Name).
		Set("contacto", nullIfEmpty(p.Contact)).
		Set("telefono", nullIfEmpty(p.Phone)).
		Set("email", nullIfEmpty(p.Email)).
		Set("direccion", nullIfEmpty(p.Address)).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}

	return requireAffected(op, res)
}

func (r *ProviderRepository) Deactivate(ctx context.Context, id int64) error {
	const op = "repository.ProviderRepository.Deactivate"

	query, args, err := r.db.Update(providersTable).
		Set("activo", false).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}

	return requireAffected(op, res)
}

func scanProvider(scanner rowScanner, p *entity.Provider) error {
	return scanner.Scan(
		&p.ID,
		&p.Name,
		&p.Contact,
		&p.Phone,
		&p.Email,
		&p.Address,
		&p.Active,
		&p.RegisteredAt,
	)
}
