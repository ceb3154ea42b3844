package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

const (
	clientsTable  = "clientes"
	clientColumns = "id, nombre, apellido, telefono, COALESCE(email, ''), COALESCE(direccion, ''), activo, fecha_registro"
)

type ClientRepository struct {
	base
}

func NewClientRepository(db *postgres.Postgres) *ClientRepository {
	return &ClientRepository{base{db: db}}
}

// List returns every client, including deactivated ones, newest first.
func (r *ClientRepository) List(ctx context.Context) ([]entity.Client, error) {
	const op = "repository.ClientRepository.List"

	query, args, err := r.db.Select(clientColumns).
		From(clientsTable).
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

	clients := make([]entity.Client, 0)
	for rows.Next() {
		var c entity.Client
		if err = scanClient(rows, &c); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		clients = append(clients, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return clients, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	const op = "repository.ClientRepository.GetByID"

	query, args, err := r.db.Select(clientColumns).
		From(clientsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	var c entity.Client
	if err = scanClient(r.db.QueryRowContext(ctx, query, args...), &c); err != nil {
		return nil, mapError(op, err)
	}

	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c entity.Client) (int64, error) {
	const op = "repository.ClientRepository.Create"

	query, args, err := r.db.Insert(clientsTable).
		Columns("nombre", "apellido", "telefono", "email", "direccion", "activo").
		Values(c.FirstName, c.LastName, c.Phone, nullIfEmpty(c.Email), nullIfEmpty(c.Address), true).
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

func (r *ClientRepository) Update(ctx context.Context, c entity.Client) error {
	const op = "repository.ClientRepository.Update"

	query, args, err := r.db.Update(clientsTable).
		Set("nombre", c.FirstName).
		Set("apellido", c.LastName).
		Set("telefono", c.Phone).
		Set("email", nullIfEmpty(c.Email)).
		Set("direccion", nullIfEmpty(c.Address)).
		Set("activo", c.Active).
		Where(squirrel.Eq{"id": c.ID}).
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

// Deactivate soft-deletes a client so its services and history stay intact.
func (r *ClientRepository) Deactivate(ctx context.Context, id int64) error {
	const op = "repository.ClientRepository.Deactivate"

	query, args, err := r.db.Update(clientsTable).
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

func scanClient(scanner rowScanner, c *entity.Client) error {
	return scanner.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.Active,
		&c.RegisteredAt,
	)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
