package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

const (
	notificationsTable = "notificaciones"

	historyColumns = "n.id, n.servicio_id, n.cliente_id, n.tipo_notificacion, n.mensaje, n.estado, " +
		"n.automatica, n.clave_idempotencia, COALESCE(n.ultimo_error, ''), n.fecha_creacion, n.fecha_dia, " +
		"n.fecha_envio, COALESCE(c.nombre, ''), COALESCE(s.nombre_servicio, '')"

	automaticConflictSuffix = "ON CONFLICT (servicio_id, tipo_notificacion, fecha_dia) WHERE automatica DO NOTHING"
)

type NotifyRepository struct {
	base
}

func NewNotifyRepository(db *postgres.Postgres) *NotifyRepository {
	return &NotifyRepository{base{db: db}}
}

// Create inserts n and returns its id. Automatic notifications that collide
// with an existing one for the same service and day yield ErrConflictingData.
func (r *NotifyRepository) Create(
	ctx context.Context,
	qe postgres.QueryExecuter,
	n entity.Notification,
) (int64, error) {
	const op = "repository.NotifyRepository.Create"

	suffix := "RETURNING id"
	if n.Automatic {
		suffix = automaticConflictSuffix + " " + suffix
	}

	query, args, err := r.db.Insert(notificationsTable).
		Columns(
			"servicio_id", "cliente_id", "tipo_notificacion", "mensaje", "estado",
			"automatica", "clave_idempotencia", "fecha_creacion", "fecha_dia",
		).
		Values(
			n.ServiceID, n.ClientID, n.Type, n.Message, n.Status,
			n.Automatic, n.IdempotencyKey, n.CreatedAt, n.CreatedOn,
		).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: building query: %w", op, err)
	}

	var id int64
	if err = r.exec(qe).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, entity.ErrConflictingData)
		}
		return 0, mapError(op, err)
	}

	return id, nil
}

// GetPending returns every Pending notification with the recipient's phone
// and name. Missing clients yield empty strings.
func (r *NotifyRepository) GetPending(
	ctx context.Context,
	qe postgres.QueryExecuter,
) ([]entity.PendingNotification, error) {
	const op = "repository.NotifyRepository.GetPending"

	query, args, err := r.db.Select(
		"n.id", "n.cliente_id", "n.mensaje", "n.clave_idempotencia",
		"COALESCE(c.telefono, '')", "COALESCE(c.nombre, '')",
	).
		From(notificationsTable + " n").
		LeftJoin("clientes c ON c.id = n.cliente_id").
		Where(squirrel.Eq{"n.estado": entity.StatusPending}).
		OrderBy("n.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := r.exec(qe).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var pending []entity.PendingNotification
	for rows.Next() {
		var p entity.PendingNotification
		if err = rows.Scan(&p.ID, &p.ClientID, &p.Message, &p.IdempotencyKey, &p.Phone, &p.ClientName); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		pending = append(pending, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return pending, nil
}

// UpdateStatus moves a Pending notification to its final status. Rows that
// already left Pending are not touched and yield ErrDataNotFound.
func (r *NotifyRepository) UpdateStatus(
	ctx context.Context,
	qe postgres.QueryExecuter,
	id int64,
	status entity.NotificationStatus,
	sentAt *time.Time,
	lastErr *string,
) error {
	const op = "repository.NotifyRepository.UpdateStatus"

	query, args, err := r.db.Update(notificationsTable).
		Set("estado", status).
		Set("fecha_envio", sentAt).
		Set("ultimo_error", lastErr).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"estado": entity.StatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	res, err := r.exec(qe).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}

	return requireAffected(op, res)
}

// ListHistory returns every notification, newest first.
func (r *NotifyRepository) ListHistory(
	ctx context.Context,
	qe postgres.QueryExecuter,
) ([]entity.NotificationView, error) {
	const op = "repository.NotifyRepository.ListHistory"

	query, args, err := r.db.Select(historyColumns).
		From(notificationsTable+" n").
		LeftJoin("clientes c ON c.id = n.cliente_id").
		LeftJoin("servicios s ON s.id = n.servicio_id").
		OrderBy("n.fecha_creacion DESC", "n.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := r.exec(qe).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	history := make([]entity.NotificationView, 0)
	for rows.Next() {
		var v entity.NotificationView
		if err = rows.Scan(
			&v.ID,
			&v.ServiceID,
			&v.ClientID,
			&v.Type,
			&v.Message,
			&v.Status,
			&v.Automatic,
			&v.IdempotencyKey,
			&v.LastError,
			&v.CreatedAt,
			&v.CreatedOn,
			&v.SentAt,
			&v.ClientName,
			&v.ServiceName,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		history = append(history, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return history, nil
}
