package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

const (
	servicesTable = "servicios"

	subscriptionViewColumns = "s.id, s.cliente_id, s.proveedor_id, s.nombre_servicio, s.tipo_servicio, " +
		"s.precio_mensual, s.fecha_inicio, s.fecha_vencimiento, s.estado, COALESCE(s.observaciones, ''), " +
		"s.fecha_registro, c.nombre, c.apellido, p.nombre"
)

type SubscriptionRepository struct {
	base
}

func NewSubscriptionRepository(db *postgres.Postgres) *SubscriptionRepository {
	return &SubscriptionRepository{base{db: db}}
}

func (r *SubscriptionRepository) viewQuery() squirrel.SelectBuilder {
	return r.db.Select(subscriptionViewColumns).
		From(servicesTable + " s").
		Join("clientes c ON c.id = s.cliente_id").
		Join("proveedores p ON p.id = s.proveedor_id")
}

// GetActiveExpiringBetween returns Active services expiring within
// [from, to] that have no expiration notification dated notifiedOn.
func (r *SubscriptionRepository) GetActiveExpiringBetween(
	ctx context.Context,
	qe postgres.QueryExecuter,
	from, to, notifiedOn entity.Date,
) ([]entity.ExpiringSubscription, error) {
	const op = "repository.SubscriptionRepository.GetActiveExpiringBetween"

	query, args, err := r.db.Select(
		"s.id", "s.cliente_id", "s.nombre_servicio", "s.fecha_vencimiento",
		"COALESCE(c.nombre, '')", "COALESCE(c.telefono, '')",
	).
		From(servicesTable+" s").
		LeftJoin("clientes c ON c.id = s.cliente_id").
		Where(squirrel.Eq{"s.estado": entity.ServiceActive}).
		Where("s.fecha_vencimiento BETWEEN ? AND ?", from, to).
		Where(
			"NOT EXISTS (SELECT 1 FROM notificaciones n WHERE n.servicio_id = s.id "+
				"AND n.tipo_notificacion = ? AND n.fecha_dia = ?)",
			entity.TypeExpiration, notifiedOn,
		).
		OrderBy("s.fecha_vencimiento ASC", "s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := r.exec(qe).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var result []entity.ExpiringSubscription
	for rows.Next() {
		var s entity.ExpiringSubscription
		if err = rows.Scan(&s.ID, &s.ClientID, &s.Name, &s.ExpirationDate, &s.ClientName, &s.ClientPhone); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		result = append(result, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return result, nil
}

func searchFilter(search string) squirrel.Sqlizer {
	pattern := "%" + search + "%"
	return squirrel.Or{
		squirrel.ILike{"c.nombre": pattern},
		squirrel.ILike{"c.apellido": pattern},
		squirrel.ILike{"p.nombre": pattern},
		squirrel.ILike{"s.nombre_servicio": pattern},
		squirrel.ILike{"s.tipo_servicio": pattern},
		squirrel.ILike{"s.estado": pattern},
	}
}

// List returns one page of services, newest registration first, together
// with the total number of matching rows.
func (r *SubscriptionRepository) List(
	ctx context.Context,
	filter entity.SubscriptionFilter,
) ([]entity.SubscriptionView, int, error) {
	const op = "repository.SubscriptionRepository.List"

	count := r.db.Select("COUNT(*)").
		From(servicesTable + " s").
		Join("clientes c ON c.id = s.cliente_id").
		Join("proveedores p ON p.id = s.proveedor_id")
	list := r.viewQuery()

	if filter.Search != "" {
		count = count.Where(searchFilter(filter.Search))
		list = list.Where(searchFilter(filter.Search))
	}

	countQuery, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: building count query: %w", op, err)
	}

	var total int
	if err = r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	query, args, err := list.
		OrderBy("s.fecha_registro DESC", "s.id DESC").
		Limit(filter.Page.Limit()).
		Offset(filter.Page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: building query: %w", op, err)
	}

	views, err := r.queryViews(ctx, query, args)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return views, total, nil
}

// ListExpiring returns Active services expiring within [from, to], soonest first.
func (r *SubscriptionRepository) ListExpiring(
	ctx context.Context,
	from, to entity.Date,
) ([]entity.SubscriptionView, error) {
	const op = "repository.SubscriptionRepository.ListExpiring"

	query, args, err := r.viewQuery().
		Where(squirrel.Eq{"s.estado": entity.ServiceActive}).
		Where("s.fecha_vencimiento BETWEEN ? AND ?", from, to).
		OrderBy("s.fecha_vencimiento ASC", "s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	views, err := r.queryViews(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return views, nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*entity.SubscriptionView, error) {
	const op = "repository.SubscriptionRepository.GetByID"

	query, args, err := r.viewQuery().
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	var v entity.SubscriptionView
	if err = scanSubscriptionView(r.db.QueryRowContext(ctx, query, args...), &v); err != nil {
		return nil, mapError(op, err)
	}

	return &v, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, s entity.Subscription) (int64, error) {
	const op = "repository.SubscriptionRepository.Create"

	query, args, err := r.db.Insert(servicesTable).
		Columns(
			"cliente_id", "proveedor_id", "nombre_servicio", "tipo_servicio", "precio_mensual",
			"fecha_inicio", "fecha_vencimiento", "estado", "observaciones",
		).
		Values(
			s.ClientID, s.ProviderID, s.Name, s.Kind, s.MonthlyPrice,
			s.StartDate, s.ExpirationDate, s.Status, s.Notes,
		).
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

func (r *SubscriptionRepository) Update(ctx context.Context, s entity.Subscription) error {
	const op = "repository.SubscriptionRepository.Update"

	query, args, err := r.db.Update(servicesTable).
		Set("cliente_id", s.ClientID).
		Set("proveedor_id", s.ProviderID).
		Set("nombre_servicio", s.Name).
		Set("tipo_servicio", s.Kind).
		Set("precio_mensual", s.MonthlyPrice).
		Set("fecha_inicio", s.StartDate).
		Set("fecha_vencimiento", s.ExpirationDate).
		Set("estado", s.Status).
		Set("observaciones", s.Notes).
		Where(squirrel.Eq{"id": s.ID}).
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

func (r *SubscriptionRepository) Delete(ctx context.Context, id int64) error {
	const op = "repository.SubscriptionRepository.Delete"

	query, args, err := r.db.Delete(servicesTable).
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

func (r *SubscriptionRepository) queryViews(ctx context.Context, query string, args []any) ([]entity.SubscriptionView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	views := make([]entity.SubscriptionView, 0)
	for rows.Next() {
		var v entity.SubscriptionView
		if err = scanSubscriptionView(rows, &v); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		views = append(views, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return views, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriptionView(scanner rowScanner, v *entity.SubscriptionView) error {
	return scanner.Scan(
		&v.ID,
		&v.ClientID,
		&v.ProviderID,
		&v.Name,
		&v.Kind,
		&v.MonthlyPrice,
		&v.StartDate,
		&v.ExpirationDate,
		&v.Status,
		&v.Notes,
		&v.RegisteredAt,
		&v.ClientFirstName,
		&v.ClientLastName,
		&v.ProviderName,
	)
}
