package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
)

type (
	ClientStore interface {
		List(ctx context.Context) ([]entity.Client, error)
		GetByID(ctx context.Context, id int64) (*entity.Client, error)
		Create(ctx context.Context, c entity.Client) (int64, error)
		Update(ctx context.Context, c entity.Client) error
		Deactivate(ctx context.Context, id int64) error
	}

	ProviderStore interface {
		List(ctx context.Context) ([]entity.Provider, error)
		GetByID(ctx context.Context, id int64) (*entity.Provider, error)
		Create(ctx context.Context, p entity.Provider) (int64, error)
		Update(ctx context.Context, p entity.Provider) error
		Deactivate(ctx context.Context, id int64) error
	}

	SubscriptionStore interface {
		List(ctx context.Context, filter entity.SubscriptionFilter) ([]entity.SubscriptionView, int, error)
		ListExpiring(ctx context.Context, from, to entity.Date) ([]entity.SubscriptionView, error)
		GetByID(ctx context.Context, id int64) (*entity.SubscriptionView, error)
		Create(ctx context.Context, s entity.Subscription) (int64, error)
		Update(ctx context.Context, s entity.Subscription) error
		Delete(ctx context.Context, id int64) error
	}

	// RecordService validates and stores clients, providers and services.
	RecordService struct {
		clients   ClientStore
		providers ProviderStore
		subs      SubscriptionStore
		validate  *validator.Validate
		cache     HistoryCache
		log       logger.Logger

		now func() time.Time
		loc *time.Location
	}
)

func NewRecordService(
	clients ClientStore,
	providers ProviderStore,
	subs SubscriptionStore,
	log logger.Logger,
	loc *time.Location,
	opts ...RecordOption,
) *RecordService {
	if loc == nil {
		loc = time.UTC
	}
	s := &RecordService{
		clients:   clients,
		providers: providers,
		subs:      subs,
		validate:  validator.New(),
		cache:     noopCache{},
		log:       log,
		now:       time.Now,
		loc:       loc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RecordOption func(*RecordService)

// WithRecordHistoryCache sets the history cache cleared when a client or
// service shown in the history changes.
func WithRecordHistoryCache(cache HistoryCache) RecordOption {
	return func(s *RecordService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func (s *RecordService) invalidateHistory(ctx context.Context, op string) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "history cache invalidation failed",
			logger.String("op", op),
			logger.Err(err),
		)
	}
}

func (s *RecordService) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", entity.ErrInvalidData, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
	}
	return nil
}

func (s *RecordService) ListClients(ctx context.Context) ([]entity.Client, error) {
	const op = "service.RecordService.ListClients"

	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, nil
}

func (s *RecordService) GetClient(ctx context.Context, id int64) (*entity.Client, error) {
	const op = "service.RecordService.GetClient"

	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *RecordService) CreateClient(ctx context.Context, c entity.Client) (int64, error) {
	const op = "service.RecordService.CreateClient"

	normalizeClient(&c)
	if err := s.check(c); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.clients.Create(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "client created",
		logger.String("op", op),
		logger.Int64("client_id", id),
	)
	return id, nil
}

func (s *RecordService) UpdateClient(ctx context.Context, c entity.Client) error {
	const op = "service.RecordService.UpdateClient"

	normalizeClient(&c)
	if err := s.check(c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.clients.Update(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateHistory(ctx, op)
	return nil
}

func (s *RecordService) DeleteClient(ctx context.Context, id int64) error {
	const op = "service.RecordService.DeleteClient"

	if err := s.clients.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateHistory(ctx, op)

	s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "client deactivated",
		logger.String("op", op),
		logger.Int64("client_id", id),
	)
	return nil
}

func (s *RecordService) ListProviders(ctx context.Context) ([]entity.Provider, error) {
	const op = "service.RecordService.ListProviders"

	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return providers, nil
}

func (s *RecordService) GetProvider(ctx context.Context, id int64) (*entity.Provider, error) {
	const op = "service.RecordService.GetProvider"

	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *RecordService) CreateProvider(ctx context.Context, p entity.Provider) (int64, error) {
	const op = "service.RecordService.CreateProvider"

	p.Name = strings.TrimSpace(p.Name)
	if err := s.check(p); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.providers.Create(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *RecordService) UpdateProvider(ctx context.Context, p entity.Provider) error {
	const op = "service.RecordService.UpdateProvider"

	p.Name = strings.TrimSpace(p.Name)
	if err := s.check(p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.providers.Update(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *RecordService) DeleteProvider(ctx context.Context, id int64) error {
	const op = "service.RecordService.DeleteProvider"

	if err := s.providers.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *RecordService) ListSubscriptions(
	ctx context.Context,
	search string,
	page entity.Page,
) ([]entity.SubscriptionView, entity.Pagination, error) {
	const op = "service.RecordService.ListSubscriptions"

	views, total, err := s.subs.List(ctx, entity.SubscriptionFilter{
		Search: strings.TrimSpace(search),
		Page:   page,
	})
	if err != nil {
		return nil, entity.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}

	return views, entity.NewPagination(page, total), nil
}

// ListExpiring returns Active services expiring between today and today+days.
// A negative days value uses the default lead time.
func (s *RecordService) ListExpiring(ctx context.Context, days int) ([]entity.SubscriptionView, error) {
	const op = "service.RecordService.ListExpiring"

	if days < 0 {
		days = entity.DefaultLeadDays
	}
	today := entity.DateOf(s.now().In(s.loc))

	views, err := s.subs.ListExpiring(ctx, today, today.AddDays(days))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return views, nil
}

func (s *RecordService) GetSubscription(ctx context.Context, id int64) (*entity.SubscriptionView, error) {
	const op = "service.RecordService.GetSubscription"

	v, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s *RecordService) CreateSubscription(ctx context.Context, sub entity.Subscription) (int64, error) {
	const op = "service.RecordService.CreateSubscription"

	if sub.Status == "" {
		sub.Status = entity.ServiceActive
	}
	if err := s.checkSubscription(sub); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.subs.Create(ctx, sub)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "service created",
		logger.String("op", op),
		logger.Int64("service_id", id),
		logger.String("expires", sub.ExpirationDate.String()),
	)
	return id, nil
}

func (s *RecordService) UpdateSubscription(ctx context.Context, sub entity.Subscription) error {
	const op = "service.RecordService.UpdateSubscription"

	if err := s.checkSubscription(sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateHistory(ctx, op)
	return nil
}

func (s *RecordService) DeleteSubscription(ctx context.Context, id int64) error {
	const op = "service.RecordService.DeleteSubscription"

	if err := s.subs.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateHistory(ctx, op)
	return nil
}

func (s *RecordService) checkSubscription(sub entity.Subscription) error {
	if err := s.check(sub); err != nil {
		return err
	}
	if !sub.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", entity.ErrInvalidData, sub.Status)
	}
	if sub.MonthlyPrice.IsNegative() {
		return fmt.Errorf("%w: precio_mensual must not be negative", entity.ErrInvalidData)
	}
	if sub.StartDate.IsZero() || sub.ExpirationDate.IsZero() {
		return fmt.Errorf("%w: fecha_inicio and fecha_vencimiento are required", entity.ErrInvalidData)
	}
	return nil
}

func normalizeClient(c *entity.Client) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
}
