package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
	"streamnotifier/pkg/postgres"
)

const _slowOperationThreshold = 200 * time.Millisecond

type (
	NotifyRepository interface {
		Create(ctx context.Context, qe postgres.QueryExecuter, n entity.Notification) (int64, error)
		GetPending(ctx context.Context, qe postgres.QueryExecuter) ([]entity.PendingNotification, error)
		UpdateStatus(
			ctx context.Context,
			qe postgres.QueryExecuter,
			id int64,
			status entity.NotificationStatus,
			sentAt *time.Time,
			lastErr *string,
		) error
		ListHistory(ctx context.Context, qe postgres.QueryExecuter) ([]entity.NotificationView, error)
	}

	SubscriptionFinder interface {
		GetActiveExpiringBetween(
			ctx context.Context,
			qe postgres.QueryExecuter,
			from, to, notifiedOn entity.Date,
		) ([]entity.ExpiringSubscription, error)
	}

	SettingsReader interface {
		GetAll(ctx context.Context, qe postgres.QueryExecuter, keys []string) (map[string]string, error)
	}

	MessageSender interface {
		Send(ctx context.Context, target entity.GatewayTarget, msg entity.OutboundMessage) (*entity.GatewayAck, error)
		Check(target entity.GatewayTarget) error
	}

	HistoryCache interface {
		Get(ctx context.Context) ([]entity.NotificationView, bool, error)
		Set(ctx context.Context, history []entity.NotificationView) error
		Invalidate(ctx context.Context) error
	}

	// NotifyService generates, dispatches and lists expiration notifications.
	NotifyService struct {
		repo     NotifyRepository
		subs     SubscriptionFinder
		settings SettingsReader
		sender   MessageSender
		cache    HistoryCache
		log      logger.Logger

		now    func() time.Time
		loc    *time.Location
		newKey func() (uuid.UUID, error)
	}
)

func NewNotifyService(
	repo NotifyRepository,
	subs SubscriptionFinder,
	settings SettingsReader,
	sender MessageSender,
	log logger.Logger,
	opts ...Option,
) (*NotifyService, error) {
	s := &NotifyService{
		repo:     repo,
		subs:     subs,
		settings: settings,
		sender:   sender,
		cache:    noopCache{},
		log:      log,
		now:      time.Now,
		loc:      time.UTC,
		newKey:   uuid.NewRandom,
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// today is the current calendar day in the service's time zone.
func (s *NotifyService) today() entity.Date {
	return entity.DateOf(s.now().In(s.loc))
}

func (s *NotifyService) invalidateHistory(ctx context.Context, op string) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "history cache invalidation failed",
			logger.String("op", op),
			logger.Err(err),
		)
	}
}

func (s *NotifyService) logSlowOperation(ctx context.Context, op string, startTime time.Time, attrs ...logger.Attr) {
	logSlowOperation(ctx, s.log, op, startTime, attrs...)
}

func logSlowOperation(ctx context.Context, log logger.Logger, op string, startTime time.Time, attrs ...logger.Attr) {
	duration := time.Since(startTime)
	if duration <= _slowOperationThreshold {
		return
	}

	all := append([]logger.Attr{
		logger.String("op", op),
		logger.Duration("duration", duration),
	}, attrs...)
	log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "slow operation detected", all...)
}

type noopCache struct{}

func (noopCache) Get(context.Context) ([]entity.NotificationView, bool, error) {
	return nil, false, nil
}
func (noopCache) Set(context.Context, []entity.NotificationView) error { return nil }
func (noopCache) Invalidate(context.Context) error                     { return nil }
