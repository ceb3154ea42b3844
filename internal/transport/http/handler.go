package httpt

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"streamnotifier/internal/entity"
	"streamnotifier/internal/service"
	"streamnotifier/pkg/logger"
)

const _defaultContextTimeout = 60 * time.Second

type (
	NotifyUseCase interface {
		GenerateAutomatic(ctx context.Context) (*service.GenerationResult, error)
		DispatchPending(ctx context.Context) (*service.DispatchResult, error)
		History(ctx context.Context) ([]entity.NotificationView, error)
		CreateManual(ctx context.Context, req entity.ManualNotification) (*entity.Notification, error)
	}

	RecordUseCase interface {
		ListClients(ctx context.Context) ([]entity.Client, error)
		GetClient(ctx context.Context, id int64) (*entity.Client, error)
		CreateClient(ctx context.Context, c entity.Client) (int64, error)
		UpdateClient(ctx context.Context, c entity.Client) error
		DeleteClient(ctx context.Context, id int64) error

		ListProviders(ctx context.Context) ([]entity.Provider, error)
		GetProvider(ctx context.Context, id int64) (*entity.Provider, error)
		CreateProvider(ctx context.Context, p entity.Provider) (int64, error)
		UpdateProvider(ctx context.Context, p entity.Provider) error
		DeleteProvider(ctx context.Context, id int64) error

		ListSubscriptions(ctx context.Context, search string, page entity.Page) ([]entity.SubscriptionView, entity.Pagination, error)
		ListExpiring(ctx context.Context, days int) ([]entity.SubscriptionView, error)
		GetSubscription(ctx context.Context, id int64) (*entity.SubscriptionView, error)
		CreateSubscription(ctx context.Context, sub entity.Subscription) (int64, error)
		UpdateSubscription(ctx context.Context, sub entity.Subscription) error
		DeleteSubscription(ctx context.Context, id int64) error
	}

	SettingsUseCase interface {
		Get(ctx context.Context) (map[string]string, error)
		Update(ctx context.Context, values map[string]string) error
		CheckGateway(ctx context.Context) error
	}
)

type Handler struct {
	notify   NotifyUseCase
	records  RecordUseCase
	settings SettingsUseCase
	log      logger.Logger
	router   *gin.Engine
	timeout  time.Duration
	now      func() time.Time
}

type Option func(*Handler)

// WithRequestTimeout bounds every request context. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

func NewHandler(
	notify NotifyUseCase,
	records RecordUseCase,
	settings SettingsUseCase,
	log logger.Logger,
	opts ...Option,
) (*Handler, error) {
	h := &Handler{
		notify:   notify,
		records:  records,
		settings: settings,
		log:      log,
		timeout:  _defaultContextTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.notify == nil || h.records == nil || h.settings == nil {
		return nil, errors.New("httpt.NewHandler: use cases must be non-nil")
	}
	if h.log == nil {
		return nil, errors.New("httpt.NewHandler: logger must be non-nil")
	}

	h.router = gin.New()
	h.router.Use(
		h.requestIDMiddleware(),
		h.loggingMiddleware(),
		h.recoveryMiddleware(),
		timeoutMiddleware(h.timeout, isBatchRequest),
	)
	h.setupRoutes()

	return h, nil
}

func (h *Handler) Engine() *gin.Engine {
	return h.router
}
