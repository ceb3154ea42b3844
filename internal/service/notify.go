package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamnotifier/internal/entity"
	"streamnotifier/internal/metrics"
	"streamnotifier/pkg/logger"
)

type GenerationOutcome string

const (
	GenerationCreated GenerationOutcome = "creada"
	GenerationSkipped GenerationOutcome = "omitida"
	GenerationFailed  GenerationOutcome = "error"
)

type (
	GenerationItem struct {
		ServiceID      int64             `json:"servicio_id"`
		ClientID       int64             `json:"cliente_id"`
		NotificationID int64             `json:"notificacion_id,omitempty"`
		Outcome        GenerationOutcome `json:"resultado"`
		Error          string            `json:"error,omitempty"`
	}

	GenerationResult struct {
		Created int              `json:"creadas"`
		Skipped int              `json:"omitidas"`
		Failed  int              `json:"fallidas"`
		Items   []GenerationItem `json:"resultados"`
	}

	DispatchItem struct {
		NotificationID int64                     `json:"notificacion_id"`
		ClientID       int64                     `json:"cliente_id"`
		Status         entity.NotificationStatus `json:"estado"`
		Error          string                    `json:"error,omitempty"`
		PersistError   string                    `json:"error_guardado,omitempty"`
	}

	DispatchResult struct {
		Sent   int            `json:"enviadas"`
		Failed int            `json:"fallidas"`
		Items  []DispatchItem `json:"resultados"`
	}
)

// GenerateAutomatic creates one Pending expiration notification for every
// Active service expiring within the configured lead time that has not been
// notified today. Per-row failures are reported in the result; only loading
// settings or candidates fails the whole call. The batch ignores cancellation
// and deadlines of ctx and always runs to the last candidate.
func (s *NotifyService) GenerateAutomatic(ctx context.Context) (*GenerationResult, error) {
	const op = "service.NotifyService.GenerateAutomatic"

	ctx = context.WithoutCancel(ctx)
	log := s.log.Ctx(ctx)
	startTime := time.Now()

	settings, err := LoadNotifySettings(ctx, s.settings)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to load settings",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := s.today()
	until := today.AddDays(settings.LeadDays)

	defer s.logSlowOperation(ctx, op, startTime, logger.String("today", today.String()))

	log.LogAttrs(ctx, logger.InfoLevel, "generation started",
		logger.String("op", op),
		logger.String("today", today.String()),
		logger.Int("lead_days", settings.LeadDays),
	)

	candidates, err := s.subs.GetActiveExpiringBetween(ctx, nil, today, until, today)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to load expiring services",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &GenerationResult{Items: make([]GenerationItem, 0, len(candidates))}
	defer func() {
		if result.Created > 0 {
			s.invalidateHistory(ctx, op)
		}
	}()

	for _, sub := range candidates {
		item := s.generateOne(ctx, sub, settings.Template, today)
		switch item.Outcome {
		case GenerationCreated:
			result.Created++
		case GenerationSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		metrics.NotificationsGenerated.WithLabelValues(outcomeLabel(item.Outcome)).Inc()
		result.Items = append(result.Items, item)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "generation finished",
		logger.String("op", op),
		logger.Int("candidates", len(candidates)),
		logger.Int("created", result.Created),
		logger.Int("skipped", result.Skipped),
		logger.Int("failed", result.Failed),
	)

	return result, nil
}

func (s *NotifyService) generateOne(
	ctx context.Context,
	sub entity.ExpiringSubscription,
	template string,
	today entity.Date,
) GenerationItem {
	const op = "service.NotifyService.generateOne"

	item := GenerationItem{ServiceID: sub.ID, ClientID: sub.ClientID}

	key, err := s.newKey()
	if err != nil {
		item.Outcome = GenerationFailed
		item.Error = fmt.Sprintf("idempotency key: %v", err)
		return item
	}

	serviceID := sub.ID
	n := entity.Notification{
		ServiceID: &serviceID,
		ClientID:  sub.ClientID,
		Type:      entity.TypeExpiration,
		Message: RenderTemplate(template, TemplateVars{
			ClientName:     sub.ClientName,
			ServiceName:    sub.Name,
			ExpirationDate: sub.ExpirationDate,
		}),
		Status:         entity.StatusPending,
		Automatic:      true,
		IdempotencyKey: key,
		CreatedAt:      s.now().UTC(),
		CreatedOn:      today,
	}

	id, err := s.repo.Create(ctx, nil, n)
	switch {
	case err == nil:
		item.NotificationID = id
		item.Outcome = GenerationCreated
	case errors.Is(err, entity.ErrConflictingData):
		item.Outcome = GenerationSkipped
	default:
		item.Outcome = GenerationFailed
		item.Error = err.Error()
		s.log.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "failed to create notification",
			logger.String("op", op),
			logger.Int64("service_id", sub.ID),
			logger.Err(err),
		)
	}

	return item
}

// DispatchPending sends every Pending notification once and records the
// outcome. Sent and Failed follow the gateway result; a status write that
// fails is reported in the item and leaves the row Pending. Like
// GenerateAutomatic it runs to exhaustion regardless of ctx; each gateway
// call is bounded by the sender timeout only.
func (s *NotifyService) DispatchPending(ctx context.Context) (*DispatchResult, error) {
	const op = "service.NotifyService.DispatchPending"

	ctx = context.WithoutCancel(ctx)
	log := s.log.Ctx(ctx)
	startTime := time.Now()
	defer s.logSlowOperation(ctx, op, startTime)

	settings, err := LoadNotifySettings(ctx, s.settings)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to load settings",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pending, err := s.repo.GetPending(ctx, nil)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to load pending notifications",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "dispatch started",
		logger.String("op", op),
		logger.Int("pending", len(pending)),
		logger.Bool("gateway_configured", settings.Gateway.Complete()),
	)

	result := &DispatchResult{Items: make([]DispatchItem, 0, len(pending))}
	defer func() {
		if len(result.Items) > 0 {
			s.invalidateHistory(ctx, op)
		}
	}()

	for _, p := range pending {
		item := s.dispatchOne(ctx, settings.Gateway, p)
		if item.Status == entity.StatusSent {
			result.Sent++
		} else {
			result.Failed++
		}
		metrics.NotificationsDispatched.WithLabelValues(string(item.Status)).Inc()
		result.Items = append(result.Items, item)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "dispatch finished",
		logger.String("op", op),
		logger.Int("sent", result.Sent),
		logger.Int("failed", result.Failed),
	)

	return result, nil
}

func (s *NotifyService) dispatchOne(
	ctx context.Context,
	target entity.GatewayTarget,
	p entity.PendingNotification,
) DispatchItem {
	const op = "service.NotifyService.dispatchOne"

	log := s.log.Ctx(ctx)
	item := DispatchItem{NotificationID: p.ID, ClientID: p.ClientID}

	var sendErr error
	if strings.TrimSpace(p.Phone) == "" {
		sendErr = fmt.Errorf("%w: client %d has no phone", entity.ErrRecipientNotFound, p.ClientID)
	} else {
		_, sendErr = s.sender.Send(ctx, target, entity.OutboundMessage{
			Phone:          p.Phone,
			Body:           p.Message,
			IdempotencyKey: p.IdempotencyKey,
		})
	}

	var (
		sentAt  *time.Time
		lastErr *string
	)
	if sendErr == nil {
		now := s.now().UTC()
		sentAt = &now
		item.Status = entity.StatusSent
	} else {
		msg := sendErr.Error()
		lastErr = &msg
		item.Status = entity.StatusFailed
		item.Error = msg
		log.LogAttrs(ctx, logger.WarnLevel, "notification delivery failed",
			logger.String("op", op),
			logger.Int64("notification_id", p.ID),
			logger.Err(sendErr),
		)
	}

	if err := s.repo.UpdateStatus(ctx, nil, p.ID, item.Status, sentAt, lastErr); err != nil {
		item.PersistError = err.Error()
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to persist notification status",
			logger.String("op", op),
			logger.Int64("notification_id", p.ID),
			logger.String("status", string(item.Status)),
			logger.Err(err),
		)
	}

	return item
}

// History lists every notification newest first, served from the cache
// when possible. Cache errors never fail the read.
func (s *NotifyService) History(ctx context.Context) ([]entity.NotificationView, error) {
	const op = "service.NotifyService.History"

	log := s.log.Ctx(ctx)
	startTime := time.Now()
	defer s.logSlowOperation(ctx, op, startTime)

	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "history cache read failed",
			logger.String("op", op),
			logger.Err(err),
		)
	}
	if ok {
		log.LogAttrs(ctx, logger.DebugLevel, "history served from cache",
			logger.String("op", op),
			logger.Int("rows", len(cached)),
		)
		return cached, nil
	}

	history, err := s.repo.ListHistory(ctx, nil)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to list history",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.cache.Set(ctx, history); err != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "history cache write failed",
			logger.String("op", op),
			logger.Err(err),
		)
	}

	return history, nil
}

// CreateManual stores an operator-written Pending notification. It is never
// deduplicated against automatic ones.
func (s *NotifyService) CreateManual(ctx context.Context, req entity.ManualNotification) (*entity.Notification, error) {
	const op = "service.NotifyService.CreateManual"

	log := s.log.Ctx(ctx)
	startTime := time.Now()
	defer s.logSlowOperation(ctx, op, startTime, logger.Int64("client_id", req.ClientID))

	if req.ClientID <= 0 || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%s: %w: cliente_id and mensaje are required", op, entity.ErrInvalidData)
	}
	if req.ServiceID != nil && *req.ServiceID <= 0 {
		req.ServiceID = nil
	}

	key, err := s.newKey()
	if err != nil {
		return nil, fmt.Errorf("%s: idempotency key: %w", op, err)
	}

	n := entity.Notification{
		ServiceID:      req.ServiceID,
		ClientID:       req.ClientID,
		Type:           entity.TypeExpiration,
		Message:        req.Message,
		Status:         entity.StatusPending,
		IdempotencyKey: key,
		CreatedAt:      s.now().UTC(),
		CreatedOn:      s.today(),
	}

	n.ID, err = s.repo.Create(ctx, nil, n)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to create manual notification",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateHistory(ctx, op)

	log.LogAttrs(ctx, logger.InfoLevel, "manual notification created",
		logger.String("op", op),
		logger.Int64("notification_id", n.ID),
		logger.Int64("client_id", n.ClientID),
	)

	return &n, nil
}

func outcomeLabel(o GenerationOutcome) string {
	switch o {
	case GenerationCreated:
		return metrics.OutcomeCreated
	case GenerationSkipped:
		return metrics.OutcomeSkipped
	default:
		return metrics.OutcomeFailed
	}
}
