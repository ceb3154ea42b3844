package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"streamnotifier/internal/entity"
	"streamnotifier/internal/metrics"
	"streamnotifier/pkg/logger"
)

const (
	DefaultTimeout = 30 * time.Second

	// Bodies of failed responses are truncated to this size in GatewayError.
	maxErrorBody = 4 << 10
)

type Option func(*WhatsAppSender)

// WithHTTPClient uses a copy of c for gateway calls. The copy's Timeout is
// the sender's timeout; c itself is left unchanged.
func WithHTTPClient(c *http.Client) Option {
	return func(s *WhatsAppSender) {
		if c == nil {
			return
		}
		clone := *c
		s.client = &clone
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *WhatsAppSender) {
		s.timeout = d
	}
}

// WhatsAppSender posts messages to a WhatsApp-style webhook gateway.
type WhatsAppSender struct {
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

func NewWhatsAppSender(log logger.Logger, opts ...Option) *WhatsAppSender {
	s := &WhatsAppSender{
		timeout: DefaultTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{}
	}
	s.client.Timeout = s.timeout

	return s
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Check reports whether target carries everything Send needs. It performs
// no network call.
func (s *WhatsAppSender) Check(target entity.GatewayTarget) error {
	if !target.Complete() {
		return entity.ErrConfigurationMissing
	}
	return nil
}

// Send performs a single POST to the gateway. Only HTTP 200 is treated as
// delivered; any other outcome is a *entity.GatewayError.
func (s *WhatsAppSender) Send(
	ctx context.Context,
	target entity.GatewayTarget,
	msg entity.OutboundMessage,
) (*entity.GatewayAck, error) {
	const op = "sender.WhatsAppSender.Send"

	log := s.log.Ctx(ctx)
	if err := s.Check(target); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sendRequest{Phone: msg.Phone, Message: msg.Body})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal payload: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, &entity.GatewayError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+target.Token)
	if msg.IdempotencyKey != uuid.Nil {
		req.Header.Set("Idempotency-Key", msg.IdempotencyKey.String())
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.GatewayRequestDuration.WithLabelValues(metrics.GatewayUnreachable).Observe(time.Since(start).Seconds())
		log.LogAttrs(ctx, logger.WarnLevel, "gateway request failed",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, &entity.GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK {
		metrics.GatewayRequestDuration.WithLabelValues(metrics.GatewayRejected).Observe(time.Since(start).Seconds())
		log.LogAttrs(ctx, logger.WarnLevel, "gateway rejected message",
			logger.String("op", op),
			logger.Int("status_code", resp.StatusCode),
		)
		return nil, &entity.GatewayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	metrics.GatewayRequestDuration.WithLabelValues(metrics.GatewayOK).Observe(time.Since(start).Seconds())
	if readErr != nil {
		log.LogAttrs(ctx, logger.DebugLevel, "gateway response body unreadable",
			logger.String("op", op),
			logger.Err(readErr),
		)
	}

	return &entity.GatewayAck{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
