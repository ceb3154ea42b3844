package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
	"streamnotifier/pkg/postgres"
)

// MaskedSecret replaces the gateway token in read responses. Writing it back
// leaves the stored token unchanged.
const MaskedSecret = "********"

type SettingsService struct {
	store  SettingsWriter
	tm     postgres.Manager
	sender MessageSender
	log    logger.Logger
}

func NewSettingsService(store SettingsWriter, tm postgres.Manager, sender MessageSender, log logger.Logger) *SettingsService {
	return &SettingsService{store: store, tm: tm, sender: sender, log: log}
}

// Get returns the notification settings as stored, with the token masked.
func (s *SettingsService) Get(ctx context.Context) (map[string]string, error) {
	const op = "service.SettingsService.Get"

	values, err := s.store.GetAll(ctx, nil, entity.NotifySettingKeys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if values[entity.SettingGatewayToken] != "" {
		values[entity.SettingGatewayToken] = MaskedSecret
	}

	return values, nil
}

// Update writes values atomically. Unknown keys and malformed values are
// rejected before anything is written.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	const op = "service.SettingsService.Update"

	log := s.log.Ctx(ctx)
	startTime := time.Now()
	defer logSlowOperation(ctx, s.log, op, startTime, logger.Int("keys", len(values)))

	if len(values) == 0 {
		return fmt.Errorf("%s: %w: no settings given", op, entity.ErrInvalidData)
	}

	for key, value := range values {
		if err := validateSettingValue(key, value); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	keys := slices.Sorted(maps.Keys(values))

	err := s.tm.ExecuteInTransaction(ctx, "update_settings", func(tx postgres.QueryExecuter) error {
		for _, key := range keys {
			if key == entity.SettingGatewayToken && values[key] == MaskedSecret {
				continue
			}
			if err := s.store.Set(ctx, tx, key, values[key]); err != nil {
				return postgres.HandleError("update_settings", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "settings update failed",
			logger.String("op", op),
			logger.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "settings updated",
		logger.String("op", op),
		logger.Any("keys", keys),
	)

	return nil
}

// CheckGateway reports whether the stored gateway target is complete.
func (s *SettingsService) CheckGateway(ctx context.Context) error {
	const op = "service.SettingsService.CheckGateway"

	settings, err := LoadNotifySettings(ctx, s.store)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.sender.Check(settings.Gateway); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
