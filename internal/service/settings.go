package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

// ParseNotifySettings applies defaults to raw configuration values. The lead
// time falls back to the default when unset, non-numeric or negative, and an
// empty template falls back to the default template.
func ParseNotifySettings(values map[string]string) entity.NotifySettings {
	settings := entity.NotifySettings{
		Gateway: entity.GatewayTarget{
			URL:   strings.TrimSpace(values[entity.SettingGatewayURL]),
			Token: strings.TrimSpace(values[entity.SettingGatewayToken]),
		},
		LeadDays: entity.DefaultLeadDays,
		Template: values[entity.SettingTemplate],
	}

	if raw, ok := values[entity.SettingLeadDays]; ok {
		if days, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && days >= 0 {
			settings.LeadDays = days
		}
	}

	if strings.TrimSpace(settings.Template) == "" {
		settings.Template = entity.DefaultTemplate
	}

	return settings
}

// LoadNotifySettings reads every notification setting in one round trip.
func LoadNotifySettings(ctx context.Context, reader SettingsReader) (entity.NotifySettings, error) {
	values, err := reader.GetAll(ctx, nil, entity.NotifySettingKeys)
	if err != nil {
		return entity.NotifySettings{}, fmt.Errorf("load settings: %w", err)
	}
	return ParseNotifySettings(values), nil
}

// validateSettingValue checks the shape of values written through the API.
func validateSettingValue(key, value string) error {
	if !entity.IsKnownSetting(key) {
		return fmt.Errorf("%w: unknown setting %q", entity.ErrInvalidData, key)
	}

	switch key {
	case entity.SettingLeadDays:
		days, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || days < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", entity.ErrInvalidData, key)
		}
	case entity.SettingGatewayURL:
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("%w: %s must be an http(s) URL", entity.ErrInvalidData, key)
		}
	}

	return nil
}

type SettingsWriter interface {
	SettingsReader
	Set(ctx context.Context, qe postgres.QueryExecuter, key, value string) error
}
