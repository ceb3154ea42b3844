package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamnotifier/internal/entity"
	"streamnotifier/internal/transport/sender"
	"streamnotifier/pkg/logger"
)

func TestParseNotifySettings(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		wantLead int
		wantTpl  string
	}{
		{name: "empty", values: map[string]string{}, wantLead: 7, wantTpl: entity.DefaultTemplate},
		{name: "numeric", values: map[string]string{entity.SettingLeadDays: " 3 "}, wantLead: 3, wantTpl: entity.DefaultTemplate},
		{name: "garbage", values: map[string]string{entity.SettingLeadDays: "siete"}, wantLead: 7, wantTpl: entity.DefaultTemplate},
		{name: "negative", values: map[string]string{entity.SettingLeadDays: "-1"}, wantLead: 7, wantTpl: entity.DefaultTemplate},
		{name: "zero", values: map[string]string{entity.SettingLeadDays: "0"}, wantLead: 0, wantTpl: entity.DefaultTemplate},
		{name: "blank template", values: map[string]string{entity.SettingTemplate: "  "}, wantLead: 7, wantTpl: entity.DefaultTemplate},
		{name: "custom template", values: map[string]string{entity.SettingTemplate: "Hi {nombre}"}, wantLead: 7, wantTpl: "Hi {nombre}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNotifySettings(tt.values)
			assert.Equal(t, tt.wantLead, got.LeadDays)
			assert.Equal(t, tt.wantTpl, got.Template)
		})
	}
}

func TestSettingsService(t *testing.T) {
	store := newMemStore()
	tm := &fakeTxManager{}
	svc := NewSettingsService(store, tm, sender.NewWhatsAppSender(logger.NewNop()), logger.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.CheckGateway(ctx), entity.ErrConfigurationMissing)

	require.NoError(t, svc.Update(ctx, map[string]string{
		entity.SettingGatewayURL:   "https://gw.example/send",
		entity.SettingGatewayToken: "tok",
		entity.SettingLeadDays:     "5",
	}))
	assert.Equal(t, 1, tm.calls)
	assert.NoError(t, svc.CheckGateway(ctx))

	values, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, MaskedSecret, values[entity.SettingGatewayToken])
	assert.Equal(t, "5", values[entity.SettingLeadDays])

	require.NoError(t, svc.Update(ctx, map[string]string{entity.SettingGatewayToken: MaskedSecret}))
	assert.Equal(t, "tok", store.settings[entity.SettingGatewayToken])

	tests := []map[string]string{
		{},
		{"smtp_host": "x"},
		{entity.SettingLeadDays: "tres"},
		{entity.SettingLeadDays: "-2"},
		{entity.SettingGatewayURL: "ftp://gw"},
	}
	for _, values := range tests {
		assert.ErrorIs(t, svc.Update(ctx, values), entity.ErrInvalidData)
	}
	assert.Equal(t, 2, tm.calls)
}
