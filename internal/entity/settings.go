package entity

import (
	"slices"

	"github.com/google/uuid"
)

const (
	SettingGatewayURL   = "whatsapp_api_url"
	SettingGatewayToken = "whatsapp_token"
	SettingLeadDays     = "dias_aviso_vencimiento"
	SettingTemplate     = "mensaje_vencimiento"

	DefaultLeadDays = 7
	DefaultTemplate = "Hola {nombre}, tu servicio {servicio} vence el {fecha}. Por favor renueva tu suscripción."
)

// NotifySettingKeys lists every key the notification subsystem reads.
var NotifySettingKeys = []string{
	SettingGatewayURL,
	SettingGatewayToken,
	SettingLeadDays,
	SettingTemplate,
}

func IsKnownSetting(key string) bool {
	return slices.Contains(NotifySettingKeys, key)
}

// NotifySettings is the parsed form of the configuration table.
type NotifySettings struct {
	Gateway  GatewayTarget
	LeadDays int
	Template string
}

type GatewayTarget struct {
	URL   string
	Token string
}

func (t GatewayTarget) Complete() bool {
	return t.URL != "" && t.Token != ""
}

type OutboundMessage struct {
	Phone          string
	Body           string
	IdempotencyKey uuid.UUID
}

type GatewayAck struct {
	StatusCode int
	Body       string
}
