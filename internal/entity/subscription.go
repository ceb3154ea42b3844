package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ServiceStatus string

const (
	ServiceActive    ServiceStatus = "Activo"
	ServiceExpired   ServiceStatus = "Vencido"
	ServiceCancelled ServiceStatus = "Cancelado"
)

func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceActive, ServiceExpired, ServiceCancelled:
		return true
	}
	return false
}

func ParseServiceStatus(s string) (ServiceStatus, error) {
	st := ServiceStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown service status %q", ErrInvalidData, s)
	}
	return st, nil
}

// Subscription is a resold streaming service owned by a client.
type Subscription struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"cliente_id" validate:"required,gt=0"`
	ProviderID     int64           `json:"proveedor_id" validate:"required,gt=0"`
	Name           string          `json:"nombre_servicio" validate:"required,max=100"`
	Kind           string          `json:"tipo_servicio" validate:"required,max=50"`
	MonthlyPrice   decimal.Decimal `json:"precio_mensual"`
	StartDate      Date            `json:"fecha_inicio"`
	ExpirationDate Date            `json:"fecha_vencimiento"`
	Status         ServiceStatus   `json:"estado"`
	Notes          string          `json:"observaciones"`
	RegisteredAt   time.Time       `json:"fecha_registro"`
}

type SubscriptionView struct {
	Subscription
	ClientFirstName string `json:"cliente_nombre"`
	ClientLastName  string `json:"cliente_apellido"`
	ProviderName    string `json:"proveedor_nombre"`
}

// ExpiringSubscription is an active service due for an expiration notice.
type ExpiringSubscription struct {
	ID             int64
	ClientID       int64
	Name           string
	ExpirationDate Date
	ClientName     string
	ClientPhone    string
}

type SubscriptionFilter struct {
	Search string
	Page   Page
}
