package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

type NotificationType string

const (
	StatusPending NotificationStatus = "Pendiente"
	StatusSent    NotificationStatus = "Enviada"
	StatusFailed  NotificationStatus = "Fallida"

	TypeExpiration NotificationType = "Vencimiento"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

func ParseNotificationStatus(s string) (NotificationStatus, error) {
	st := NotificationStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown notification status %q", ErrInvalidData, s)
	}
	return st, nil
}

type Notification struct {
	ID             int64              `json:"id"`
	ServiceID      *int64             `json:"servicio_id"`
	ClientID       int64              `json:"cliente_id"`
	Type           NotificationType   `json:"tipo_notificacion"`
	Message        string             `json:"mensaje"`
	Status         NotificationStatus `json:"estado"`
	Automatic      bool               `json:"automatica"`
	IdempotencyKey uuid.UUID          `json:"clave_idempotencia"`
	LastError      string             `json:"ultimo_error,omitempty"`
	CreatedAt      time.Time          `json:"fecha_creacion"`
	CreatedOn      Date               `json:"fecha_dia"`
	SentAt         *time.Time         `json:"fecha_envio"`
}

// NotificationView is a history row joined with display names.
type NotificationView struct {
	Notification
	ClientName  string `json:"cliente_nombre"`
	ServiceName string `json:"nombre_servicio"`
}

// PendingNotification carries what the dispatcher needs to deliver one row.
type PendingNotification struct {
	ID             int64
	ClientID       int64
	Message        string
	IdempotencyKey uuid.UUID
	Phone          string
	ClientName     string
}

type ManualNotification struct {
	ServiceID *int64 `json:"servicio_id"`
	ClientID  int64  `json:"cliente_id" validate:"required,gt=0"`
	Message   string `json:"mensaje" validate:"required"`
}
