// nolint: revive
package httpt

import (
	"time"

	"github.com/shopspring/decimal"

	"streamnotifier/internal/entity"
	"streamnotifier/internal/service"
)

// swagger:model Envelope
type Envelope struct {
	Success bool   `json:"success"           example:"true"`
	Message string `json:"message,omitempty" example:"Operación completada"`
	Data    any    `json:"data,omitempty"`
}

// swagger:model ErrorResponse
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Parámetro no válido"`
	Code    string `json:"code,omitempty" example:"invalid_data"`
}

// swagger:model GenerateResponse
type GenerateResponse struct {
	Success bool                     `json:"success"  example:"true"`
	Message string                   `json:"message"  example:"Se crearon 3 notificaciones automáticas"`
	Created int                      `json:"creadas"  example:"3"`
	Skipped int                      `json:"omitidas" example:"0"`
	Failed  int                      `json:"fallidas" example:"0"`
	Items   []service.GenerationItem `json:"resultados"`
}

// swagger:model DispatchResponse
type DispatchResponse struct {
	Success bool                   `json:"success"  example:"true"`
	Message string                 `json:"message"  example:"Proceso completado. Enviadas: 2, Fallidas: 1"`
	Sent    int                    `json:"enviadas" example:"2"`
	Failed  int                    `json:"fallidas" example:"1"`
	Items   []service.DispatchItem `json:"resultados"`
}

// swagger:model CreatedResponse
type CreatedResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Notificación creada exitosamente"`
	ID      int64  `json:"id"      example:"42"`
}

// swagger:model CreateNotificationRequest
type CreateNotificationRequest struct {
	ServiceID *int64 `json:"servicio_id" example:"3"`
	ClientID  int64  `json:"cliente_id"  example:"10"`
	Message   string `json:"mensaje"     example:"Tu cuenta vence mañana"`
}

// swagger:model ClientRequest
type ClientRequest struct {
	FirstName string `json:"nombre"    example:"Ana"`
	LastName  string `json:"apellido"  example:"Díaz"`
	Phone     string `json:"telefono"  example:"+573001112233"`
	Email     string `json:"email"     example:"ana@example.com"`
	Address   string `json:"direccion" example:"Calle 1 # 2-3"`
	Active    *bool  `json:"activo"    example:"true"`
}

func (r ClientRequest) toEntity(id int64) entity.Client {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return entity.Client{
		ID:        id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		Active:    active,
	}
}

// swagger:model ProviderRequest
type ProviderRequest struct {
	Name    string `json:"nombre"    example:"Cuentas Premium SAS"`
	Contact string `json:"contacto"  example:"Marta"`
	Phone   string `json:"telefono"  example:"+573009998877"`
	Email   string `json:"email"     example:"ventas@example.com"`
	Address string `json:"direccion" example:"Av. 68"`
}

func (r ProviderRequest) toEntity(id int64) entity.Provider {
	return entity.Provider{
		ID:      id,
		Name:    r.Name,
		Contact: r.Contact,
		Phone:   r.Phone,
		Email:   r.Email,
		Address: r.Address,
		Active:  true,
	}
}

// swagger:model ServiceRequest
type ServiceRequest struct {
	ClientID       int64           `json:"cliente_id"        example:"10"`
	ProviderID     int64           `json:"proveedor_id"      example:"2"`
	Name           string          `json:"nombre_servicio"   example:"Netflix"`
	Kind           string          `json:"tipo_servicio"     example:"Premium 4K"`
	MonthlyPrice   decimal.Decimal `json:"precio_mensual"    swaggertype:"string" example:"15000.00"`
	StartDate      entity.Date     `json:"fecha_inicio"      swaggertype:"string" example:"2024-06-01"`
	ExpirationDate entity.Date     `json:"fecha_vencimiento" swaggertype:"string" example:"2024-07-01"`
	Status         string          `json:"estado"            example:"Activo"`
	Notes          string          `json:"observaciones"     example:"Perfil 2"`
}

func (r ServiceRequest) toEntity(id int64) entity.Subscription {
	return entity.Subscription{
		ID:             id,
		ClientID:       r.ClientID,
		ProviderID:     r.ProviderID,
		Name:           r.Name,
		Kind:           r.Kind,
		MonthlyPrice:   r.MonthlyPrice,
		StartDate:      r.StartDate,
		ExpirationDate: r.ExpirationDate,
		Status:         entity.ServiceStatus(r.Status),
		Notes:          r.Notes,
	}
}

// swagger:model ServiceListResponse
type ServiceListResponse struct {
	Success    bool                      `json:"success" example:"true"`
	Data       []entity.SubscriptionView `json:"data"`
	Pagination entity.Pagination         `json:"pagination"`
}

// swagger:model HealthResponse
type HealthResponse struct {
	Status string    `json:"status" example:"ok"`
	Time   time.Time `json:"time"   example:"2024-06-01T10:00:00Z"`
}
