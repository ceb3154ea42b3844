package entity

import "time"

type Client struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"nombre" validate:"required,max=100"`
	LastName     string    `json:"apellido" validate:"required,max=100"`
	Phone        string    `json:"telefono" validate:"required,max=20"`
	Email        string    `json:"email" validate:"omitempty,email"`
	Address      string    `json:"direccion"`
	Active       bool      `json:"activo"`
	RegisteredAt time.Time `json:"fecha_registro"`
}

type Provider struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre" validate:"required,max=100"`
	Contact      string    `json:"contacto"`
	Phone        string    `json:"telefono" validate:"max=20"`
	Email        string    `json:"email" validate:"omitempty,email"`
	Address      string    `json:"direccion"`
	Active       bool      `json:"activo"`
	RegisteredAt time.Time `json:"fecha_registro"`
}
