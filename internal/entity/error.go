package entity

import (
	"errors"
	"fmt"
)

var (
	ErrDataNotFound         = errors.New("data not found")
	ErrConflictingData      = errors.New("conflicting data")
	ErrInvalidData          = errors.New("invalid data")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrConfigurationMissing = errors.New("messaging gateway is not configured")
	ErrGateway              = errors.New("messaging gateway error")
)

// GatewayError describes a failed call to the messaging gateway. StatusCode
// is zero when the request never produced a response.
type GatewayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("gateway request failed: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("gateway responded %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("gateway responded %d", e.StatusCode)
	}
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
