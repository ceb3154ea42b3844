package httpt

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
)

func (h *Handler) handleServiceError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()
	log := h.log.Ctx(ctx)

	switch {
	case errors.Is(err, entity.ErrInvalidData):
		log.LogAttrs(ctx, logger.WarnLevel, "invalid data",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusBadRequest, "invalid_data", "Datos no válidos", err)

	case errors.Is(err, entity.ErrDataNotFound):
		log.LogAttrs(ctx, logger.WarnLevel, "not found",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusNotFound, "not_found", "Registro no encontrado", err)

	case errors.Is(err, entity.ErrConflictingData):
		log.LogAttrs(ctx, logger.WarnLevel, "conflicting data",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusConflict, "conflict", "El registro ya existe", err)

	case errors.Is(err, entity.ErrConfigurationMissing):
		log.LogAttrs(ctx, logger.WarnLevel, "gateway not configured",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusBadRequest, "configuration_missing",
			"Configuración de WhatsApp no encontrada", err)

	case errors.Is(err, context.DeadlineExceeded):
		log.LogAttrs(ctx, logger.WarnLevel, "request timed out",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusGatewayTimeout, "timeout", "Tiempo de espera agotado", err)

	default:
		log.LogAttrs(ctx, logger.ErrorLevel, "internal server error",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusInternalServerError, "internal_error", "Error interno del servidor", err)
	}
}

// respondError writes the failure envelope. Details of internal errors are
// logged but never returned to the client.
func (h *Handler) respondError(c *gin.Context, status int, code, message string, err error) {
	if err != nil && status < http.StatusInternalServerError {
		message = message + ": " + err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: message, Code: code})
}
