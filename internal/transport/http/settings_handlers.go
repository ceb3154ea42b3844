package httpt

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getSettings godoc
// @Summary      Read settings
// @Description  The gateway token is masked.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  Envelope
// @Router       /configuracion [get]
func (h *Handler) getSettings(c *gin.Context) {
	const op = "transport.http.getSettings"

	values, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: values})
}

// updateSettings godoc
// @Summary      Update settings
// @Description  Body is a flat key/value object. A masked token leaves the stored token unchanged.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "Settings"
// @Success      200      {object}  Envelope
// @Failure      400      {object}  ErrorResponse
// @Router       /configuracion [put]
func (h *Handler) updateSettings(c *gin.Context) {
	const op = "transport.http.updateSettings"

	var values map[string]string
	if !h.bindJSON(c, op, &values) {
		return
	}
	if err := h.settings.Update(c.Request.Context(), values); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Configuración actualizada exitosamente"})
}

// checkGateway godoc
// @Summary  Check that the messaging gateway is configured
// @Tags     settings
// @Produce  json
// @Success  200  {object}  Envelope
// @Failure  400  {object}  ErrorResponse
// @Router   /configuracion/probar [post]
func (h *Handler) checkGateway(c *gin.Context) {
	const op = "transport.http.checkGateway"

	if err := h.settings.CheckGateway(c.Request.Context()); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Configuración de WhatsApp completa"})
}
