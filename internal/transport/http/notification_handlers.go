package httpt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
)

const (
	actionGenerate = "generar_automaticas"
	actionDispatch = "enviar_pendientes"
)

// getNotifications godoc
// @Summary      Notification history
// @Description  Returns every notification, newest first. Requires the historial parameter.
// @Tags         notifications
// @Produce      json
// @Param        historial  query     int  true  "Presence selects the history"
// @Success      200        {object}  Envelope
// @Failure      400        {object}  ErrorResponse
// @Failure      500        {object}  ErrorResponse
// @Router       /notificaciones [get]
func (h *Handler) getNotifications(c *gin.Context) {
	const op = "transport.http.getNotifications"

	if _, ok := c.GetQuery("historial"); !ok {
		h.respondError(c, http.StatusBadRequest, "invalid_param", "Parámetro no válido", nil)
		return
	}

	history, err := h.notify.History(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, Envelope{Success: true, Data: history})
}

// postNotifications godoc
// @Summary      Generate, dispatch or create notifications
// @Description  action=generar_automaticas runs the generator, action=enviar_pendientes runs the dispatcher,
// @Description  and no action creates a manual notification from the JSON body.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        action   query     string                     false  "generar_automaticas | enviar_pendientes"
// @Param        request  body      CreateNotificationRequest  false  "Manual notification"
// @Success      200      {object}  GenerateResponse
// @Success      201      {object}  CreatedResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /notificaciones [post]
// isBatchRequest reports whether c runs the generator or the dispatcher.
// Those batches are never bounded by the request timeout.
func isBatchRequest(c *gin.Context) bool {
	if c.Request.Method != http.MethodPost || c.FullPath() != "/api/notificaciones" {
		return false
	}
	action := c.Query("action")
	return action == actionGenerate || action == actionDispatch
}

func (h *Handler) postNotifications(c *gin.Context) {
	switch action := c.Query("action"); action {
	case actionGenerate:
		h.generateAutomatic(c)
	case actionDispatch:
		h.dispatchPending(c)
	case "":
		h.createManual(c)
	default:
		h.respondError(c, http.StatusBadRequest, "invalid_param", "Parámetro no válido", nil)
	}
}

func (h *Handler) generateAutomatic(c *gin.Context) {
	const op = "transport.http.generateAutomatic"

	res, err := h.notify.GenerateAutomatic(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Success: true,
		Message: fmt.Sprintf("Se crearon %d notificaciones automáticas", res.Created),
		Created: res.Created,
		Skipped: res.Skipped,
		Failed:  res.Failed,
		Items:   res.Items,
	})
}

func (h *Handler) dispatchPending(c *gin.Context) {
	const op = "transport.http.dispatchPending"

	res, err := h.notify.DispatchPending(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, DispatchResponse{
		Success: true,
		Message: fmt.Sprintf("Proceso completado. Enviadas: %d, Fallidas: %d", res.Sent, res.Failed),
		Sent:    res.Sent,
		Failed:  res.Failed,
		Items:   res.Items,
	})
}

func (h *Handler) createManual(c *gin.Context) {
	const op = "transport.http.createManual"
	ctx := c.Request.Context()

	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid request body",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusBadRequest, "invalid_body", "Cuerpo de la petición no válido", nil)
		return
	}

	n, err := h.notify.CreateManual(ctx, entity.ManualNotification{
		ServiceID: req.ServiceID,
		ClientID:  req.ClientID,
		Message:   req.Message,
	})
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{
		Success: true,
		Message: "Notificación creada exitosamente",
		ID:      n.ID,
	})
}
