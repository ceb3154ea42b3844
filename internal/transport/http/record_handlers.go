package httpt

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
)

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, http.StatusBadRequest, "invalid_param", "ID no válido", nil)
		return 0, false
	}
	return id, true
}

func (h *Handler) bindJSON(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		ctx := c.Request.Context()
		h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid request body",
			logger.String("op", op),
			logger.Err(err),
		)
		h.respondError(c, http.StatusBadRequest, "invalid_body", "Cuerpo de la petición no válido", nil)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// listClients godoc
// @Summary  List clients
// @Tags     clients
// @Produce  json
// @Success  200  {object}  Envelope
// @Router   /clientes [get]
func (h *Handler) listClients(c *gin.Context) {
	const op = "transport.http.listClients"

	clients, err := h.records.ListClients(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: clients})
}

// getClient godoc
// @Summary  Get a client
// @Tags     clients
// @Produce  json
// @Param    id   path      int  true  "Client ID"
// @Success  200  {object}  Envelope
// @Failure  404  {object}  ErrorResponse
// @Router   /clientes/{id} [get]
func (h *Handler) getClient(c *gin.Context) {
	const op = "transport.http.getClient"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	client, err := h.records.GetClient(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: client})
}

// createClient godoc
// @Summary  Create a client
// @Tags     clients
// @Accept   json
// @Produce  json
// @Param    request  body      ClientRequest  true  "Client"
// @Success  201      {object}  CreatedResponse
// @Failure  400      {object}  ErrorResponse
// @Router   /clientes [post]
func (h *Handler) createClient(c *gin.Context) {
	const op = "transport.http.createClient"

	var req ClientRequest
	if !h.bindJSON(c, op, &req) {
		return
	}
	id, err := h.records.CreateClient(c.Request.Context(), req.toEntity(0))
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{Success: true, Message: "Cliente creado exitosamente", ID: id})
}

// updateClient godoc
// @Summary  Update a client
// @Tags     clients
// @Accept   json
// @Produce  json
// @Param    id       path      int            true  "Client ID"
// @Param    request  body      ClientRequest  true  "Client"
// @Success  200      {object}  Envelope
// @Failure  404      {object}  ErrorResponse
// @Router   /clientes/{id} [put]
func (h *Handler) updateClient(c *gin.Context) {
	const op = "transport.http.updateClient"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ClientRequest
	if !h.bindJSON(c, op, &req) {
		return
	}
	if err := h.records.UpdateClient(c.Request.Context(), req.toEntity(id)); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Cliente actualizado exitosamente"})
}

// deleteClient godoc
// @Summary      Deactivate a client
// @Description  Clients are soft-deleted so their services and history are kept.
// @Tags         clients
// @Produce      json
// @Param        id   path      int  true  "Client ID"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  ErrorResponse
// @Router       /clientes/{id} [delete]
func (h *Handler) deleteClient(c *gin.Context) {
	const op = "transport.http.deleteClient"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.records.DeleteClient(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Cliente eliminado exitosamente"})
}

// listProviders godoc
// @Summary  List active providers
// @Tags     providers
// @Produce  json
// @Success  200  {object}  Envelope
// @Router   /proveedores [get]
func (h *Handler) listProviders(c *gin.Context) {
	const op = "transport.http.listProviders"

	providers, err := h.records.ListProviders(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: providers})
}

// getProvider godoc
// @Summary  Get a provider
// @Tags     providers
// @Produce  json
// @Param    id   path      int  true  "Provider ID"
// @Success  200  {object}  Envelope
// @Failure  404  {object}  ErrorResponse
// @Router   /proveedores/{id} [get]
func (h *Handler) getProvider(c *gin.Context) {
	const op = "transport.http.getProvider"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	provider, err := h.records.GetProvider(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: provider})
}

// createProvider godoc
// @Summary  Create a provider
// @Tags     providers
// @Accept   json
// @Produce  json
// @Param    request  body      ProviderRequest  true  "Provider"
// @Success  201      {object}  CreatedResponse
// @Failure  400      {object}  ErrorResponse
// @Router   /proveedores [post]
func (h *Handler) createProvider(c *gin.Context) {
	const op = "transport.http.createProvider"

	var req ProviderRequest
	if !h.bindJSON(c, op, &req) {
		return
	}
	id, err := h.records.CreateProvider(c.Request.Context(), req.toEntity(0))
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{Success: true, Message: "Proveedor creado exitosamente", ID: id})
}

// updateProvider godoc
// @Summary  Update a provider
// @Tags     providers
// @Accept   json
// @Produce  json
// @Param    id       path      int              true  "Provider ID"
// @Param    request  body      ProviderRequest  true  "Provider"
// @Success  200      {object}  Envelope
// @Failure  404      {object}  ErrorResponse
// @Router   /proveedores/{id} [put]
func (h *Handler) updateProvider(c *gin.Context) {
	const op = "transport.http.updateProvider"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ProviderRequest
	if !h.bindJSON(c, op, &req) {
		return
	}
	if err := h.records.UpdateProvider(c.Request.Context(), req.toEntity(id)); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Proveedor actualizado exitosamente"})
}

// deleteProvider godoc
// @Summary  Deactivate a provider
// @Tags     providers
// @Produce  json
// @Param    id   path      int  true  "Provider ID"
// @Success  200  {object}  Envelope
// @Failure  404  {object}  ErrorResponse
// @Router   /proveedores/{id} [delete]
func (h *Handler) deleteProvider(c *gin.Context) {
	const op = "transport.http.deleteProvider"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.records.DeleteProvider(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Proveedor eliminado exitosamente"})
}

// listServices godoc
// @Summary      List services
// @Description  Paginated listing with search; proximos_vencer=1 lists Active services expiring within dias days.
// @Tags         services
// @Produce      json
// @Param        search           query     string  false  "Client, service or provider name"
// @Param        page             query     int     false  "Page number"
// @Param        per_page         query     int     false  "Page size"
// @Param        proximos_vencer  query     int     false  "1 to list services about to expire"
// @Param        dias             query     int     false  "Days ahead for proximos_vencer"
// @Success      200              {object}  ServiceListResponse
// @Router       /servicios [get]
func (h *Handler) listServices(c *gin.Context) {
	const op = "transport.http.listServices"
	ctx := c.Request.Context()

	if c.Query("proximos_vencer") != "" {
		services, err := h.records.ListExpiring(ctx, queryInt(c, "dias", entity.DefaultLeadDays))
		if err != nil {
			h.handleServiceError(c, op, err)
			return
		}
		c.JSON(http.StatusOK, Envelope{Success: true, Data: services})
		return
	}

	page := entity.NewPage(queryInt(c, "page", 1), queryInt(c, "per_page", entity.DefaultPerPage))
	services, pagination, err := h.records.ListSubscriptions(ctx, c.Query("search"), page)
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	if services == nil {
		services = []entity.SubscriptionView{}
	}
	c.JSON(http.StatusOK, ServiceListResponse{Success: true, Data: services, Pagination: pagination})
}

// getService godoc
// @Summary  Get a service
// @Tags     services
// @Produce  json
// @Param    id   path      int  true  "Service ID"
// @Success  200  {object}  Envelope
// @Failure  404  {object}  ErrorResponse
// @Router   /servicios/{id} [get]
func (h *Handler) getService(c *gin.Context) {
	const op = "transport.http.getService"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	sub, err := h.records.GetSubscription(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Data: sub})
}

// createService godoc
// @Summary  Create a service
// @Tags     services
// @Accept   json
// @Produce  json
// @Param    request  body      ServiceRequest  true  "Service"
// @Success  201      {object}  CreatedResponse
// @Failure  400      {object}  ErrorResponse
// @Router   /servicios [post]
func (h *Handler) createService(c *gin.Context) {
	const op = "transport.http.createService"

	var req ServiceRequest
	if !h.bindJSON(c, op, &req) {
		return
	}
	id, err := h.records.CreateSubscription(c.Request.Context(), req.toEntity(0))
	if err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{Success: true, Message: "Servicio creado exitosamente", ID: id})
}

// updateService godoc
// @Summary  Update a service
// @Tags     services
// @Accept   json
// @Produce  json
// @Param    id       path      int             true  "Service ID"
// @Param    request  body      ServiceRequest  true  "Service"
// @Success  200      {object}  Envelope
// @Failure  404      {object}  ErrorResponse
// @Router   /servicios/{id} [put]
func (h *Handler) updateService(c *gin.Context) {
	const op = "transport.http.updateService"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ServiceRequest
	if !h.bindJSON(c, op, &req) {
		return
	}
	if err := h.records.UpdateSubscription(c.Request.Context(), req.toEntity(id)); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Servicio actualizado exitosamente"})
}

// deleteService godoc
// @Summary  Delete a service
// @Tags     services
// @Produce  json
// @Param    id   path      int  true  "Service ID"
// @Success  200  {object}  Envelope
// @Failure  404  {object}  ErrorResponse
// @Router   /servicios/{id} [delete]
func (h *Handler) deleteService(c *gin.Context) {
	const op = "transport.http.deleteService"

	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.records.DeleteSubscription(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Servicio eliminado exitosamente"})
}
