package httpt

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Stream Notifier API
// @version         1.0
// @description     Administration of streaming-account resale and WhatsApp expiration notices.
// @BasePath        /api
func (h *Handler) setupRoutes() {
	h.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Message: "Ruta no encontrada"})
	})
	h.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Success: false, Message: "Método no permitido"})
	})
	h.router.HandleMethodNotAllowed = true

	h.router.GET("/health", h.health)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := h.router.Group("/api")

	notifications := api.Group("/notificaciones")
	notifications.GET("", h.getNotifications)
	notifications.POST("", h.postNotifications)

	clients := api.Group("/clientes")
	clients.GET("", h.listClients)
	clients.GET("/:id", h.getClient)
	clients.POST("", h.createClient)
	clients.PUT("/:id", h.updateClient)
	clients.DELETE("/:id", h.deleteClient)

	providers := api.Group("/proveedores")
	providers.GET("", h.listProviders)
	providers.GET("/:id", h.getProvider)
	providers.POST("", h.createProvider)
	providers.PUT("/:id", h.updateProvider)
	providers.DELETE("/:id", h.deleteProvider)

	services := api.Group("/servicios")
	services.GET("", h.listServices)
	services.GET("/:id", h.getService)
	services.POST("", h.createService)
	services.PUT("/:id", h.updateService)
	services.DELETE("/:id", h.deleteService)

	settings := api.Group("/configuracion")
	settings.GET("", h.getSettings)
	settings.PUT("", h.updateSettings)
	settings.POST("/probar", h.checkGateway)
}

// health godoc
// @Summary      Liveness check
// @Tags         system
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Time: h.now().UTC()})
}
