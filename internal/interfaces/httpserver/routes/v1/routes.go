package v1

import (
	"github.com/gin-gonic/gin"

	"gallery-server/services/gallery-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	google := group.Group("/google/photos")
	google.POST("/sessions", r.handlers.Sessions.Create)
	google.GET("/sessions/:sessionId/status", r.handlers.Sessions.Status)
	google.POST("/sessions/:sessionId/ingest", r.handlers.Sessions.Ingest)

	group.GET("/gallery", r.handlers.Gallery.List)
}
