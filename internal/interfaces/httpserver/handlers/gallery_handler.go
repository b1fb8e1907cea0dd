package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gallery-server/services/gallery-api/internal/domain/gallery"
	"gallery-server/services/gallery-api/internal/interfaces/httpserver/responses"
)

// GalleryHandler exposes the ingested gallery.
type GalleryHandler struct {
	service gallery.Service
	log     zerolog.Logger
}

func NewGalleryHandler(service gallery.Service, log zerolog.Logger) *GalleryHandler {
	return &GalleryHandler{
		service: service,
		log:     log.With().Str("component", "gallery-handler").Logger(),
	}
}

// List godoc
// @Summary      List gallery items
// @Description  Returns all ingested items, newest first.
// @Tags         gallery
// @Produce      json
// @Success      200  {object}  responses.GalleryListResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v1/gallery [get]
func (h *GalleryHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list gallery items", h.log)
		return
	}

	c.JSON(http.StatusOK, responses.GalleryListResponse{
		Items: items,
		Count: len(items),
	})
}
