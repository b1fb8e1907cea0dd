package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gallery-server/services/gallery-api/internal/domain/gallery"
	"gallery-server/services/gallery-api/internal/domain/picker"
	"gallery-server/services/gallery-api/internal/interfaces/httpserver/requests"
	"gallery-server/services/gallery-api/internal/interfaces/httpserver/responses"
)

// SessionBroker is the slice of the picker client the session handler needs.
type SessionBroker interface {
	CreateSession(ctx context.Context) (*picker.Session, error)
	GetSession(ctx context.Context, sessionID string) (*picker.Session, error)
}

// SessionHandler exposes the picker session and ingestion endpoints.
type SessionHandler struct {
	broker  SessionBroker
	service gallery.Service
	log     zerolog.Logger
}

func NewSessionHandler(broker SessionBroker, service gallery.Service, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		broker:  broker,
		service: service,
		log:     log.With().Str("component", "session-handler").Logger(),
	}
}

// Create godoc
// @Summary      Create picker session
// @Description  Requests a time-boxed picker session from the photo provider.
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  responses.CreateSessionResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v1/google/photos/sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	session, err := h.broker.CreateSession(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to create picker session", h.log)
		return
	}

	c.JSON(http.StatusOK, responses.CreateSessionResponse{
		SessionID: session.ID,
		PickerURI: session.PickerURI,
	})
}

// Status godoc
// @Summary      Get picker session status
// @Description  Single-shot status read; the admin UI polls this endpoint.
// @Tags         sessions
// @Produce      json
// @Param        sessionId  path      string  true  "Picker session ID"
// @Success      200        {object}  responses.SessionStatusResponse
// @Failure      404        {object}  responses.ErrorResponse
// @Router       /v1/google/photos/sessions/{sessionId}/status [get]
func (h *SessionHandler) Status(c *gin.Context) {
	sessionID := c.Param("sessionId")

	session, err := h.broker.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		responses.HandleError(c, err, "failed to get session status", h.log)
		return
	}

	c.JSON(http.StatusOK, responses.SessionStatusResponse{
		ID:            session.ID,
		PickerURI:     session.PickerURI,
		MediaItemsSet: session.MediaItemsSet,
		ExpireTime:    session.ExpireTime,
	})
}

// Ingest godoc
// @Summary      Ingest selected media
// @Description  Downloads every selected asset, re-hosts it in the content store and records it. Per-item failures are reported in the errors array, not as a non-2xx status.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sessionId  path      string                  true   "Picker session ID"
// @Param        request    body      requests.IngestRequest  false  "Ingestion options"
// @Success      200        {object}  responses.IngestResponse
// @Failure      404        {object}  responses.ErrorResponse
// @Failure      502        {object}  responses.ErrorResponse
// @Router       /v1/google/photos/sessions/{sessionId}/ingest [post]
func (h *SessionHandler) Ingest(c *gin.Context) {
	sessionID := c.Param("sessionId")

	// The body is optional: absent, empty and `{}` all mean default options.
	var req requests.IngestRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			responses.HandleValidationError(c, err)
			return
		}
	}

	result, err := h.service.Ingest(c.Request.Context(), sessionID, gallery.IngestOptions{
		ReplaceMode:      req.ReplaceMode,
		WaitForSelection: req.WaitForSelection,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to ingest media items", h.log)
		return
	}

	c.JSON(http.StatusOK, responses.IngestResponse{
		Success:  len(result.Errors) == 0,
		Ingested: result.Ingested,
		Skipped:  result.Skipped,
		Errors:   result.Errors,
	})
}
