package handlers

import (
	"github.com/rs/zerolog"

	"gallery-server/services/gallery-api/internal/domain/gallery"
)

// Provider wires HTTP handlers.
type Provider struct {
	Sessions *SessionHandler
	Gallery  *GalleryHandler
}

func NewProvider(broker SessionBroker, service gallery.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Sessions: NewSessionHandler(broker, service, log),
		Gallery:  NewGalleryHandler(service, log),
	}
}
