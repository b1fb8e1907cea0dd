package responses

import "gallery-server/services/gallery-api/internal/domain/gallery"

// CreateSessionResponse returns the provider session handle to the admin UI.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	PickerURI string `json:"pickerUri"`
}

// SessionStatusResponse mirrors the provider's session status.
type SessionStatusResponse struct {
	ID            string `json:"id"`
	PickerURI     string `json:"pickerUri"`
	MediaItemsSet bool   `json:"mediaItemsSet"`
	ExpireTime    string `json:"expireTime,omitempty"`
}

// IngestResponse reports one ingestion batch. Success is true only when the
// errors list is empty; partial failure is still HTTP 200.
type IngestResponse struct {
	Success  bool                `json:"success"`
	Ingested int                 `json:"ingested"`
	Skipped  int                 `json:"skipped"`
	Errors   []gallery.ItemError `json:"errors"`
}

// GalleryListResponse wraps the gallery listing.
type GalleryListResponse struct {
	Items []gallery.Item `json:"items"`
	Count int            `json:"count"`
}
