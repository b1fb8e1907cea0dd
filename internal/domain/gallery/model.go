package gallery

import "time"

// Item is the durable representation of one ingested asset.
type Item struct {
	ID                uint      `json:"id"`
	SourceMediaItemID string    `json:"source_media_item_id"`
	ContentURL        string    `json:"content_url"`
	ThumbnailURL      *string   `json:"thumbnail_url,omitempty"`
	Filename          *string   `json:"filename,omitempty"`
	Width             *int      `json:"width,omitempty"`
	Height            *int      `json:"height,omitempty"`
	MimeType          *string   `json:"mime_type,omitempty"`
	UploadedAt        time.Time `json:"uploaded_at"`
}

// ItemError records one failed batch item. Field names match the admin UI
// contract.
type ItemError struct {
	ItemID string `json:"itemId"`
	Error  string `json:"error"`
}

// IngestionResult aggregates one ingestion run. It is returned synchronously
// and never persisted. Errors preserve item processing order.
type IngestionResult struct {
	Ingested int         `json:"ingested"`
	Skipped  int         `json:"skipped"`
	Errors   []ItemError `json:"errors"`
}

// IngestOptions controls one ingestion run.
type IngestOptions struct {
	// ReplaceMode clears the whole store before ingesting the batch.
	ReplaceMode bool
	// WaitForSelection polls the provider until the operator finishes
	// selecting instead of returning an empty result immediately.
	WaitForSelection bool
}
