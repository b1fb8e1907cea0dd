package entities

import "time"

// GalleryItem is the persisted record of one ingested asset.
// The unique index on SourceMediaItemID is the idempotency guarantee:
// a second insert for the same external media id fails atomically.
type GalleryItem struct {
	ID                uint    `gorm:"primaryKey;autoIncrement"`
	SourceMediaItemID string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	ContentURL        string  `gorm:"type:text;not null"`
	ThumbnailURL      *string `gorm:"type:text"`
	Filename          *string `gorm:"type:varchar(255)"`
	Width             *int
	Height            *int
	MimeType          *string   `gorm:"type:varchar(64)"`
	UploadedAt        time.Time `gorm:"autoCreateTime;index:idx_gallery_item_uploaded_at,sort:desc"`
}

func (GalleryItem) TableName() string {
	return "gallery_items"
}
