package gallery

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "gallery-server/services/gallery-api/internal/domain/gallery"
	"gallery-server/services/gallery-api/internal/infrastructure/database/entities"
	"gallery-server/services/gallery-api/internal/utils/platformerrors"
)

// Repository handles gallery item persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ExistsBySourceID(ctx context.Context, sourceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.GalleryItem{}).
		Where("source_media_item_id = ?", sourceID).
		Count(&count).Error
	if err != nil {
		return false, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to check gallery item existence",
			err,
			"3f6a1d8c-2b4e-4f7a-9c1d-5e8b2a4c6d7e",
		)
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, item *domain.Item) error {
	entity := entities.GalleryItem{
		SourceMediaItemID: item.SourceMediaItemID,
		ContentURL:        item.ContentURL,
		ThumbnailURL:      item.ThumbnailURL,
		Filename:          item.Filename,
		Width:             item.Width,
		Height:            item.Height,
		MimeType:          item.MimeType,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("source %s: %w", item.SourceMediaItemID, domain.ErrDuplicateSource)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create gallery item",
			err,
			"8c2f5b1a-7d3e-4a6c-b9f0-1e4d7a2c5b8f",
		)
	}
	item.ID = entity.ID
	item.UploadedAt = entity.UploadedAt
	return nil
}

func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&entities.GalleryItem{})
	if result.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete gallery items",
			result.Error,
			"6b9d2e4f-1a5c-4d8e-a3b7-9f0c2d4e6a8b",
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Item, error) {
	var rows []entities.GalleryItem
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list gallery items",
			err,
			"2e7c4a9b-5d1f-4b8a-c6e3-0d2f4b6c8e1a",
		)
	}
	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEntity(row))
	}
	return items, nil
}

func mapEntity(entity entities.GalleryItem) domain.Item {
	return domain.Item{
		ID:                entity.ID,
		SourceMediaItemID: entity.SourceMediaItemID,
		ContentURL:        entity.ContentURL,
		ThumbnailURL:      entity.ThumbnailURL,
		Filename:          entity.Filename,
		Width:             entity.Width,
		Height:            entity.Height,
		MimeType:          entity.MimeType,
		UploadedAt:        entity.UploadedAt,
	}
}
