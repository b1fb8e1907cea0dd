package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"gallery-server/services/gallery-api/internal/config"
	"gallery-server/services/gallery-api/internal/domain/picker"
	"gallery-server/services/gallery-api/internal/infrastructure/metrics"
	"gallery-server/services/gallery-api/utils/galleryid"
)

// ErrDuplicateSource is returned by Repository.Create when an item with the
// same source media id already exists. The unique index makes the losing
// side of a concurrent insert race surface here.
var ErrDuplicateSource = errors.New("gallery item already exists for source media id")

// Repository defines persistence operations needed by the service.
type Repository interface {
	ExistsBySourceID(ctx context.Context, sourceID string) (bool, error)
	Create(ctx context.Context, item *Item) error
	DeleteAll(ctx context.Context) (int64, error)
	ListAll(ctx context.Context) ([]Item, error)
}

// Storage defines content store operations.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// Provider is the slice of the picker client the service depends on.
type Provider interface {
	GetSession(ctx context.Context, sessionID string) (*picker.Session, error)
	PollUntilSelected(ctx context.Context, sessionID string, opts picker.PollOptions) (*picker.Session, error)
	GetAllMediaItems(ctx context.Context, sessionID string) ([]picker.MediaItem, error)
}

// Service describes the gallery business surface.
type Service interface {
	// Ingest downloads every asset selected in the session, re-hosts it in
	// the content store and records it, skipping already-ingested assets.
	Ingest(ctx context.Context, sessionID string, opts IngestOptions) (*IngestionResult, error)
	// List returns all ingested items, newest first.
	List(ctx context.Context) ([]Item, error)
}

type service struct {
	cfg        *config.Config
	repo       Repository
	storage    Storage
	provider   Provider
	log        zerolog.Logger
	httpClient *http.Client
}

// NewService wires the gallery service with its collaborators.
func NewService(cfg *config.Config, repo Repository, storage Storage, provider Provider, log zerolog.Logger) Service {
	return &service{
		cfg:      cfg,
		repo:     repo,
		storage:  storage,
		provider: provider,
		log:      log.With().Str("component", "gallery-service").Logger(),
		httpClient: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
	}
}

type itemOutcome int

const (
	outcomeIngested itemOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *service) Ingest(ctx context.Context, sessionID string, opts IngestOptions) (*IngestionResult, error) {
	start := time.Now()

	var (
		session *picker.Session
		err     error
	)
	if opts.WaitForSelection {
		session, err = s.provider.PollUntilSelected(ctx, sessionID, picker.PollOptions{
			Interval:    s.cfg.PollInterval,
			MaxAttempts: s.cfg.PollMaxAttempts,
		})
	} else {
		session, err = s.provider.GetSession(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	result := &IngestionResult{Errors: []ItemError{}}
	if !session.MediaItemsSet {
		s.log.Info().Str("session_id", sessionID).Msg("no media items selected in session")
		return result, nil
	}

	if opts.ReplaceMode {
		deleted, err := s.repo.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		s.log.Info().Int64("deleted", deleted).Msg("replace mode: cleared existing gallery items")
	}

	items, err := s.provider.GetAllMediaItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Strictly sequential: batches are small and the cost is network I/O,
	// so one in-flight transfer at a time keeps the run observable. One
	// item's failure never fails the batch.
	for _, item := range items {
		outcome, itemErr := s.ingestOne(ctx, item)
		switch outcome {
		case outcomeIngested:
			result.Ingested++
		case outcomeSkipped:
			result.Skipped++
			metrics.RecordIngestItem("skipped", 0)
		case outcomeFailed:
			s.log.Error().Err(itemErr).Str("item_id", item.ID).Msg("ingest item failed")
			result.Errors = append(result.Errors, ItemError{ItemID: item.ID, Error: itemErr.Error()})
			metrics.RecordIngestItem("error", 0)
		}
	}

	metrics.RecordIngestBatch(time.Since(start).Seconds())
	s.log.Info().
		Str("session_id", sessionID).
		Int("ingested", result.Ingested).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("ingestion batch complete")
	return result, nil
}

func (s *service) ingestOne(ctx context.Context, item picker.MediaItem) (itemOutcome, error) {
	desc, err := newDescriptor(item)
	if err != nil {
		return outcomeFailed, err
	}

	exists, err := s.repo.ExistsBySourceID(ctx, desc.sourceID)
	if err != nil {
		return outcomeFailed, err
	}
	if exists {
		s.log.Debug().Str("item_id", desc.sourceID).Msg("skipping duplicate item")
		return outcomeSkipped, nil
	}

	data, err := s.download(ctx, desc.url)
	if err != nil {
		return outcomeFailed, fmt.Errorf("download: %w", err)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return outcomeFailed, fmt.Errorf("unsupported mime type %s", mime.String())
	}

	id := galleryid.New()
	key := fmt.Sprintf("gallery/%s%s", id, mime.Extension())
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mime.String()); err != nil {
		metrics.RecordStorageOperation("upload", "error")
		return outcomeFailed, fmt.Errorf("upload: %w", err)
	}
	metrics.RecordStorageOperation("upload", "success")

	record := &Item{
		SourceMediaItemID: desc.sourceID,
		ContentURL:        s.storage.PublicURL(key),
		ThumbnailURL:      s.uploadThumbnail(ctx, id, data),
		MimeType:          strPtr(mime.String()),
	}
	if desc.filename != "" {
		record.Filename = &desc.filename
	}
	width, height := desc.width, desc.height
	if cfgImg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfgImg.Width, cfgImg.Height
	}
	if width > 0 && height > 0 {
		record.Width = &width
		record.Height = &height
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateSource) {
			// A concurrent run won the insert race; treat as skip.
			s.log.Debug().Str("item_id", desc.sourceID).Msg("lost insert race, counting as skip")
			return outcomeSkipped, nil
		}
		return outcomeFailed, fmt.Errorf("record: %w", err)
	}

	metrics.RecordIngestItem("ingested", int64(len(data)))
	s.log.Info().Str("item_id", desc.sourceID).Str("key", key).Msg("ingested item")
	return outcomeIngested, nil
}

// uploadThumbnail is best effort: a resize or upload failure leaves the
// thumbnail URL null without failing the item.
func (s *service) uploadThumbnail(ctx context.Context, id string, data []byte) *string {
	thumb, err := renderThumbnail(data, s.cfg.ThumbnailEdge)
	if err != nil {
		s.log.Warn().Err(err).Msg("thumbnail generation failed, continuing without it")
		return nil
	}
	key := fmt.Sprintf("thumbs/%s.jpg", id)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		metrics.RecordStorageOperation("upload", "error")
		s.log.Warn().Err(err).Msg("thumbnail upload failed, continuing without it")
		return nil
	}
	metrics.RecordStorageOperation("upload", "success")
	return strPtr(s.storage.PublicURL(key))
}

func (s *service) download(ctx context.Context, u *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.attachCredential(u) {
		req.Header.Set("Authorization", "Bearer "+s.cfg.PickerAccessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("remote fetch error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	if int64(len(data)) > s.cfg.MaxMediaBytes {
		return nil, fmt.Errorf("file exceeds max size of %d bytes", s.cfg.MaxMediaBytes)
	}
	return data, nil
}

// attachCredential decides whether the bearer credential accompanies a
// download. It must only ever reach the provider's own asset hosts.
func (s *service) attachCredential(u *url.URL) bool {
	if s.cfg.PickerAccessToken == "" {
		return false
	}
	suffix := strings.ToLower(strings.TrimSpace(s.cfg.PickerAssetHost))
	if suffix == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

func (s *service) List(ctx context.Context) ([]Item, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list gallery items")
		return nil, err
	}
	return items, nil
}

func strPtr(v string) *string {
	return &v
}
