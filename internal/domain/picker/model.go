package picker

// Session represents a provider-issued, time-boxed picker session.
// It is never persisted locally; the provider expires it unilaterally.
type Session struct {
	ID            string `json:"id"`
	PickerURI     string `json:"pickerUri"`
	MediaItemsSet bool   `json:"mediaItemsSet"`
	ExpireTime    string `json:"expireTime,omitempty"`
}

// MediaItem is the provider's reference to one selected asset, prior to
// ingestion. The download locator has appeared in three shapes across
// provider API versions, so all three are modeled here; use ResolveBaseURL
// instead of reading the fields directly.
type MediaItem struct {
	ID         string     `json:"id"`
	CreateTime string     `json:"createTime,omitempty"`
	Type       string     `json:"type,omitempty"`
	MediaFile  *MediaFile `json:"mediaFile,omitempty"`

	// Legacy top-level locator shapes.
	BaseURL      string `json:"baseUrl,omitempty"`
	BaseURLSnake string `json:"base_url,omitempty"`
	Filename     string `json:"filename,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
}

// MediaFile carries the current provider shape for the asset file.
type MediaFile struct {
	BaseURL  string             `json:"baseUrl"`
	MimeType string             `json:"mimeType,omitempty"`
	Filename string             `json:"filename,omitempty"`
	Metadata *MediaFileMetadata `json:"mediaFileMetadata,omitempty"`
}

// MediaFileMetadata holds optional asset dimensions.
type MediaFileMetadata struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// MediaItemsPage is one page of the session's media item listing.
type MediaItemsPage struct {
	MediaItems    []MediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// ResolveBaseURL returns the item's download locator. Fallback order is
// fixed: mediaFile.baseUrl, then baseUrl, then base_url. ok is false when
// no shape carries a locator.
func (m MediaItem) ResolveBaseURL() (string, bool) {
	if m.MediaFile != nil && m.MediaFile.BaseURL != "" {
		return m.MediaFile.BaseURL, true
	}
	if m.BaseURL != "" {
		return m.BaseURL, true
	}
	if m.BaseURLSnake != "" {
		return m.BaseURLSnake, true
	}
	return "", false
}

// ResolveFilename returns the filename from whichever shape carries it.
func (m MediaItem) ResolveFilename() string {
	if m.MediaFile != nil && m.MediaFile.Filename != "" {
		return m.MediaFile.Filename
	}
	return m.Filename
}

// ResolveMimeType returns the MIME type from whichever shape carries it.
func (m MediaItem) ResolveMimeType() string {
	if m.MediaFile != nil && m.MediaFile.MimeType != "" {
		return m.MediaFile.MimeType
	}
	return m.MimeType
}

// ResolveDimensions returns width and height when the provider reported them.
func (m MediaItem) ResolveDimensions() (width, height int) {
	if m.MediaFile != nil && m.MediaFile.Metadata != nil {
		return m.MediaFile.Metadata.Width, m.MediaFile.Metadata.Height
	}
	return 0, 0
}
