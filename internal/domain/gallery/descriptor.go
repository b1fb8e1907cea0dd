package gallery

import (
	"errors"
	"fmt"
	"net/url"

	"gallery-server/services/gallery-api/internal/domain/picker"
)

var errNoLocator = errors.New("media item has no usable download locator")

// descriptor is the normalized view of one provider media item. All shape
// probing happens here, not in the ingestion loop.
type descriptor struct {
	sourceID string
	url      *url.URL
	filename string
	mimeType string
	width    int
	height   int
}

// newDescriptor normalizes a raw provider media item. It fails when no
// locator shape is present or the locator is not an absolute http(s) URL.
func newDescriptor(item picker.MediaItem) (descriptor, error) {
	raw, ok := item.ResolveBaseURL()
	if !ok {
		return descriptor{}, errNoLocator
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return descriptor{}, fmt.Errorf("invalid download url: %s", raw)
	}

	width, height := item.ResolveDimensions()
	return descriptor{
		sourceID: item.ID,
		url:      u,
		filename: item.ResolveFilename(),
		mimeType: item.ResolveMimeType(),
		width:    width,
		height:   height,
	}, nil
}
