// Package galleryid mints the identifiers that key ingested assets in the
// content store. One id names both the full-size object (gallery/<id>.<ext>)
// and its thumbnail (thumbs/<id>.jpg), so the pair can be correlated from
// the key alone.
package galleryid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New mints a gal_* id for one ingested asset. ULIDs keep store keys
// lexically ordered by ingestion time, which makes bucket listings scannable.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "gal_" + strings.ToLower(id.String())
}

// IsValid reports whether value is an id this package could have minted.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "gal_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse recovers the underlying ULID, tolerating an upper-cased prefix from
// hand-typed input.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "gal_")
	value = strings.TrimPrefix(value, "GAL_")
	return ulid.Parse(value)
}
