package picker

import (
	"errors"
	"fmt"
)

// ErrSessionExpired signals the provider no longer knows the session.
// Surfaced distinctly so callers can prompt the operator to restart the flow.
var ErrSessionExpired = errors.New("picker session expired or unknown")

// ErrPollingTimeout signals the selection never finalized within the
// polling attempt budget.
var ErrPollingTimeout = errors.New("picker selection polling timed out")

// ProviderError carries a non-success response from the picker API.
// It is never retried automatically at the client layer.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("picker API error: %d - %s", e.StatusCode, e.Body)
}
