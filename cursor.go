package capture

import (
	"context"
	"net/url"
	"strings"
)

// CursorState is the per-endpoint delta-tracking state of the api-poll
// provider. It is created on the first poll of an endpoint, mutated on
// every subsequent poll, and never deleted by this subsystem.
type CursorState struct {
	LastCursor string `json:"lastCursor,omitempty"`
	LastETag   string `json:"lastEtag,omitempty"`
	LastHash   string `json:"lastHash,omitempty"`
	LastPollAt string `json:"lastPollAt,omitempty"`
}

// CursorStore persists CursorState keyed by normalized endpoint.
// Implementations guarantee per-key update atomicity: concurrent Update
// calls for the same key serialize their read-modify-write, while updates
// for different keys are independent.
type CursorStore interface {
	// Get returns the state for key, or the zero state when none exists.
	Get(ctx context.Context, key string) (CursorState, error)

	// Update applies fn to the current state for key and persists the
	// result. The read-modify-write is atomic per key. An error from fn
	// aborts the update and is returned unchanged.
	Update(ctx context.Context, key string, fn func(*CursorState) error) error
}

// EndpointKey normalizes an endpoint URL into a cursor-store key:
// origin plus path, query and fragment stripped, trailing slash removed.
func EndpointKey(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(endpoint, "/")
	}
	path := strings.TrimSuffix(u.Path, "/")
	return u.Scheme + "://" + u.Host + path
}
