package types

import "time"

// Session is one user's isolated conversation context. The ID is an opaque
// token and the only value that must remain stable across calls. Data is a
// free-form bag; by convention it holds the conversation state plus any
// resource handles the transport layer wants to pin to the session.
type Session struct {
	ID           string         `json:"id"`
	Data         map[string]any `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastActivity time.Time      `json:"lastActivity"`
}
