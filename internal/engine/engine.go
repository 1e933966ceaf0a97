// Package engine provides the text-generation engine abstraction and its
// provider adapters built on the Eino framework.
package engine

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned when a provider has no credentials configured.
var ErrNoAPIKey = errors.New("no API key configured")

// Engine is the opaque generation capability: given a prompt it produces a
// stream of text fragments. A generation call is restartable per call, not
// mid-stream.
type Engine interface {
	Generate(ctx context.Context, prompt string) (Stream, error)
}

// Stream yields generated fragments in production order. Recv returns
// io.EOF once generation completes, or the engine's error on mid-stream
// failure. Close releases the stream; it is safe to call after Recv
// returned an error.
type Stream interface {
	Recv() (string, error)
	Close()
}

// Handle is the shared, expensive-to-construct generation resource. It is
// loaded at most once per process by the model manager and shared
// read-only by all sessions.
type Handle struct {
	ProviderID string
	ModelID    string
	Engine     Engine
}
