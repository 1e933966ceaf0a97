// Package generate coordinates one streaming generation call: it drives the
// engine on a background goroutine, relays fragments to the output sink in
// production order, and returns the accumulated text.
package generate

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/codeassist-ai/codeassist/internal/engine"
	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/logging"
)

// Sink delivers generated output to the user-facing channel.
type Sink interface {
	DisplayMessage(text string)
}

// ChunkStreamer is an optional sink capability: sinks that implement it
// receive each fragment as it arrives. Sinks without it only see the final
// text via the caller.
type ChunkStreamer interface {
	StreamChunk(text string)
}

// GenerationError reports an engine failure mid-stream. Chunks already
// delivered to the sink before the failure stand; they are not retracted.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Coordinator runs generation calls. It is stateless per call and safe for
// concurrent use across sessions.
type Coordinator struct {
	bus *event.Bus
}

// NewCoordinator creates a coordinator. The bus may be nil; when set, every
// delivered chunk and the final outcome are published on it.
func NewCoordinator(bus *event.Bus) *Coordinator {
	return &Coordinator{bus: bus}
}

// fragment is one unit read from the engine stream.
type fragment struct {
	text string
	err  error
}

// Run executes one generation call and blocks until the full response is
// assembled. The engine stream is consumed on a background goroutine that
// is always joined, even on error; fragments reach the sink in the exact
// order the engine produced them, and the returned text is their
// concatenation with no gaps or duplicates.
func (c *Coordinator) Run(ctx context.Context, sessionID, prompt string, eng engine.Engine, sink Sink) (string, error) {
	stream, err := eng.Generate(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Cause: err}
	}
	defer stream.Close()

	frags := make(chan fragment)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(frags)
		for {
			text, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				frags <- fragment{err: err}
				return
			}
			frags <- fragment{text: text}
		}
	}()

	streamer, canStream := sink.(ChunkStreamer)

	var acc strings.Builder
	var genErr error
	for f := range frags {
		if f.err != nil {
			genErr = f.err
			continue
		}
		acc.WriteString(f.text)
		if canStream {
			streamer.StreamChunk(f.text)
		}
		if c.bus != nil {
			c.bus.PublishSync(event.Event{
				Type:      event.ChunkDelivered,
				SessionID: sessionID,
				Data:      f.text,
			})
		}
	}
	wg.Wait()

	if genErr != nil {
		c.publishOutcome(event.GenerationFailed, sessionID, genErr.Error())
		return acc.String(), &GenerationError{Cause: genErr}
	}

	logging.Debug().
		Str("session", sessionID).
		Int("chars", acc.Len()).
		Msg("generation complete")
	c.publishOutcome(event.GenerationCompleted, sessionID, acc.Len())
	return acc.String(), nil
}

func (c *Coordinator) publishOutcome(t event.Type, sessionID string, data any) {
	if c.bus != nil {
		c.bus.Publish(event.Event{Type: t, SessionID: sessionID, Data: data})
	}
}
