package output

import (
	"github.com/codeassist-ai/codeassist/internal/event"
)

// BusSink publishes output onto the event bus, scoped to one session. The
// SSE transport subscribes on the other side and relays to the browser.
// Chunk events ride on the coordinator's own publishing; this sink only
// carries the final message, so it deliberately lacks the chunk-streaming
// capability.
type BusSink struct {
	bus       *event.Bus
	sessionID string
}

// NewBusSink creates a sink publishing to bus for the given session.
func NewBusSink(bus *event.Bus, sessionID string) *BusSink {
	return &BusSink{bus: bus, sessionID: sessionID}
}

// DisplayMessage publishes the completed response.
func (s *BusSink) DisplayMessage(text string) {
	s.bus.PublishSync(event.Event{
		Type:      event.ResponseCompleted,
		SessionID: s.sessionID,
		Data:      text,
	})
}
