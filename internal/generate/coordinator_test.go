package generate

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeassist-ai/codeassist/internal/engine"
	"github.com/codeassist-ai/codeassist/internal/event"
)

// stubEngine replays a fixed fragment sequence, optionally ending in an
// error instead of completion.
type stubEngine struct {
	fragments []string
	failAfter int // fragments delivered before the error; -1 disables
	err       error
	startErr  error
}

func (e *stubEngine) Generate(ctx context.Context, prompt string) (engine.Stream, error) {
	if e.startErr != nil {
		return nil, e.startErr
	}
	return &stubStream{engine: e}, nil
}

type stubStream struct {
	engine *stubEngine
	pos    int
	closed bool
}

func (s *stubStream) Recv() (string, error) {
	if s.engine.err != nil && s.pos == s.engine.failAfter {
		return "", s.engine.err
	}
	if s.pos >= len(s.engine.fragments) {
		return "", io.EOF
	}
	text := s.engine.fragments[s.pos]
	s.pos++
	return text, nil
}

func (s *stubStream) Close() { s.closed = true }

// chunkSink records everything it receives.
type chunkSink struct {
	chunks []string
	final  []string
}

func (s *chunkSink) DisplayMessage(text string) { s.final = append(s.final, text) }
func (s *chunkSink) StreamChunk(text string)    { s.chunks = append(s.chunks, text) }

// plainSink has no chunk capability.
type plainSink struct {
	final []string
}

func (s *plainSink) DisplayMessage(text string) { s.final = append(s.final, text) }

func TestRunAccumulatesInOrder(t *testing.T) {
	eng := &stubEngine{fragments: []string{"class ", "A {}"}, failAfter: -1}
	sink := &chunkSink{}
	c := NewCoordinator(nil)

	full, err := c.Run(context.Background(), "s1", "refactor this", eng, sink)
	require.NoError(t, err)

	assert.Equal(t, "class A {}", full)
	assert.Equal(t, []string{"class ", "A {}"}, sink.chunks)
	// The return value is the exact concatenation of the streamed chunks.
	assert.Equal(t, full, strings.Join(sink.chunks, ""))
}

func TestRunWithoutChunkCapability(t *testing.T) {
	eng := &stubEngine{fragments: []string{"hello ", "world"}, failAfter: -1}
	sink := &plainSink{}
	c := NewCoordinator(nil)

	full, err := c.Run(context.Background(), "s1", "hi", eng, sink)
	require.NoError(t, err)
	assert.Equal(t, "hello world", full)
	// A non-streaming sink gets no intermediate calls.
	assert.Empty(t, sink.final)
}

func TestRunSurfacesMidStreamError(t *testing.T) {
	boom := errors.New("engine crashed")
	eng := &stubEngine{fragments: []string{"partial ", "output"}, failAfter: 1, err: boom}
	sink := &chunkSink{}
	c := NewCoordinator(nil)

	_, err := c.Run(context.Background(), "s1", "hi", eng, sink)
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, boom)

	// Chunks delivered before the failure stand.
	assert.Equal(t, []string{"partial "}, sink.chunks)
}

func TestRunSurfacesStartError(t *testing.T) {
	boom := errors.New("no backend")
	eng := &stubEngine{startErr: boom}
	c := NewCoordinator(nil)

	_, err := c.Run(context.Background(), "s1", "hi", eng, &plainSink{})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, boom)
}

func TestRunPublishesChunkEvents(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()

	var published []string
	unsub := bus.Subscribe(event.ChunkDelivered, func(e event.Event) {
		published = append(published, e.Data.(string))
	})
	defer unsub()

	eng := &stubEngine{fragments: []string{"a", "b", "c"}, failAfter: -1}
	c := NewCoordinator(bus)

	full, err := c.Run(context.Background(), "s1", "hi", eng, &plainSink{})
	require.NoError(t, err)
	assert.Equal(t, "abc", full)
	// PublishSync delivers chunk events in order before Run returns.
	assert.Equal(t, []string{"a", "b", "c"}, published)
}
