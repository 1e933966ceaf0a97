package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/generate"
)

func TestCLIStreamsChunksOnce(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCLI(&buf)

	sink.StreamChunk("hello ")
	sink.StreamChunk("world")
	sink.DisplayMessage("hello world")

	out := buf.String()
	assert.Contains(t, out, "hello ")
	assert.Contains(t, out, "world")
	// The final message must not repeat the streamed text.
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("hello")))
}

func TestCLIDisplayWithoutStreaming(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCLI(&buf)

	sink.DisplayMessage("standalone")
	assert.Contains(t, buf.String(), "standalone")
}

func TestCLIDisplayError(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCLI(&buf)

	sink.DisplayError(errors.New("engine down"))
	assert.Contains(t, buf.String(), "engine down")
}

func TestCLISatisfiesSinkCapabilities(t *testing.T) {
	var sink generate.Sink = NewCLI(&bytes.Buffer{})
	_, ok := sink.(generate.ChunkStreamer)
	assert.True(t, ok, "the CLI sink supports chunked delivery")
}

func TestBusSinkPublishesFinalOnly(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()

	var got []event.Event
	unsub := bus.Subscribe(event.ResponseCompleted, func(e event.Event) {
		got = append(got, e)
	})
	defer unsub()

	var sink generate.Sink = NewBusSink(bus, "s1")
	sink.DisplayMessage("all done")

	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].SessionID)
	assert.Equal(t, "all done", got[0].Data)

	// No chunk capability: the coordinator publishes chunks itself.
	_, ok := sink.(generate.ChunkStreamer)
	assert.False(t, ok)
}
