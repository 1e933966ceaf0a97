package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/codeassist-ai/codeassist/internal/engine"
)

// ScriptedEngine is a fake generation engine that streams canned fragments.
// Safe for concurrent use.
type ScriptedEngine struct {
	mu        sync.Mutex
	fragments []string
	calls     int
	lastInput string
}

// NewScriptedEngine creates an engine that streams the given fragments for
// every request.
func NewScriptedEngine(fragments ...string) *ScriptedEngine {
	return &ScriptedEngine{fragments: fragments}
}

// SetFragments replaces the canned response.
func (e *ScriptedEngine) SetFragments(fragments ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fragments = fragments
}

// Calls returns how many generations were requested.
func (e *ScriptedEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// LastInput returns the prompt of the most recent generation.
func (e *ScriptedEngine) LastInput() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastInput
}

// Generate implements engine.Engine.
func (e *ScriptedEngine) Generate(ctx context.Context, prompt string) (engine.Stream, error) {
	e.mu.Lock()
	e.calls++
	e.lastInput = prompt
	fragments := make([]string, len(e.fragments))
	copy(fragments, e.fragments)
	e.mu.Unlock()

	return &scriptedStream{fragments: fragments}, nil
}

type scriptedStream struct {
	fragments []string
	pos       int
}

func (s *scriptedStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *scriptedStream) Close() {}

// ScriptedLoader hands out a handle backed by a ScriptedEngine, or fails
// with Err when set.
type ScriptedLoader struct {
	Engine *ScriptedEngine
	Err    error
}

// Load implements engine.Loader.
func (l *ScriptedLoader) Load(ctx context.Context) (*engine.Handle, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return &engine.Handle{
		ProviderID: "scripted",
		ModelID:    "scripted-model",
		Engine:     l.Engine,
	}, nil
}
