package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeassist-ai/codeassist/internal/chat"
	"github.com/codeassist-ai/codeassist/internal/engine"
	"github.com/codeassist-ai/codeassist/internal/generate"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/prompt"
	"github.com/codeassist-ai/codeassist/internal/session"
)

type nopLoader struct{}

func (nopLoader) Load(ctx context.Context) (*engine.Handle, error) {
	return &engine.Handle{ProviderID: "test", ModelID: "stub"}, nil
}

func newAttachOrchestrator(t *testing.T) (*chat.Orchestrator, string) {
	t.Helper()

	store := session.NewStore()
	models := model.NewManager(nopLoader{}, nil)
	o := chat.New(store, models, prompt.NewTranscript(), generate.NewCoordinator(nil), nil, chat.DefaultConfig())
	return o, o.StartSession()
}

func TestAttachPathSingleFile(t *testing.T) {
	o, id := newAttachOrchestrator(t)

	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	n, err := attachPath(o, id, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	conv, err := o.Conversation(id)
	require.NoError(t, err)
	assert.Contains(t, conv.Files(), "main.go")
	assert.Equal(t, "main.go", conv.PrimaryFile())
}

func TestAttachPathGlob(t *testing.T) {
	o, id := newAttachOrchestrator(t)

	dir := t.TempDir()
	for _, name := range []string{"a.go", "b.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package x\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0o644))

	n, err := attachPath(o, id, filepath.Join(dir, "*.go"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	conv, err := o.Conversation(id)
	require.NoError(t, err)
	files := conv.Files()
	assert.Len(t, files, 2)
	assert.Contains(t, files, "a.go")
	assert.Contains(t, files, "b.go")
}

func TestAttachPathGlobNoMatches(t *testing.T) {
	o, id := newAttachOrchestrator(t)

	_, err := attachPath(o, id, filepath.Join(t.TempDir(), "*.go"))
	assert.Error(t, err)
}
