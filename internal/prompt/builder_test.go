package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeassist-ai/codeassist/pkg/types"
)

func TestTranscriptBuild(t *testing.T) {
	b := NewTranscript()

	history := []types.ChatMessage{
		types.UserMessage("hello"),
		types.AssistantMessage("hi there"),
		types.UserMessage("refactor this"),
	}

	got := b.Build(history)
	want := "User: hello\nAssistant: hi there\nUser: refactor this\nAssistant: "
	assert.Equal(t, want, got)
}

func TestTranscriptBuildEmptyHistory(t *testing.T) {
	assert.Equal(t, "Assistant: ", NewTranscript().Build(nil))
}

func TestTranscriptIsPure(t *testing.T) {
	b := NewTranscript()
	history := []types.ChatMessage{types.UserMessage("x")}

	first := b.Build(history)
	second := b.Build(history)
	assert.Equal(t, first, second)
}

func TestRefactorSeed(t *testing.T) {
	seed := RefactorSeed("java", "class A{}")
	assert.Contains(t, seed, "```java\nclass A{}\n```")
	assert.Contains(t, seed, "SOLID")

	// Unspecified language defaults to java.
	assert.Contains(t, RefactorSeed("", "x"), "```java")
}
