// Package prompt builds generation prompts from conversation history.
package prompt

import (
	"fmt"
	"strings"

	"github.com/codeassist-ai/codeassist/pkg/types"
)

// Builder turns a conversation into a prompt. Implementations are pure:
// same input, same output, no side effects.
type Builder interface {
	Build(history []types.ChatMessage) string
}

// Transcript renders history as a plain User/Assistant transcript ending
// with an open assistant turn.
type Transcript struct{}

// NewTranscript creates a transcript builder.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Build renders the prompt.
func (b *Transcript) Build(history []types.ChatMessage) string {
	var sb strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case types.RoleUser:
			fmt.Fprintf(&sb, "User: %s\n", turn.Content)
		default:
			fmt.Fprintf(&sb, "Assistant: %s\n", turn.Content)
		}
	}
	sb.WriteString("Assistant: ")
	return sb.String()
}

// RefactorSeed returns the opening user message for a one-shot refactor of
// a source file.
func RefactorSeed(language, code string) string {
	if language == "" {
		language = "java"
	}
	return fmt.Sprintf(
		"Refactor the following %s code according to SOLID principles:\n```%s\n%s\n```\n"+
			"Write only the refactored code without explanations.",
		language, language, code)
}
