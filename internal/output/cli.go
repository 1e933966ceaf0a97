// Package output provides the user-facing output sinks: a styled terminal
// sink and an event-bus sink feeding the web transport.
package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// CLI writes assistant output to a terminal. It streams chunks as they
// arrive and prints nothing extra on the final message, which would repeat
// the streamed text.
type CLI struct {
	w         io.Writer
	streaming bool
}

// NewCLI creates a terminal sink.
func NewCLI(w io.Writer) *CLI {
	return &CLI{w: w}
}

// StreamChunk prints one fragment, prefixing the first of a response with
// the assistant label.
func (c *CLI) StreamChunk(text string) {
	if !c.streaming {
		fmt.Fprint(c.w, labelStyle.Render("Assistant:"), " ")
		c.streaming = true
	}
	fmt.Fprint(c.w, assistantStyle.Render(text))
}

// DisplayMessage ends the streamed response. The chunks already carried the
// text, so only the trailing newline is emitted.
func (c *CLI) DisplayMessage(text string) {
	if c.streaming {
		c.streaming = false
		fmt.Fprintln(c.w)
		return
	}
	fmt.Fprintln(c.w, labelStyle.Render("Assistant:"), assistantStyle.Render(text))
}

// DisplayError prints an error line.
func (c *CLI) DisplayError(err error) {
	fmt.Fprintln(c.w, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
}
