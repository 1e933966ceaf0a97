// Package conversation holds per-conversation state: bounded message history
// and the set of project files providing context for generation.
package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codeassist-ai/codeassist/pkg/types"
)

// ContextMarker prefixes an embedded project-context block inside a user
// turn. Its presence in recent history is how we avoid re-sending the full
// project dump on every turn.
const ContextMarker = "### Project context"

// TruncationNotice is appended when the character budget cuts off
// secondary file content.
const TruncationNotice = "[remaining project files omitted: context budget reached]"

// maxRecentlyMentioned bounds the recently-mentioned file set.
const maxRecentlyMentioned = 5

// DefaultMaxHistory is the default history bound.
const DefaultMaxHistory = 10

// State is the conversation state for one session. It is pure data plus
// selection logic; no I/O. State is not safe for concurrent use: callers
// serialize access per session (the orchestrator holds one lock per session
// for the duration of a turn).
type State struct {
	maxHistory int
	history    []types.ChatMessage
	files      map[string]*types.ProjectFile
	primary    string
	// recent holds filenames in mention recency order, oldest first.
	recent []string
}

// NewState creates conversation state with the given history bound.
// A bound of zero or less falls back to DefaultMaxHistory.
func NewState(maxHistory int) *State {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &State{
		maxHistory: maxHistory,
		files:      make(map[string]*types.ProjectFile),
	}
}

// AddTurn appends a message to the history, evicting the oldest message
// first once the bound is reached.
func (s *State) AddTurn(msg types.ChatMessage) {
	if len(s.history) >= s.maxHistory {
		s.history = s.history[1:]
	}
	s.history = append(s.history, msg)
}

// History returns a copy of the message history in arrival order.
func (s *State) History() []types.ChatMessage {
	out := make([]types.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// AddFile upserts a project file. The file is marked recently mentioned,
// and becomes the primary file if none is set.
func (s *State) AddFile(filename, content, description string) {
	s.files[filename] = &types.ProjectFile{
		Filename:    filename,
		Content:     content,
		Description: description,
	}
	s.markMentioned(filename)
	if s.primary == "" {
		s.primary = filename
	}
}

// RemoveFile removes a project file. If it was the primary file, another
// remaining file (lowest filename) takes over, or the primary becomes
// unset. Reports whether a file was removed.
func (s *State) RemoveFile(filename string) bool {
	if _, ok := s.files[filename]; !ok {
		return false
	}
	delete(s.files, filename)

	for i, name := range s.recent {
		if name == filename {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			break
		}
	}

	if s.primary == filename {
		s.primary = ""
		if names := s.sortedFilenames(); len(names) > 0 {
			s.primary = names[0]
		}
	}
	return true
}

// SetPrimary sets the primary file if it exists, marking it mentioned.
// Reports success.
func (s *State) SetPrimary(filename string) bool {
	if _, ok := s.files[filename]; !ok {
		return false
	}
	s.primary = filename
	s.markMentioned(filename)
	return true
}

// PrimaryFile returns the current primary filename, or "" when unset.
func (s *State) PrimaryFile() string {
	return s.primary
}

// Files returns a copy of the project file map.
func (s *State) Files() map[string]types.ProjectFile {
	out := make(map[string]types.ProjectFile, len(s.files))
	for name, f := range s.files {
		out[name] = *f
	}
	return out
}

// Snapshot returns a deep copy of the state. Readers use it to inspect a
// conversation after the session's lock is released, while turns keep
// mutating the live state.
func (s *State) Snapshot() *State {
	out := &State{
		maxHistory: s.maxHistory,
		history:    make([]types.ChatMessage, len(s.history)),
		files:      make(map[string]*types.ProjectFile, len(s.files)),
		primary:    s.primary,
		recent:     make([]string, len(s.recent)),
	}
	copy(out.history, s.history)
	copy(out.recent, s.recent)
	for name, f := range s.files {
		c := *f
		out.files[name] = &c
	}
	return out
}

// FileCount returns the number of project files.
func (s *State) FileCount() int {
	return len(s.files)
}

// RecentlyMentioned returns the recently mentioned filenames, most recent
// last.
func (s *State) RecentlyMentioned() []string {
	out := make([]string, len(s.recent))
	copy(out, s.recent)
	return out
}

// UpdateMentions scans text for literal occurrences of known filenames and
// marks each one recently mentioned.
func (s *State) UpdateMentions(text string) {
	for _, name := range s.sortedFilenames() {
		if strings.Contains(text, name) {
			s.markMentioned(name)
		}
	}
}

// markMentioned moves the filename to the most-recent position, evicting
// the least recently mentioned entry past the bound.
func (s *State) markMentioned(filename string) {
	for i, name := range s.recent {
		if name == filename {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			break
		}
	}
	s.recent = append(s.recent, filename)
	if len(s.recent) > maxRecentlyMentioned {
		s.recent = s.recent[len(s.recent)-maxRecentlyMentioned:]
	}
}

// NeedsContextRefresh reports whether none of the last window history
// entries carries an embedded project-context block.
func (s *State) NeedsContextRefresh(window int) bool {
	start := len(s.history) - window
	if start < 0 {
		start = 0
	}
	for _, msg := range s.history[start:] {
		if strings.Contains(msg.Content, ContextMarker) {
			return false
		}
	}
	return true
}

// BuildContext assembles the project context text. The primary file's
// content is always emitted in full; the character budget only bounds
// secondary file content. Candidate selection order: primary file, then
// recently mentioned files (most recent first), then the rest by filename,
// capped at maxFiles.
func (s *State) BuildContext(maxFiles, charBudget int) string {
	if len(s.files) == 0 {
		return ""
	}

	candidates := s.selectCandidates(maxFiles)

	var b strings.Builder
	b.WriteString(ContextMarker)
	b.WriteString("\n")

	if s.primary != "" {
		if f, ok := s.files[s.primary]; ok {
			writeFileBlock(&b, f, true)
		}
	}

	b.WriteString("\nProject structure:\n")
	for _, name := range s.sortedFilenames() {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	used := 0
	for _, name := range candidates {
		if name == s.primary {
			continue
		}
		f, ok := s.files[name]
		if !ok {
			continue
		}
		block := fileBlock(f, false)
		if used+len(block) > charBudget {
			b.WriteString("\n")
			b.WriteString(TruncationNotice)
			b.WriteString("\n")
			break
		}
		b.WriteString(block)
		used += len(block)
	}

	return b.String()
}

// selectCandidates builds the ordered candidate list: primary, recent
// mentions (most recent first), then remaining files by filename.
func (s *State) selectCandidates(maxFiles int) []string {
	seen := make(map[string]bool, maxFiles)
	candidates := make([]string, 0, maxFiles)

	add := func(name string) bool {
		if len(candidates) >= maxFiles {
			return false
		}
		if seen[name] {
			return true
		}
		if _, ok := s.files[name]; !ok {
			return true
		}
		seen[name] = true
		candidates = append(candidates, name)
		return true
	}

	if s.primary != "" {
		add(s.primary)
	}
	for i := len(s.recent) - 1; i >= 0; i-- {
		if !add(s.recent[i]) {
			return candidates
		}
	}
	for _, name := range s.sortedFilenames() {
		if !add(name) {
			break
		}
	}
	return candidates
}

func (s *State) sortedFilenames() []string {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fileBlock(f *types.ProjectFile, primary bool) string {
	var b strings.Builder
	writeFileBlock(&b, f, primary)
	return b.String()
}

func writeFileBlock(b *strings.Builder, f *types.ProjectFile, primary bool) {
	if primary {
		fmt.Fprintf(b, "\nPrimary file: %s\n", f.Filename)
	} else {
		fmt.Fprintf(b, "\nFile: %s\n", f.Filename)
	}
	if f.Description != "" {
		fmt.Fprintf(b, "(%s)\n", f.Description)
	}
	b.WriteString("```\n")
	b.WriteString(f.Content)
	if !strings.HasSuffix(f.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
}
