package types

// ProjectFile is one source file attached to a conversation. The filename is
// the unique key within a conversation; the file is owned exclusively by the
// conversation state that holds it.
type ProjectFile struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}
