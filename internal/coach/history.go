package coach

import "strings"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange in a coaching conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered conversation of one session. It is append-only
// while a session runs and is reset whenever the active exercise mode
// changes. It is passed by reference into feedback calls, which append
// both sides of a successful exchange. A nil *History reads as an empty
// conversation and drops appends.
type History struct {
	turns []Turn
}

// NewHistory returns an empty conversation.
func NewHistory() *History {
	return &History{}
}

// Append adds a turn.
func (h *History) Append(role Role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
}

// Turns returns a copy of the conversation so far.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len reports the number of turns.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.turns)
}

// Reset drops all turns.
func (h *History) Reset() {
	h.turns = nil
}

// Transcript serializes the conversation for embedding in a prompt.
func (h *History) Transcript() string {
	if h == nil {
		return ""
	}
	var b strings.Builder
	for _, t := range h.turns {
		switch t.Role {
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}
