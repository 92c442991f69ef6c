package domain

// Role identifies the speaker of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleModel is how the AI endpoint names the assistant in history.
	RoleModel Role = "model"
)

// Turn is one message in an interview transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Failed marks a user turn whose reply could not be produced.
	Failed bool `json:"failed,omitempty"`
}

// HistoryEntry is the wire shape the AI endpoint expects for prior turns.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryFromTurns maps transcript turns to AI history, renaming the
// assistant role to "model".
func HistoryFromTurns(turns []Turn) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(turns))
	for _, t := range turns {
		role := RoleUser
		if t.Role == RoleAssistant {
			role = RoleModel
		}
		out = append(out, HistoryEntry{Role: role, Content: t.Content})
	}
	return out
}
