package chat

import "time"

// State is the position of a session in its turn cycle.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
)

// Session is the per-user conversation context: the history plus the
// settings chosen in the sidebar.
type Session struct {
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	ContextSize int       `json:"contextSize"`
	State       State     `json:"state"`
	CreatedAt   time.Time `json:"createdAt"`
	History     *History  `json:"history"`
}

// Clone returns a deep copy that callers can read without holding locks.
func (s Session) Clone() Session {
	cloned := s
	if s.History != nil {
		cloned.History = NewHistory(s.History.turns...)
	}
	return cloned
}
