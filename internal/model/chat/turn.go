package chat

import "fmt"

// Role tags who produced a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Valid reports whether the role is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAI
}

// Turn is one message in the conversation. Turns are values and never
// mutated after they are appended to a History.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn builds a turn typed by the user.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AITurn builds a turn produced by the model.
func AITurn(content string) Turn {
	return Turn{Role: RoleAI, Content: content}
}

// Validate rejects turns with an unknown role.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("invalid turn role %q", t.Role)
	}
	return nil
}
