// Package prompt turns a conversation history into the message sequence
// sent to the chat model: one system instruction followed by the most
// recent turns.
package prompt

import (
	"context"
	"fmt"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
)

const (
	systemKey  = "system"
	historyKey = "history"
)

// Window returns the last k turns of history in their original order.
// Fewer than k turns are returned whole; k <= 0 yields an empty window.
// The window counts raw turns, not user/ai exchanges.
func Window(history []chat.Turn, k int) []chat.Turn {
	if k <= 0 || len(history) == 0 {
		return []chat.Turn{}
	}

	start := 0
	if len(history) > k {
		start = len(history) - k
	}

	window := make([]chat.Turn, len(history)-start)
	copy(window, history[start:])
	return window
}

// ToMessages maps turns onto chat-model roles: user turns become user
// (human) messages and ai turns become assistant messages. Content is
// passed through untouched.
func ToMessages(turns []chat.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case chat.RoleAI:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}

// Builder formats the prompt window through an eino chat template.
type Builder struct {
	system   string
	template einoprompt.ChatTemplate
}

// NewBuilder creates a builder with the fixed system instruction.
func NewBuilder(system string) *Builder {
	// History goes through a placeholder so braces typed by the user are
	// never read as template variables.
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{"+systemKey+"}"),
		schema.MessagesPlaceholder(historyKey, true),
	)

	return &Builder{system: system, template: template}
}

// System returns the system instruction the builder prepends.
func (b *Builder) System() string {
	return b.system
}

// Build produces [system] + templated last-k turns of history.
func (b *Builder) Build(ctx context.Context, history []chat.Turn, k int) ([]*schema.Message, error) {
	messages, err := b.template.Format(ctx, map[string]any{
		systemKey:  b.system,
		historyKey: ToMessages(Window(history, k)),
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt window: %w", err)
	}
	return messages, nil
}
