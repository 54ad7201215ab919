package chat

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
	"github.com/zhouzirui/code-companion/backend/internal/service/ai"
	"github.com/zhouzirui/code-companion/backend/internal/service/prompt"
	"github.com/zhouzirui/code-companion/backend/internal/service/typing"
)

// Inference produces the model's reply for a prompt window.
type Inference interface {
	Invoke(ctx context.Context, modelID string, messages []*schema.Message) (*schema.Message, error)
}

// Display shows a conversation: it plays back new replies and redraws the
// whole transcript afterwards.
type Display interface {
	typing.Renderer
	Refresh(turns []chat.Turn) error
}

// Controller runs one conversation turn end to end:
// user text -> history -> prompt window -> model -> history -> display.
type Controller struct {
	sessions  *Service
	prompts   *prompt.Builder
	inference Inference
	player    *typing.Player
	logger    zerolog.Logger
}

// NewController wires the turn pipeline.
func NewController(sessions *Service, prompts *prompt.Builder, inference Inference, player *typing.Player) *Controller {
	return &Controller{
		sessions:  sessions,
		prompts:   prompts,
		inference: inference,
		player:    player,
		logger:    logging.Component("controller"),
	}
}

// Sessions exposes the registry the controller works on.
func (c *Controller) Sessions() *Service {
	return c.sessions
}

// Submit processes one user message and returns the full reply. The
// session accepts no other message until Submit returns. When inference
// fails the turn is abandoned: the user message stays in the history and
// the error is returned. A nil display skips playback.
func (c *Controller) Submit(ctx context.Context, sessionID, text string, display Display) (string, error) {
	session, err := c.sessions.BeginTurn(ctx, sessionID, text)
	if err != nil {
		return "", err
	}

	reply, err := c.respond(ctx, session)
	if err != nil {
		if abortErr := c.sessions.AbortTurn(context.WithoutCancel(ctx), sessionID); abortErr != nil {
			c.logger.Warn().Err(abortErr).Str("session", sessionID).Msg("failed to reset session state")
		}
		return "", err
	}

	updated, err := c.sessions.CompleteTurn(context.WithoutCancel(ctx), sessionID, reply)
	if err != nil {
		return "", err
	}

	c.logger.Info().
		Str("session", sessionID).
		Str("model", session.Model).
		Int("window", session.ContextSize).
		Int("turns", updated.History.Len()).
		Int("length", len(reply)).
		Msg("turn completed")

	if display != nil {
		c.show(ctx, sessionID, reply, updated.History.Turns(), display)
	}
	return reply, nil
}

// Clear resets the session to its greeting and redraws the display.
func (c *Controller) Clear(ctx context.Context, sessionID string, display Display) (chat.Session, error) {
	session, err := c.sessions.Clear(ctx, sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	if display != nil {
		if err := display.Refresh(session.History.Turns()); err != nil {
			c.logger.Debug().Err(err).Str("session", sessionID).Msg("refresh after clear failed")
		}
	}
	return session, nil
}

// respond runs the three pipeline steps: build the prompt window, invoke
// the model, extract the text.
func (c *Controller) respond(ctx context.Context, session chat.Session) (string, error) {
	messages, err := c.prompts.Build(ctx, session.History.Turns(), session.ContextSize)
	if err != nil {
		return "", err
	}

	response, err := c.inference.Invoke(ctx, session.Model, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInferenceFailed, err)
	}
	return ai.ExtractText(response), nil
}

func (c *Controller) show(ctx context.Context, sessionID, reply string, turns []chat.Turn, display Display) {
	if _, err := c.player.Play(ctx, reply, display); err != nil {
		c.logger.Debug().Err(err).Str("session", sessionID).Msg("playback interrupted")
		return
	}
	if err := display.Refresh(turns); err != nil {
		c.logger.Debug().Err(err).Str("session", sessionID).Msg("refresh failed")
	}
}
