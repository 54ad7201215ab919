// Package app assembles the services shared by the HTTP server and the
// terminal client.
package app

import (
	"github.com/zhouzirui/code-companion/backend/internal/config"
	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/service/ai"
	"github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/internal/service/prompt"
	"github.com/zhouzirui/code-companion/backend/internal/service/typing"
)

// App holds the wired services.
type App struct {
	Sessions *chat.Service
	// Controller is nil when the model provider is not configured.
	Controller *chat.Controller
}

// New wires the session registry and, when the provider is configured, the
// turn pipeline.
func New(cfg *config.Config) *App {
	logger := logging.Component("app")
	models := cfg.AI.Catalog()

	sessions := chat.NewService(models, chat.Settings{
		Greeting:      cfg.Chat.Greeting,
		ContextWindow: cfg.Chat.ContextWindow,
		ContextMin:    cfg.Chat.ContextMin,
		ContextMax:    cfg.Chat.ContextMax,
	})

	a := &App{Sessions: sessions}
	if !cfg.AI.Enabled() {
		logger.Warn().Str("provider", cfg.AI.Provider).Msg("model provider not configured, chat disabled")
		return a
	}

	inference := ai.NewService(cfg.AI.NewChatModel, models, ai.Options{Stream: cfg.AI.StreamResponse})
	a.Controller = chat.NewController(
		sessions,
		prompt.NewBuilder(cfg.Chat.SystemPrompt),
		inference,
		typing.NewPlayer(cfg.Chat.TypingDelay),
	)

	logger.Info().
		Str("provider", cfg.AI.Provider).
		Str("base_url", cfg.AI.BaseURL).
		Str("default_model", models.Default().ID).
		Bool("stream", cfg.AI.StreamResponse).
		Msg("chat pipeline ready")
	return a
}
