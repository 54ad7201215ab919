// Command chat is the terminal front end: one conversation per run.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/zhouzirui/code-companion/backend/internal/app"
	"github.com/zhouzirui/code-companion/backend/internal/config"
	"github.com/zhouzirui/code-companion/backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log)

	// no typing effect when piped
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Chat.TypingDelay = 0
	}

	services := app.New(cfg)
	if services.Controller == nil {
		log.Fatal().Str("provider", cfg.AI.Provider).Msg("model provider is not configured")
	}

	session, err := services.Sessions.CreateSession(ctx, "", 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start session")
	}

	t := newTerminal(os.Stdout, services.Controller, session.ID)
	t.printBanner(ctx)
	t.printTranscript(session.History.Turns())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) {
				log.Debug().Err(err).Msg("input closed")
			}
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		// Ctrl+C during a reply stops the playback, not the program.
		turnCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
		keepGoing, err := t.handle(turnCtx, input)
		cancel()

		if err != nil {
			t.printError(err)
		}
		if !keepGoing || ctx.Err() != nil {
			return
		}
	}
}
