package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/internal/service/typing"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#34D399")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)
)

const helpText = `Commands:
  /model <id>      switch model (see /models)
  /models          list available models
  /window <n>      set how many recent turns the model sees
  /clear           start over from the greeting
  /export [path]   save the history (default chat_history.json)
  /import <path>   replace the history with an exported file
  /history         print the whole conversation
  /help            show this help
  /quit            leave`

// command is a parsed slash command.
type command struct {
	name string
	arg  string
}

// parseCommand splits "/name arg" input. ok is false for plain messages.
func parseCommand(input string) (command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(input[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

// terminal drives one session from a line-oriented console.
type terminal struct {
	out        io.Writer
	sessions   *chatService.Service
	controller *chatService.Controller
	sessionID  string

	// shown is what the current reply has printed so far; playing is set
	// once playback of that reply has started.
	shown   string
	playing bool
}

func newTerminal(out io.Writer, controller *chatService.Controller, sessionID string) *terminal {
	return &terminal{
		out:        out,
		sessions:   controller.Sessions(),
		controller: controller,
		sessionID:  sessionID,
	}
}

// handle runs one line of input. It returns false when the user quits.
func (t *terminal) handle(ctx context.Context, input string) (bool, error) {
	cmd, ok := parseCommand(input)
	if !ok {
		return true, t.send(ctx, input)
	}

	switch cmd.name {
	case "quit", "exit", "q":
		return false, nil
	case "help":
		fmt.Fprintln(t.out, infoStyle.Render(helpText))
	case "models":
		t.printModels(ctx)
	case "model":
		if cmd.arg == "" {
			return true, errors.New("usage: /model <id>")
		}
		session, err := t.sessions.Configure(ctx, t.sessionID, cmd.arg, 0)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(t.out, infoStyle.Render("model: "+session.Model))
	case "window":
		size, err := strconv.Atoi(cmd.arg)
		if err != nil {
			return true, fmt.Errorf("usage: /window <n>")
		}
		session, err := t.sessions.Configure(ctx, t.sessionID, "", size)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(t.out, infoStyle.Render(fmt.Sprintf("context window: %d turns", session.ContextSize)))
	case "clear":
		if _, err := t.controller.Clear(ctx, t.sessionID, t); err != nil {
			return true, err
		}
	case "export":
		return true, t.export(ctx, cmd.arg)
	case "import":
		return true, t.importFile(ctx, cmd.arg)
	case "history":
		turns, err := t.sessions.Transcript(ctx, t.sessionID)
		if err != nil {
			return true, err
		}
		t.printTranscript(turns)
	default:
		return true, fmt.Errorf("unknown command /%s, try /help", cmd.name)
	}
	return true, nil
}

func (t *terminal) send(ctx context.Context, text string) error {
	t.shown, t.playing = "", false
	fmt.Fprint(t.out, aiStyle.Render("ai> "))
	_, err := t.controller.Submit(ctx, t.sessionID, text, t)
	if err != nil {
		fmt.Fprintln(t.out)
		return err
	}
	if t.playing {
		// playback was interrupted before the transcript refresh
		fmt.Fprintln(t.out)
		t.shown, t.playing = "", false
	}
	return nil
}

// Render prints only the characters the previous frame did not show.
func (t *terminal) Render(partial string) error {
	t.playing = true
	_, err := fmt.Fprint(t.out, typing.Suffix(t.shown, partial))
	t.shown = partial
	return err
}

// Refresh ends a typed-out reply, or reprints the transcript when nothing
// was being typed (after /clear).
func (t *terminal) Refresh(turns []chat.Turn) error {
	if t.playing {
		t.shown, t.playing = "", false
		_, err := fmt.Fprintln(t.out)
		return err
	}
	t.printTranscript(turns)
	return nil
}

func (t *terminal) printBanner(ctx context.Context) {
	fmt.Fprintln(t.out, titleStyle.Render("🧠 AI Code Companion"))
	fmt.Fprintln(t.out, infoStyle.Render("🚀 Your AI Pair Programmer with Debugging Superpowers"))
	if session, err := t.sessions.GetSession(ctx, t.sessionID); err == nil {
		fmt.Fprintln(t.out, infoStyle.Render(fmt.Sprintf("model %s, context window %d, /help for commands", session.Model, session.ContextSize)))
	}
	fmt.Fprintln(t.out)
}

func (t *terminal) printTranscript(turns []chat.Turn) {
	for _, turn := range turns {
		if turn.Role == chat.RoleUser {
			fmt.Fprintln(t.out, userStyle.Render("you> ")+turn.Content)
		} else {
			fmt.Fprintln(t.out, aiStyle.Render("ai> ")+turn.Content)
		}
	}
}

func (t *terminal) printModels(ctx context.Context) {
	current := ""
	if session, err := t.sessions.GetSession(ctx, t.sessionID); err == nil {
		current = session.Model
	}
	for _, option := range t.sessions.Models().List() {
		marker := "  "
		if option.ID == current {
			marker = "* "
		}
		fmt.Fprintln(t.out, infoStyle.Render(marker+option.ID+"  "+option.Label))
	}
}

func (t *terminal) export(ctx context.Context, path string) error {
	if path == "" {
		path = "chat_history.json"
	}
	data, err := t.sessions.Export(ctx, t.sessionID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(t.out, infoStyle.Render("history saved to "+path))
	return nil
}

func (t *terminal) importFile(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: /import <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	session, err := t.sessions.Import(ctx, t.sessionID, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(t.out, infoStyle.Render(fmt.Sprintf("imported %d turns", session.History.Len())))
	return nil
}

func (t *terminal) printError(err error) {
	fmt.Fprintln(t.out, errorStyle.Render("error: ")+err.Error())
}
