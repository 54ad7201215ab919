package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/code-companion/backend/internal/model/catalog"
	model "github.com/zhouzirui/code-companion/backend/internal/model/chat"
	chat "github.com/zhouzirui/code-companion/backend/internal/service/chat"
)

const greeting = "Hi! I'm DeepSeek. How can I help you code today? 💻"

func newTestService() *chat.Service {
	return chat.NewService(
		catalog.NewMemoryStore(catalog.Seed(), catalog.DefaultModelID),
		chat.Settings{Greeting: greeting, ContextWindow: 5, ContextMin: 2, ContextMax: 20},
	)
}

func TestServiceGetSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "", 0)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.Model != catalog.DefaultModelID {
		t.Fatalf("unexpected model: got %s", got.Model)
	}
	if got.ContextSize != 5 {
		t.Fatalf("unexpected context size: got %d", got.ContextSize)
	}
	if got.State != model.StateIdle {
		t.Fatalf("unexpected state: %s", got.State)
	}
	turns := got.History.Turns()
	if len(turns) != 1 || turns[0] != model.AITurn(greeting) {
		t.Fatalf("expected greeting only, got %+v", turns)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceCreateSessionValidates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, "gpt-4", 5); !errors.Is(err, chat.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, "", 1); !errors.Is(err, chat.ErrInvalidContextSize) {
		t.Fatalf("expected ErrInvalidContextSize, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, "deepseek-r1:3b", 20); err != nil {
		t.Fatalf("expected upper bound to be accepted, got %v", err)
	}
}

func TestServiceTurnStateMachine(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "", 0)

	begun, err := svc.BeginTurn(ctx, session.ID, "fix this bug")
	if err != nil {
		t.Fatalf("BeginTurn err: %v", err)
	}
	if begun.State != model.StateAwaitingResponse {
		t.Fatalf("expected awaiting state, got %s", begun.State)
	}

	if _, err := svc.BeginTurn(ctx, session.ID, "again"); !errors.Is(err, chat.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if _, err := svc.Clear(ctx, session.ID); !errors.Is(err, chat.ErrSessionBusy) {
		t.Fatalf("expected clear to be rejected while busy, got %v", err)
	}

	done, err := svc.CompleteTurn(ctx, session.ID, "Try X")
	if err != nil {
		t.Fatalf("CompleteTurn err: %v", err)
	}
	if done.State != model.StateIdle {
		t.Fatalf("expected idle state, got %s", done.State)
	}

	want := []model.Turn{model.AITurn(greeting), model.UserTurn("fix this bug"), model.AITurn("Try X")}
	got := done.History.Turns()
	if len(got) != len(want) {
		t.Fatalf("unexpected history: %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: got %+v want %+v", i, got[i], want[i])
		}
	}

	if _, err := svc.CompleteTurn(ctx, session.ID, "stray"); err == nil {
		t.Fatal("expected CompleteTurn on idle session to fail")
	}
}

func TestServiceBeginTurnRejectsEmpty(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "", 0)

	if _, err := svc.BeginTurn(ctx, session.ID, "  \n"); !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	turns, _ := svc.Transcript(ctx, session.ID)
	if len(turns) != 1 {
		t.Fatalf("empty message must not change history, got %d turns", len(turns))
	}
}

func TestServiceClearResetsToGreeting(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "", 0)

	for _, msg := range []string{"one", "two", "three"} {
		if _, err := svc.BeginTurn(ctx, session.ID, msg); err != nil {
			t.Fatalf("BeginTurn err: %v", err)
		}
		if _, err := svc.CompleteTurn(ctx, session.ID, "reply to "+msg); err != nil {
			t.Fatalf("CompleteTurn err: %v", err)
		}
	}

	cleared, err := svc.Clear(ctx, session.ID)
	if err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	turns := cleared.History.Turns()
	if len(turns) != 1 || turns[0] != model.AITurn(greeting) {
		t.Fatalf("expected single greeting after clear, got %+v", turns)
	}
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	source, _ := svc.CreateSession(ctx, "", 0)
	svc.BeginTurn(ctx, source.ID, "why is {x} nil?")
	svc.CompleteTurn(ctx, source.ID, "Print x before use.")

	data, err := svc.Export(ctx, source.ID)
	if err != nil {
		t.Fatalf("Export err: %v", err)
	}

	again, _ := svc.Export(ctx, source.ID)
	if string(again) != string(data) {
		t.Fatal("export must be repeatable without side effects")
	}

	target, _ := svc.CreateSession(ctx, "", 0)
	imported, err := svc.Import(ctx, target.ID, data)
	if err != nil {
		t.Fatalf("Import err: %v", err)
	}

	want, _ := svc.Transcript(ctx, source.ID)
	got := imported.History.Turns()
	if len(got) != len(want) {
		t.Fatalf("round trip length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestServiceImportRejectsEmptyAndInvalid(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "", 0)

	if _, err := svc.Import(ctx, session.ID, []byte(`[]`)); !errors.Is(err, chat.ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
	if _, err := svc.Import(ctx, session.ID, []byte(`[{"role":"robot","content":"x"}]`)); err == nil {
		t.Fatal("expected invalid role to be rejected")
	}
}

func TestServiceConfigure(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "", 0)

	updated, err := svc.Configure(ctx, session.ID, "deepseek-r1:3b", 0)
	if err != nil {
		t.Fatalf("Configure err: %v", err)
	}
	if updated.Model != "deepseek-r1:3b" || updated.ContextSize != 5 {
		t.Fatalf("unexpected settings: %+v", updated)
	}

	updated, err = svc.Configure(ctx, session.ID, "", 12)
	if err != nil {
		t.Fatalf("Configure err: %v", err)
	}
	if updated.Model != "deepseek-r1:3b" || updated.ContextSize != 12 {
		t.Fatalf("unexpected settings: %+v", updated)
	}

	if _, err := svc.Configure(ctx, session.ID, "", 21); !errors.Is(err, chat.ErrInvalidContextSize) {
		t.Fatalf("expected ErrInvalidContextSize, got %v", err)
	}
}

func TestServiceDeleteSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "", 0)

	if err := svc.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected deleted session to be gone, got %v", err)
	}
	if err := svc.DeleteSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
