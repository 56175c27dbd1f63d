package commands

import (
	"errors"
	"testing"

	"github.com/diogo/advisor/internal/config"
	"github.com/diogo/advisor/internal/models"
)

func TestChatCommand_RunsTUI(t *testing.T) {
	td := newTestDeps()
	tui := td.TUI.(*fakeTUI)

	if err := td.run("chat", "--currency", "gbp"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if tui.calls != 1 {
		t.Fatalf("TUI calls = %d, want 1", tui.calls)
	}
	if tui.orch.Currency() != "gbp" {
		t.Errorf("currency = %s, want gbp", tui.orch.Currency())
	}

	snap := tui.orch.Transcript().Snapshot()
	if snap.Len() != 1 || snap.Messages[0] != models.NewSystemMessage(models.GreetingText) {
		t.Errorf("transcript should start with the greeting, got %v", snap.Messages)
	}
}

func TestChatCommand_CustomGreeting(t *testing.T) {
	td := newTestDeps()
	tui := td.TUI.(*fakeTUI)
	base := td.LoadConfig
	td.LoadConfig = func() (cfg config.Config, err error) {
		cfg, err = base()
		cfg.Greeting = "Welcome back"
		return cfg, err
	}

	if err := td.run("chat"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	last, _ := tui.orch.Transcript().Last()
	if last.Content != "Welcome back" {
		t.Errorf("greeting = %q", last.Content)
	}
}

func TestChatCommand_TUIError(t *testing.T) {
	td := newTestDeps()
	td.TUI.(*fakeTUI).err = errors.New("no tty")

	if err := td.run("chat"); err == nil {
		t.Fatal("expected TUI error to propagate")
	}
}
