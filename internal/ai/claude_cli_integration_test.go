//go:build integration

package ai_test

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/christopherklint97/bookr/internal/ai"
)

func skipIfNoClaude(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("claude"); err != nil {
		t.Skip("claude CLI not found in PATH, skipping integration test")
	}
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestClaudeCLI_Extract_Simple(t *testing.T) {
	skipIfNoClaude(t)

	cli := ai.NewClaudeCLI("haiku", testLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	e, err := cli.Extract(ctx, "Book a dentist appointment next Friday at 3pm")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	t.Logf("entities: %+v", e)

	if e.Department != "Dentistry" {
		t.Errorf("department = %q, want Dentistry", e.Department)
	}
	if e.DatePhrase == "" {
		t.Error("expected a date phrase")
	}
	if e.TimePhrase == "" {
		t.Error("expected a time phrase")
	}
}

func TestClaudeCLI_Extract_Ambiguous(t *testing.T) {
	skipIfNoClaude(t)

	cli := ai.NewClaudeCLI("haiku", testLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	e, err := cli.Extract(ctx, "can I come in sometime")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	t.Logf("entities: %+v", e)

	if e.Department != "" {
		t.Errorf("department = %q, want none", e.Department)
	}
}
