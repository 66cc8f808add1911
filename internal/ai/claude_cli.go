package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// cleanEnv returns os.Environ() with Claude Code session vars removed
// so the subprocess doesn't get blocked by the nested-session check.
func cleanEnv() []string {
	blocked := map[string]bool{
		"CLAUDECODE":                           true,
		"CLAUDE_CODE_ENTRYPOINT":               true,
		"CLAUDE_CODE_EXPERIMENTAL_AGENT_TEAMS": true,
	}
	var env []string
	for _, e := range os.Environ() {
		key, _, _ := strings.Cut(e, "=")
		if !blocked[key] {
			env = append(env, e)
		}
	}
	return env
}

type ClaudeCLI struct {
	Model   string
	Command string // defaults to "claude" on PATH
	logger  *slog.Logger
}

func NewClaudeCLI(model string, logger *slog.Logger) *ClaudeCLI {
	if model == "" {
		model = "haiku"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ClaudeCLI{Model: model, Command: "claude", logger: logger}
}

func (c *ClaudeCLI) Extract(ctx context.Context, text string) (*Entities, error) {
	systemPrompt := buildSystemPrompt()
	userPrompt := buildUserPrompt(text)
	schema := schemaJSON()

	args := []string{
		"-p", userPrompt,
		"--output-format", "json",
		"--model", c.Model,
		"--system-prompt", systemPrompt,
		"--json-schema", schema,
		"--no-session-persistence",
		"--effort", "low",
	}

	c.logger.Debug("invoking claude CLI",
		"model", c.Model,
		"system_prompt_len", len(systemPrompt),
		"user_prompt_len", len(userPrompt),
		"schema_len", len(schema),
	)

	result, err := c.runCLI(ctx, args)
	if err != nil {
		return nil, err
	}

	var x extraction
	if err := json.Unmarshal([]byte(result), &x); err != nil {
		c.logger.Error("failed to parse extraction",
			"error", err,
			"raw", truncateStr(result, 2000),
		)
		return nil, fmt.Errorf("parsing extraction: %w (raw: %s)", err, truncateStr(result, 1000))
	}

	e := x.entities()
	c.logger.Debug("parsed extraction",
		"date_phrase", e.DatePhrase,
		"time_phrase", e.TimePhrase,
		"department", e.Department,
	)
	return e, nil
}

// runCLI runs the CLI and returns the unwrapped JSON payload.
func (c *ClaudeCLI) runCLI(ctx context.Context, args []string) (string, error) {
	command := c.Command
	if command == "" {
		command = "claude"
	}
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = cleanEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startTime := time.Now()
	err := cmd.Run()
	elapsed := time.Since(startTime)

	c.logger.Debug("claude CLI finished",
		"elapsed", elapsed,
		"stdout_bytes", stdout.Len(),
		"stderr_bytes", stderr.Len(),
		"error", err,
	)

	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude CLI timed out after %s", elapsed.Truncate(time.Second))
		}
		return "", fmt.Errorf("running claude CLI: %w (stderr: %s)", err, stderr.String())
	}

	return unwrapEnvelope(stdout.Bytes()), nil
}

// unwrapEnvelope extracts the payload from claude's --output-format json
// envelope, preferring structured_output over result.
func unwrapEnvelope(out []byte) string {
	var wrapper struct {
		Result           json.RawMessage `json:"result"`
		StructuredOutput json.RawMessage `json:"structured_output"`
	}
	if err := json.Unmarshal(out, &wrapper); err != nil {
		return string(out)
	}

	if len(wrapper.StructuredOutput) > 0 && wrapper.StructuredOutput[0] == '{' {
		return string(wrapper.StructuredOutput)
	}

	if len(wrapper.Result) > 0 {
		// result is either an escaped JSON string or the object itself
		var s string
		if err := json.Unmarshal(wrapper.Result, &s); err == nil && s != "" {
			return s
		}
		if wrapper.Result[0] == '{' {
			return string(wrapper.Result)
		}
	}

	return string(out)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
