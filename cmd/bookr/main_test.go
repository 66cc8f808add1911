package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/bookr/internal/ai"
	"github.com/christopherklint97/bookr/internal/calendar"
	"github.com/christopherklint97/bookr/internal/config"
	"github.com/christopherklint97/bookr/internal/guardrail"
	"github.com/christopherklint97/bookr/internal/notify"
	"github.com/christopherklint97/bookr/internal/pipeline"
	"github.com/christopherklint97/bookr/internal/store"
)

const at = "2026-10-14T10:00:00+05:30"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BOOKR_TIMEZONE", "BOOKR_ADDR", "BOOKR_AI_PROVIDER", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "BOOKR_TESSERACT_PATH", "BOOKR_TESSDATA_PATH", "BOOKR_DB_PATH"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	data := fmt.Sprintf(`[store]
enabled = true
path = %q

[calendar]
ics_dir = %q

[notifications]
enabled = false
`, filepath.Join(dir, "bookr.db"), filepath.Join(dir, "ics"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestParseCommand(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, t.TempDir())

	out := execute(t, "parse", "--config", cfgPath, "--at", at, "--report=false", "Book dentist next Friday at 3pm")

	var res guardrail.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, guardrail.StatusOK, res.Status)
	require.NotNil(t, res.Appointment)
	assert.Equal(t, guardrail.Appointment{Department: "Dentistry", Date: "2026-10-16", Time: "15:00", TZ: "Asia/Kolkata"}, *res.Appointment)

	out = execute(t, "history", "--config", cfgPath, "--at", at, "--limit", "5")
	assert.Contains(t, out, "Dentistry")
	assert.Contains(t, out, "2026-10-16")
	assert.Contains(t, out, "ok")
}

func TestBookAndExport(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	db, err := store.Open(cfg.Store.Path)
	require.NoError(t, err)

	n, err := newNormalizer(cfg, nil)
	require.NoError(t, err)
	ref, _ := time.Parse(time.RFC3339, at)
	e := &env{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		now:      func() time.Time { return ref },
		db:       db,
		notifier: notify.Nop{},
		pipeline: pipeline.New(ai.NewRules(), n, pipeline.WithRecorder(db), pipeline.WithClock(func() time.Time { return ref })),
	}

	ctx := context.Background()
	report, err := e.pipeline.ParseText(ctx, "ENT on 2026-10-20 at 11:00 am")
	require.NoError(t, err)
	require.True(t, report.Result.OK())

	detail, err := e.book(ctx, report)
	require.NoError(t, err)
	assert.Contains(t, detail, "saved to history")
	assert.Contains(t, detail, filepath.Join(dir, "ics", report.ID+".ics"))

	rec, err := db.GetRecord(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, rec.Booked)
	e.Close()

	out := execute(t, "export", "--config", cfgPath, "--at", at, "--out", "")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "UID:"+report.ID+"@bookr")
	assert.Contains(t, out, "SUMMARY:ENT appointment")
}

func TestBook_RejectsClarification(t *testing.T) {
	e := &env{cfg: &config.Config{}}
	_, err := e.book(context.Background(), &pipeline.Report{Result: guardrail.Clarify("Invalid or missing date")})
	assert.ErrorContains(t, err, "Invalid or missing date")
}

func TestConflicts_NoSource(t *testing.T) {
	cfg := config.DefaultConfig()
	e := &env{cfg: &cfg}
	got, err := e.conflicts(context.Background(), &pipeline.Report{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConflicts_FromSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.ics")
	ics := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\nUID:standup@test\r\nDTSTAMP:20261001T000000Z\r\nSUMMARY:Team standup\r\n" +
		"DTSTART:20261015T091500Z\r\nDTEND:20261015T094500Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"
	require.NoError(t, os.WriteFile(path, []byte(ics), 0644))

	cfg := config.DefaultConfig()
	e := &env{cfg: &cfg, calendar: calendar.NewCache(path, time.Minute)}

	got, err := e.conflicts(context.Background(), &pipeline.Report{Result: guardrail.Result{
		Status:      guardrail.StatusOK,
		Appointment: &guardrail.Appointment{Department: "Dentistry", Date: "2026-10-15", Time: "15:00", TZ: "Asia/Kolkata"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Team standup (14:45-15:15)", got)
}

func TestNewExtractor(t *testing.T) {
	cfg := config.DefaultConfig()

	x, err := newExtractor(&cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ai.Rules{}, x)

	cfg.AI.Provider = config.ProviderClaudeCLI
	x, err = newExtractor(&cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ai.Fallback{}, x)

	cfg.AI.Provider = config.ProviderOpenAI
	_, err = newExtractor(&cfg, nil)
	assert.Error(t, err)

	cfg.AI.APIKey = "sk-test"
	x, err = newExtractor(&cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ai.Fallback{}, x)
}

func TestReferenceClock(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("at", "", "")
		return c
	}

	c := newCmd()
	now, err := referenceClock(c)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now(), time.Minute)

	c = newCmd()
	require.NoError(t, c.Flags().Set("at", at))
	now, err = referenceClock(c)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14T04:30:00Z", now().UTC().Format(time.RFC3339))

	c = newCmd()
	require.NoError(t, c.Flags().Set("at", "tomorrow"))
	_, err = referenceClock(c)
	assert.ErrorContains(t, err, "RFC3339")
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	assert.Equal(t, "image/tiff", detectMIME("scan.TIFF", nil))
	assert.Equal(t, "image/jpeg", detectMIME("note.jpg", nil))
	assert.Equal(t, "image/png", detectMIME("upload", png))
	assert.True(t, strings.HasPrefix(detectMIME("note.txt", []byte("hello")), "text/plain"))
}

func TestReadInput(t *testing.T) {
	c := &cobra.Command{}

	got, err := readInput(c, []string{"dentist", "tomorrow"})
	require.NoError(t, err)
	assert.Equal(t, "dentist tomorrow", got)

	c.SetIn(strings.NewReader("  ENT at 5pm\n"))
	got, err = readInput(c, nil)
	require.NoError(t, err)
	assert.Equal(t, "ENT at 5pm", got)
}
