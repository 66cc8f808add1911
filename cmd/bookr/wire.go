package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/bookr/internal/ai"
	"github.com/christopherklint97/bookr/internal/calendar"
	"github.com/christopherklint97/bookr/internal/config"
	"github.com/christopherklint97/bookr/internal/normalize"
	"github.com/christopherklint97/bookr/internal/notify"
	"github.com/christopherklint97/bookr/internal/ocr"
	"github.com/christopherklint97/bookr/internal/pipeline"
	"github.com/christopherklint97/bookr/internal/store"
)

// env holds everything a command needs, built from config and global flags.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	now      func() time.Time
	db       *store.DB
	pipeline *pipeline.Pipeline
	notifier notify.Notifier
	calendar *calendar.Cache
}

const calendarCacheTTL = 5 * time.Minute

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config (run 'bookr config' to edit it): %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// referenceClock returns the --at instant when given, time.Now otherwise.
func referenceClock(cmd *cobra.Command) (func() time.Time, error) {
	at, _ := cmd.Flags().GetString("at")
	if at == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return nil, fmt.Errorf("--at %q: want RFC3339, e.g. 2026-10-14T10:00:00+05:30", at)
	}
	return func() time.Time { return t }, nil
}

func newExtractor(cfg *config.Config, logger *slog.Logger) (ai.Extractor, error) {
	rules := ai.NewRules()

	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		o, err := ai.NewOpenAI(ai.OpenAIConfig{
			APIKey:     cfg.AI.APIKey,
			BaseURL:    cfg.AI.BaseURL,
			Model:      cfg.AI.Model,
			MaxRetries: -1,
		}, logger)
		if err != nil {
			return nil, err
		}
		return ai.NewFallback(o, rules, logger), nil
	case config.ProviderClaudeCLI:
		c := ai.NewClaudeCLI(cfg.AI.Model, logger)
		if cfg.AI.ClaudeCommand != "" {
			c.Command = cfg.AI.ClaudeCommand
		}
		return ai.NewFallback(c, rules, logger), nil
	default:
		return rules, nil
	}
}

func newNormalizer(cfg *config.Config, logger *slog.Logger) (*normalize.Normalizer, error) {
	clock, err := normalize.ParseDefaultClock(cfg.Normalize.DefaultTime)
	if err != nil {
		return nil, err
	}
	return normalize.New(cfg.Normalize.Timezone,
		normalize.WithDefaultClock(clock),
		normalize.WithLogger(logger),
	)
}

func newEnv(cmd *cobra.Command, level slog.Level) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, level)

	now, err := referenceClock(cmd)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}
	normalizer, err := newNormalizer(cfg, logger)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:      cfg,
		logger:   logger,
		now:      now,
		notifier: notify.New(cfg.Notifications.Enabled),
	}
	if cfg.Calendar.Source != "" {
		e.calendar = calendar.NewCache(cfg.Calendar.Source, calendarCacheTTL)
	}

	opts := []pipeline.Option{
		pipeline.WithOCR(ocr.NewClient(&ocr.Config{
			TesseractPath: cfg.OCR.TesseractPath,
			DataPath:      cfg.OCR.DataPath,
			Languages:     cfg.OCR.Languages,
		}, logger)),
		pipeline.WithClock(now),
		pipeline.WithLogger(logger),
	}
	if cfg.Store.Enabled {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		e.db = db
		opts = append(opts, pipeline.WithRecorder(db))
	}

	e.pipeline = pipeline.New(extractor, normalizer, opts...)
	return e, nil
}

// book marks the record booked, writes an ICS file when configured and
// sends a desktop notification. It returns a summary of what was done.
func (e *env) book(ctx context.Context, r *pipeline.Report) (string, error) {
	if !r.Result.OK() {
		return "", fmt.Errorf("cannot book: %s", r.Result.Message)
	}

	var done []string
	if e.db != nil && r.ID != "" {
		if err := e.db.MarkBooked(ctx, r.ID); err != nil {
			return "", fmt.Errorf("marking booked: %w", err)
		}
		done = append(done, "saved to history")
	}

	if dir := e.cfg.Calendar.ICSDir; dir != "" {
		appt, err := calendar.FromResult(r.ID, r.Result.Appointment, e.cfg.AppointmentDuration())
		if err != nil {
			return "", err
		}
		path, err := calendar.WriteFile(dir, appt)
		if err != nil {
			return "", err
		}
		done = append(done, "wrote "+path)
	}

	if err := notify.Booked(e.notifier, r.Result.Appointment); err != nil {
		e.logger.Warn("desktop notification failed", "error", err)
	}

	return strings.Join(done, ", "), nil
}

// conflicts describes calendar events overlapping an ok report. It is a
// no-op without a configured calendar source.
func (e *env) conflicts(ctx context.Context, r *pipeline.Report) (string, error) {
	if e.calendar == nil || !r.Result.OK() {
		return "", nil
	}
	appt, err := calendar.FromResult(r.ID, r.Result.Appointment, e.cfg.AppointmentDuration())
	if err != nil {
		return "", err
	}
	events, err := e.calendar.Conflicts(ctx, appt)
	if err != nil {
		return "", err
	}
	return calendar.Describe(events), nil
}

// detectMIME prefers the file extension and falls back to content sniffing.
// TIFF is not sniffed by net/http, so the extension matters there.
func detectMIME(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
