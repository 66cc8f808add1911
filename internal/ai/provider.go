package ai

import (
	"context"
	"io"
	"log/slog"
)

// Extractor finds the date phrase, time phrase and department in text.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Entities, error)
}

// Fallback uses Secondary whenever Primary fails.
type Fallback struct {
	Primary   Extractor
	Secondary Extractor
	logger    *slog.Logger
}

func NewFallback(primary, secondary Extractor, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fallback{Primary: primary, Secondary: secondary, logger: logger}
}

func (f *Fallback) Extract(ctx context.Context, text string) (*Entities, error) {
	e, err := f.Primary.Extract(ctx, text)
	if err == nil {
		return e, nil
	}
	f.logger.Warn("primary extractor failed, falling back", "error", err)
	return f.Secondary.Extract(ctx, text)
}
