// Package pipeline turns appointment text or images into a guardrail result:
// OCR, entity extraction, normalization, guardrails, then history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/bookr/internal/ai"
	"github.com/christopherklint97/bookr/internal/guardrail"
	"github.com/christopherklint97/bookr/internal/normalize"
	"github.com/christopherklint97/bookr/internal/ocr"
	"github.com/christopherklint97/bookr/internal/store"
)

// TextConfidence is the OCR confidence reported for typed text.
const TextConfidence = 1.0

var ErrNoOCR = errors.New("pipeline: no OCR engine configured")

type OCR interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (*ocr.Result, error)
}

type Recorder interface {
	InsertRecord(ctx context.Context, r *store.Record) (string, error)
}

// Report carries every intermediate stage of one request.
type Report struct {
	ID            string            `json:"id,omitempty"`
	Source        string            `json:"source"`
	OCR           ocr.Result        `json:"ocr"`
	Entities      ai.Entities       `json:"entities"`
	Normalization normalize.Outcome `json:"normalization"`
	Result        guardrail.Result  `json:"result"`
	Reference     time.Time         `json:"reference"`
}

type Pipeline struct {
	extractor  ai.Extractor
	normalizer *normalize.Normalizer
	ocr        OCR
	recorder   Recorder
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Pipeline)

func WithOCR(o OCR) Option {
	return func(p *Pipeline) { p.ocr = o }
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock sets the source of reference instants.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(extractor ai.Extractor, normalizer *normalize.Normalizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		normalizer: normalizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

func (p *Pipeline) ParseText(ctx context.Context, text string) (*Report, error) {
	return p.run(ctx, store.SourceText, ocr.Result{Text: text, Confidence: TextConfidence})
}

func (p *Pipeline) ParseImage(ctx context.Context, image []byte, mimeType string) (*Report, error) {
	if p.ocr == nil {
		return nil, ErrNoOCR
	}
	res, err := p.ocr.ExtractText(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	return p.run(ctx, store.SourceImage, *res)
}

func (p *Pipeline) run(ctx context.Context, source string, text ocr.Result) (*Report, error) {
	ref := p.now().In(p.normalizer.Location())

	entities, err := p.extractor.Extract(ctx, text.Text)
	if err != nil {
		return nil, fmt.Errorf("extracting entities: %w", err)
	}

	outcome, err := p.normalizer.Normalize(entities.DatePhrase, entities.TimePhrase, ref)
	if err != nil {
		return nil, fmt.Errorf("normalizing: %w", err)
	}

	report := &Report{
		Source:        source,
		OCR:           text,
		Entities:      *entities,
		Normalization: outcome,
		Result:        guardrail.Decide(entities.Department, outcome),
		Reference:     ref,
	}

	p.logger.Info("appointment request processed",
		"source", source,
		"status", report.Result.Status,
		"message", report.Result.Message,
		"department", entities.Department,
		"entities_confidence", entities.Confidence,
	)

	if p.recorder != nil {
		id, err := p.recorder.InsertRecord(ctx, report.record())
		if err != nil {
			p.logger.Warn("failed to record request", "error", err)
		} else {
			report.ID = id
		}
	}

	return report, nil
}

func (r *Report) record() *store.Record {
	rec := &store.Record{
		Source:                  r.Source,
		RawText:                 r.OCR.Text,
		OCRConfidence:           r.OCR.Confidence,
		DatePhrase:              r.Entities.DatePhrase,
		TimePhrase:              r.Entities.TimePhrase,
		Department:              r.Entities.Department,
		EntitiesConfidence:      r.Entities.Confidence,
		NormalizationConfidence: r.Normalization.Confidence,
		Status:                  r.Result.Status,
		Message:                 r.Result.Message,
		ReferenceAt:             r.Reference,
	}
	if a := r.Result.Appointment; a != nil {
		rec.Date, rec.Time, rec.TZ = a.Date, a.Time, a.TZ
	}
	return rec
}
