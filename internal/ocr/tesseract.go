// Package ocr extracts text from appointment images with Tesseract.
package ocr

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultConfidence is reported when Tesseract finds no word boxes.
const DefaultConfidence = 0.6

// SupportedMimeTypes maps accepted image MIME types to a file extension.
var SupportedMimeTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/tiff": ".tiff",
	"image/bmp":  ".bmp",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Config struct {
	// TesseractPath is the tesseract executable.
	TesseractPath string
	// DataPath is the tessdata directory (optional).
	DataPath string
	// Languages, e.g. "eng" or "eng+hin".
	Languages string
}

func DefaultConfig() *Config {
	return &Config{
		TesseractPath: "tesseract",
		Languages:     "eng",
	}
}

type Result struct {
	Text       string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

type Client struct {
	config *Config
	logger *slog.Logger
}

func NewClient(config *Config, logger *slog.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{config: config, logger: logger}
}

// ExtractText runs Tesseract twice over the image: once for plain text and
// once for TSV word boxes, whose confidences are averaged.
func (c *Client) ExtractText(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	ext, ok := c.extension(mimeType)
	if !ok {
		return nil, errors.Errorf("unsupported MIME type: %s", mimeType)
	}

	tmpFile, err := os.CreateTemp("", "bookr_ocr_*"+ext)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(image); err != nil {
		tmpFile.Close()
		return nil, errors.Wrap(err, "failed to write temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close temp file")
	}

	text, err := c.run(ctx, tmpPath)
	if err != nil {
		return nil, err
	}
	tsv, err := c.run(ctx, tmpPath, "tsv")
	if err != nil {
		return nil, err
	}

	res := &Result{
		Text:       strings.TrimSpace(text),
		Confidence: MeanConfidence(tsv),
	}
	c.logger.Debug("ocr finished", "chars", len(res.Text), "confidence", res.Confidence)
	return res, nil
}

func (c *Client) run(ctx context.Context, imagePath string, configs ...string) (string, error) {
	args := []string{imagePath, "stdout"}
	if c.config.Languages != "" {
		args = append(args, "-l", c.config.Languages)
	}
	if c.config.DataPath != "" {
		args = append(args, "--tessdata-dir", c.config.DataPath)
	}
	args = append(args, configs...)

	cmd := exec.CommandContext(ctx, c.config.TesseractPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.logger.Warn("tesseract command failed", "error", err, "stderr", stderr.String())
		return "", errors.Wrap(err, "tesseract command failed")
	}
	return stdout.String(), nil
}

// MeanConfidence averages the non-negative word confidences of Tesseract TSV
// output, scaled to [0,1] and rounded to two decimals.
func MeanConfidence(tsv string) float64 {
	var sum float64
	var n int
	for i, line := range strings.Split(tsv, "\n") {
		if i == 0 || line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 11 {
			continue
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		if err != nil || conf < 0 {
			continue
		}
		sum += conf
		n++
	}
	if n == 0 {
		return DefaultConfidence
	}
	avg := math.Max(0, math.Min(1, sum/float64(n)/100))
	return math.Round(avg*100) / 100
}

// IsAvailable reports whether the tesseract executable runs.
func (c *Client) IsAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, c.config.TesseractPath, "--version")
	return cmd.Run() == nil
}

func (c *Client) IsSupported(mimeType string) bool {
	_, ok := c.extension(mimeType)
	return ok
}

func (c *Client) extension(mimeType string) (string, bool) {
	ext, ok := SupportedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ext, ok
}
