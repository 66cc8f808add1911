package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t96.5\tDentist\n" +
	"5\t1\t1\t1\t1\t2\t70\t10\t50\t20\t88\ttomorrow\n" +
	"5\t1\t1\t1\t1\t3\t130\t10\t30\t20\t91.25\t3pm\n"

// fakeTesseract writes a script that prints sampleTSV when asked for tsv
// output and plain text otherwise.
func fakeTesseract(t *testing.T, fail bool) string {
	t.Helper()
	dir := t.TempDir()
	tsvPath := filepath.Join(dir, "out.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte(sampleTSV), 0o644))

	script := "#!/bin/sh\n"
	if fail {
		script += "echo 'Error opening data file' >&2\nexit 1\n"
	}
	script += "for a in \"$@\"; do last=$a; done\n" +
		"if [ \"$last\" = tsv ]; then cat " + tsvPath + "; else printf 'Dentist tomorrow 3pm\\n\\n'; fi\n"

	path := filepath.Join(dir, "tesseract")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "tesseract", config.TesseractPath)
	assert.Equal(t, "", config.DataPath)
	assert.Equal(t, "eng", config.Languages)
}

func TestIsSupported(t *testing.T) {
	client := NewClient(nil, nil)

	for _, mimeType := range []string{"image/png", "image/jpeg", "IMAGE/JPG", "image/tiff", "image/bmp", "image/gif", "image/webp"} {
		t.Run(mimeType, func(t *testing.T) {
			assert.True(t, client.IsSupported(mimeType))
		})
	}
	for _, mimeType := range []string{"application/pdf", "text/plain", "image/svg+xml", ""} {
		t.Run("unsupported "+mimeType, func(t *testing.T) {
			assert.False(t, client.IsSupported(mimeType))
		})
	}
}

func TestMeanConfidence(t *testing.T) {
	tests := []struct {
		name string
		tsv  string
		want float64
	}{
		{"words", sampleTSV, 0.92},
		{"empty", "", DefaultConfidence},
		{"header only", "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n", DefaultConfidence},
		{"only non-word boxes", "header\n1\t1\t0\t0\t0\t0\t0\t0\t1\t1\t-1\t\n", DefaultConfidence},
		{"clamped", "header\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t250\tx\n", 1},
		{"garbage rows skipped", "header\nnot a row\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t50\tx\n", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeanConfidence(tt.tsv))
		})
	}
}

func TestExtractText(t *testing.T) {
	client := NewClient(&Config{TesseractPath: fakeTesseract(t, false), Languages: "eng"}, nil)

	res, err := client.ExtractText(context.Background(), []byte("fake png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Dentist tomorrow 3pm", res.Text)
	assert.Equal(t, 0.92, res.Confidence)
}

func TestExtractText_Errors(t *testing.T) {
	t.Run("unsupported type", func(t *testing.T) {
		client := NewClient(nil, nil)
		_, err := client.ExtractText(context.Background(), []byte("%PDF"), "application/pdf")
		assert.ErrorContains(t, err, "unsupported MIME type")
	})

	t.Run("tesseract fails", func(t *testing.T) {
		client := NewClient(&Config{TesseractPath: fakeTesseract(t, true)}, nil)
		_, err := client.ExtractText(context.Background(), []byte("x"), "image/jpeg")
		assert.ErrorContains(t, err, "tesseract command failed")
	})

	t.Run("not installed", func(t *testing.T) {
		client := NewClient(&Config{TesseractPath: filepath.Join(t.TempDir(), "missing")}, nil)
		assert.False(t, client.IsAvailable(context.Background()))
	})
}
