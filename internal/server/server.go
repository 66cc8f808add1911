// Package server exposes the appointment pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/christopherklint97/bookr/internal/pipeline"
)

const (
	Version = "1.0.0"

	msgNotAnImage = "File must be an image (PNG, JPEG, TIFF, or BMP)"
)

type Parser interface {
	ParseText(ctx context.Context, text string) (*pipeline.Report, error)
	ParseImage(ctx context.Context, image []byte, mimeType string) (*pipeline.Report, error)
}

type Config struct {
	Addr            string
	RateLimitRPS    float64 // zero disables rate limiting
	RateLimitBurst  int
	MaxUploadMB     int
	ShutdownTimeout time.Duration
}

type Server struct {
	echo   *echo.Echo
	cfg    Config
	parser Parser
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Server)

// WithClock sets the clock used for health timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(parser Parser, cfg Config, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		echo:   echo.New(),
		cfg:    cfg,
		parser: parser,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"elapsed", v.Latency,
			)
			return nil
		},
	}))
	if cfg.MaxUploadMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB)))
	}
	if cfg.RateLimitRPS > 0 {
		e.Use(NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	}

	e.POST("/parse-text", s.parseText)
	e.POST("/parse-image", s.parseImage)
	e.GET("/health", s.health)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

type textRequest struct {
	Text *string `json:"text"`
}

func (s *Server) parseText(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Text == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'text' is required")
	}

	report, err := s.parser.ParseText(c.Request().Context(), *req.Text)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error processing text: %v", err)).SetInternal(err)
	}
	return c.JSON(http.StatusOK, report.Result)
}

func (s *Server) parseImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'image' is required")
	}

	mimeType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(mimeType, "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, msgNotAnImage)
	}

	f, err := fh.Open()
	if err != nil {
		return imageError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return imageError(err)
	}

	report, err := s.parser.ParseImage(c.Request().Context(), data, mimeType)
	if err != nil {
		return imageError(err)
	}
	return c.JSON(http.StatusOK, report.Result)
}

func imageError(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error processing image: %v", err)).SetInternal(err)
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

// handleError renders every error as {"detail": "..."}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"detail": detail})
	}
	if err != nil {
		s.logger.Error("writing error response", "error", err)
	}
}
