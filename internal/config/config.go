package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderRules     = "rules"
	ProviderOpenAI    = "openai"
	ProviderClaudeCLI = "claude-cli"
)

type Config struct {
	Normalize     NormalizeConfig `toml:"normalize"`
	Server        ServerConfig    `toml:"server"`
	AI            AIConfig        `toml:"ai"`
	OCR           OCRConfig       `toml:"ocr"`
	Store         StoreConfig     `toml:"store"`
	Calendar      CalendarConfig  `toml:"calendar"`
	Notifications NotifyConfig    `toml:"notifications"`
}

type NormalizeConfig struct {
	Timezone    string `toml:"timezone"`
	DefaultTime string `toml:"default_time"` // HH:MM
}

type ServerConfig struct {
	Addr                   string  `toml:"addr"`
	RateLimitRPS           float64 `toml:"rate_limit_rps"`
	RateLimitBurst         int     `toml:"rate_limit_burst"`
	MaxUploadMB            int     `toml:"max_upload_mb"`
	ShutdownTimeoutSeconds int     `toml:"shutdown_timeout_seconds"`
}

type AIConfig struct {
	Provider       string `toml:"provider"` // "rules", "openai" or "claude-cli"
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ClaudeCommand  string `toml:"claude_command"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type OCRConfig struct {
	TesseractPath string `toml:"tesseract_path"`
	Languages     string `toml:"languages"`
	DataPath      string `toml:"data_path"`
}

type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty means ~/.config/bookr/bookr.db
}

type CalendarConfig struct {
	Source          string `toml:"source"` // ICS URL or file path checked for conflicts
	ICSDir          string `toml:"ics_dir"`
	DurationMinutes int    `toml:"duration_minutes"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Normalize: NormalizeConfig{
			Timezone:    "Asia/Kolkata",
			DefaultTime: "09:00",
		},
		Server: ServerConfig{
			Addr:                   ":8000",
			RateLimitRPS:           5,
			RateLimitBurst:         10,
			MaxUploadMB:            10,
			ShutdownTimeoutSeconds: 10,
		},
		AI: AIConfig{
			Provider:       ProviderRules,
			TimeoutSeconds: 30,
		},
		OCR: OCRConfig{
			TesseractPath: "tesseract",
			Languages:     "eng",
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Calendar: CalendarConfig{
			DurationMinutes: 30,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
	}
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) AppointmentDuration() time.Duration {
	return time.Duration(c.Calendar.DurationMinutes) * time.Minute
}

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Normalize.Timezone); err != nil {
		return fmt.Errorf("normalize.timezone: %w", err)
	}
	if _, err := time.Parse("15:04", c.Normalize.DefaultTime); err != nil {
		return fmt.Errorf("normalize.default_time %q: want HH:MM", c.Normalize.DefaultTime)
	}
	switch c.AI.Provider {
	case ProviderRules, ProviderClaudeCLI:
	case ProviderOpenAI:
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key (or OPENAI_API_KEY) is required for the openai provider")
		}
	default:
		return fmt.Errorf("ai.provider %q: want %s, %s or %s", c.AI.Provider, ProviderRules, ProviderOpenAI, ProviderClaudeCLI)
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server rate limit must not be negative")
	}
	return nil
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "bookr"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOKR_TIMEZONE"); v != "" {
		cfg.Normalize.Timezone = v
	}
	if v := os.Getenv("BOOKR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BOOKR_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("BOOKR_TESSERACT_PATH"); v != "" {
		cfg.OCR.TesseractPath = v
	}
	if v := os.Getenv("BOOKR_TESSDATA_PATH"); v != "" {
		cfg.OCR.DataPath = v
	}
	if v := os.Getenv("BOOKR_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}

	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return false, fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}
