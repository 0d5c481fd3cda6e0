package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds all service configuration.
type Settings struct {
	Server    ServerSettings    `toml:"server"`
	Storage   StorageSettings   `toml:"storage"`
	Advisor   AdvisorSettings   `toml:"advisor"`
	RateLimit RateLimitSettings `toml:"rate_limit"`
	Analysis  AnalysisSettings  `toml:"analysis"`
	Rules     RulesSettings     `toml:"rules"`
	Log       LogSettings       `toml:"log"`
}

// ServerSettings holds HTTP listener settings.
type ServerSettings struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"`
}

// StorageSettings selects the durable store and the hot cache.
// An empty RedisAddr uses the in-process cache; an empty DBPath uses memory.
type StorageSettings struct {
	DBPath    string `toml:"db_path"`
	RedisAddr string `toml:"redis_addr,omitempty"`
	RedisDB   int    `toml:"redis_db"`
}

// AdvisorSettings holds the generative model endpoint settings.
type AdvisorSettings struct {
	BaseURL     string   `toml:"base_url"`
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key,omitempty"`
	Timeout     Duration `toml:"timeout"`
	MaxAttempts int      `toml:"max_attempts"`
	BackoffStep Duration `toml:"backoff_step"`
}

// RateLimitSettings configures the per-client token bucket on AI routes.
type RateLimitSettings struct {
	Capacity int      `toml:"capacity"`
	Window   Duration `toml:"window"`
}

// AnalysisSettings holds the analysis windows and fetch limits.
type AnalysisSettings struct {
	Freshness         Duration `toml:"freshness"`
	TaxFetchLimit     int      `toml:"tax_fetch_limit"`
	SavingsFetchLimit int      `toml:"savings_fetch_limit"`
}

// RulesSettings points at an optional rules file.
type RulesSettings struct {
	File  string `toml:"file,omitempty"`
	Watch bool   `toml:"watch"`
}

// LogSettings holds the minimum log level.
type LogSettings struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration read from TOML strings such as "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{90 * time.Second},
			IdleTimeout:  Duration{60 * time.Second},
		},
		Storage: StorageSettings{
			DBPath: filepath.Join(DataDir(), "finflow.db"),
		},
		Advisor: AdvisorSettings{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.5-flash",
			Timeout:     Duration{60 * time.Second},
			MaxAttempts: 3,
			BackoffStep: Duration{2 * time.Second},
		},
		RateLimit: RateLimitSettings{
			Capacity: 10,
			Window:   Duration{time.Minute},
		},
		Analysis: AnalysisSettings{
			Freshness:         Duration{24 * time.Hour},
			TaxFetchLimit:     80,
			SavingsFetchLimit: 50,
		},
		Log: LogSettings{Level: "info"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finflow")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "finflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "finflow")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LoadSettings reads the settings file, returning defaults if it doesn't exist.
// Environment variables override file values.
func LoadSettings(path string) (Settings, error) {
	cfg := DefaultSettings()
	if path == "" {
		path = SettingsPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing settings: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading settings: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("settings validation failed: %w", err)
	}
	return cfg, nil
}

// SaveSettings writes settings to path.
func SaveSettings(path string, cfg Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func applyEnv(cfg *Settings) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Advisor.APIKey = key
	}
	if addr := os.Getenv("FINFLOW_REDIS_ADDR"); addr != "" {
		cfg.Storage.RedisAddr = addr
	}
	if path := os.Getenv("FINFLOW_DB_PATH"); path != "" {
		cfg.Storage.DBPath = path
	}
}

// Validate checks settings for values the service cannot run with
func (s Settings) Validate() error {
	if s.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if s.Advisor.MaxAttempts < 1 {
		return fmt.Errorf("advisor max_attempts must be at least 1")
	}
	if s.Advisor.BackoffStep.Duration < 0 {
		return fmt.Errorf("advisor backoff_step cannot be negative")
	}
	if s.RateLimit.Capacity < 1 {
		return fmt.Errorf("rate_limit capacity must be at least 1")
	}
	if s.RateLimit.Window.Duration <= 0 {
		return fmt.Errorf("rate_limit window must be positive")
	}
	if s.Analysis.Freshness.Duration <= 0 {
		return fmt.Errorf("analysis freshness must be positive")
	}
	if s.Analysis.TaxFetchLimit < 1 || s.Analysis.SavingsFetchLimit < 1 {
		return fmt.Errorf("analysis fetch limits must be at least 1")
	}
	return nil
}
