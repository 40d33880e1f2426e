package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type DispatchMode string

const (
	DispatchModeOpen      DispatchMode = "open"
	DispatchModeClipboard DispatchMode = "clipboard"
	DispatchModeStdout    DispatchMode = "stdout"
)

type Config struct {
	Phonebook PhonebookConfig `toml:"phonebook"`
	Cache     CacheConfig     `toml:"cache"`
	Dialing   DialingConfig   `toml:"dialing"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Keys      KeyConfig       `toml:"keys"`
}

type PhonebookConfig struct {
	URL             string `toml:"url"`
	File            string `toml:"file"`
	Timeout         string `toml:"timeout"`
	SkipHeader      bool   `toml:"skip_header"`
	Watch           bool   `toml:"watch"`
	RefreshInterval string `toml:"refresh_interval"`
}

type CacheConfig struct {
	Enabled         bool   `toml:"enabled"`
	Path            string `toml:"path"`
	OfflineFallback bool   `toml:"offline_fallback"`
	Retain          int    `toml:"retain"`
}

type DialingConfig struct {
	CountryCode  string       `toml:"country_code"`
	URLScheme    string       `toml:"url_scheme"`
	DispatchMode DispatchMode `toml:"dispatch_mode"`
}

type ServerConfig struct {
	Bind              string `toml:"bind"`
	APIEndpoint       string `toml:"api_endpoint"`
	MCPEndpoint       string `toml:"mcp_endpoint"`
	MinReloadInterval string `toml:"min_reload_interval"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type KeyConfig struct {
	Reload      string `toml:"reload"`
	CopyURL     string `toml:"copy_url"`
	RequestCall string `toml:"request_call"`
}

func Default(dbPath string) Config {
	return Config{
		Phonebook: PhonebookConfig{
			Timeout: "10s",
		},
		Cache: CacheConfig{
			Enabled:         true,
			Path:            dbPath,
			OfflineFallback: true,
			Retain:          5,
		},
		Dialing: DialingConfig{
			CountryCode:  "+81",
			URLScheme:    "zoomphonecall",
			DispatchMode: DispatchModeOpen,
		},
		Server: ServerConfig{
			Bind:              "127.0.0.1:5437",
			APIEndpoint:       "/api/v1",
			MCPEndpoint:       "/mcp",
			MinReloadInterval: "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".callpad/log",
			},
		},
		Keys: KeyConfig{
			Reload:      "ctrl+r",
			CopyURL:     "c",
			RequestCall: "ctrl+s",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Phonebook.URL) != "" && strings.TrimSpace(c.Phonebook.File) != "" {
		return errors.New("phonebook.url and phonebook.file are mutually exclusive")
	}
	if c.Phonebook.Watch && strings.TrimSpace(c.Phonebook.File) == "" {
		return errors.New("phonebook.watch requires phonebook.file")
	}
	if _, err := parseOptionalDuration(c.Phonebook.Timeout); err != nil {
		return fmt.Errorf("invalid phonebook.timeout: %w", err)
	}
	if _, err := parseOptionalDuration(c.Phonebook.RefreshInterval); err != nil {
		return fmt.Errorf("invalid phonebook.refresh_interval: %w", err)
	}
	if _, err := parseOptionalDuration(c.Server.MinReloadInterval); err != nil {
		return fmt.Errorf("invalid server.min_reload_interval: %w", err)
	}

	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path is required when cache is enabled")
	}
	if c.Cache.Retain < 0 {
		return errors.New("cache.retain must be >= 0")
	}

	code := strings.TrimSpace(c.Dialing.CountryCode)
	if code == "" {
		return errors.New("dialing.country_code is required")
	}
	for _, r := range strings.TrimPrefix(code, "+") {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid dialing.country_code: %q", c.Dialing.CountryCode)
		}
	}
	scheme := strings.TrimSuffix(strings.TrimSpace(c.Dialing.URLScheme), "://")
	if scheme == "" || strings.ContainsAny(scheme, " /?#") {
		return fmt.Errorf("invalid dialing.url_scheme: %q", c.Dialing.URLScheme)
	}
	switch DispatchMode(strings.ToLower(strings.TrimSpace(string(c.Dialing.DispatchMode)))) {
	case "", DispatchModeOpen, DispatchModeClipboard, DispatchModeStdout:
	default:
		return fmt.Errorf("invalid dialing.dispatch_mode: %q", c.Dialing.DispatchMode)
	}

	for name, endpoint := range map[string]string{"server.api_endpoint": c.Server.APIEndpoint, "server.mcp_endpoint": c.Server.MCPEndpoint} {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// HasSource reports whether a phonebook location is configured.
func (c Config) HasSource() bool {
	return strings.TrimSpace(c.Phonebook.URL) != "" || strings.TrimSpace(c.Phonebook.File) != ""
}

// PhonebookTimeout returns the fetch timeout, or zero for none.
func (c Config) PhonebookTimeout() time.Duration {
	d, _ := parseOptionalDuration(c.Phonebook.Timeout)
	return d
}

// RefreshInterval returns the periodic refresh interval, or zero when disabled.
func (c Config) RefreshInterval() time.Duration {
	d, _ := parseOptionalDuration(c.Phonebook.RefreshInterval)
	return d
}

// MinReloadInterval returns the minimum spacing between server-triggered reloads.
func (c Config) MinReloadInterval() time.Duration {
	d, _ := parseOptionalDuration(c.Server.MinReloadInterval)
	return d
}

func parseOptionalDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0: %s", raw)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
