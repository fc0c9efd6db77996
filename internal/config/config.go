// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"astroref/internal/aspect"
	"astroref/internal/errs"
	"astroref/internal/frame"
)

// App captures process-wide runtime settings such as name, environment, listeners, and logging levels.
type App struct {
	Name        string   `yaml:"name"`
	Env         string   `yaml:"env"`
	MetricsAddr string   `yaml:"metrics_addr"`
	HTTPAddr    string   `yaml:"http_addr"`
	LogLevel    string   `yaml:"log_level"`
	CorsOrigins []string `yaml:"cors_origins"`
}

// Ephemeris configures where "current sky" longitudes come from.
type Ephemeris struct {
	Provider       string   `yaml:"provider"` // stub|http|stream
	BaseURL        string   `yaml:"base_url"`
	StreamURL      string   `yaml:"stream_url"`
	LongitudePath  string   `yaml:"longitude_path"`
	Center         string   `yaml:"center"` // geocentric|heliocentric
	PollIntervalMs int      `yaml:"poll_interval_ms"`
	StaleAfterMs   int      `yaml:"stale_after_ms"`
	TimeoutMs      int      `yaml:"timeout_ms"`
	Bodies         []string `yaml:"bodies"`
}

// PollInterval converts the configured cadence, defaulting to one minute.
func (e Ephemeris) PollInterval() time.Duration { return millis(e.PollIntervalMs, time.Minute) }

// StaleAfter is the age past which a cached snapshot reads as unavailable.
// Zero or negative disables expiry.
func (e Ephemeris) StaleAfter() time.Duration {
	if e.StaleAfterMs <= 0 {
		return 0
	}
	return time.Duration(e.StaleAfterMs) * time.Millisecond
}

// Timeout bounds a single provider request.
func (e Ephemeris) Timeout() time.Duration { return millis(e.TimeoutMs, 10*time.Second) }

// Frame selects the ayanamsa model; Custom wins over Ayanamsa when set.
type Frame struct {
	Ayanamsa string       `yaml:"ayanamsa"`
	Custom   *frame.Model `yaml:"custom"`
}

// Model resolves the configured ayanamsa, falling back to frame.Default.
func (f Frame) Model() frame.Model {
	if f.Custom != nil && f.Custom.AnnualDrift != 0 {
		m := *f.Custom
		if m.Name == "" {
			m.Name = "custom"
		}
		return m
	}
	return frame.Select(f.Ayanamsa)
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App           App                 `yaml:"app"`
	Ephemeris     Ephemeris           `yaml:"ephemeris"`
	Frame         Frame               `yaml:"frame"`
	Aspects       []aspect.Definition `yaml:"aspects"`
	LocationsPath string              `yaml:"locations_path"`
}

// AspectDefinitions returns the configured list or the defaults when none are set.
func (c *Config) AspectDefinitions() []aspect.Definition {
	if len(c.Aspects) == 0 {
		return aspect.DefaultDefinitions()
	}
	out := make([]aspect.Definition, len(c.Aspects))
	copy(out, c.Aspects)
	return out
}

// Default returns a configuration that runs fully offline.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "astroref",
			Env:         "dev",
			MetricsAddr: ":9102",
			HTTPAddr:    ":8080",
			LogLevel:    "info",
		},
		Ephemeris: Ephemeris{
			Provider:       "stub",
			LongitudePath:  "$.longitude",
			Center:         "geocentric",
			PollIntervalMs: 60000,
			StaleAfterMs:   300000,
			TimeoutMs:      10000,
		},
		Frame: Frame{Ayanamsa: frame.Default.Name},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct over the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects aspect definitions the matcher cannot use.
func (c *Config) Validate() error {
	const op = "config.validate"
	seen := make(map[string]bool, len(c.Aspects))
	for i, d := range c.Aspects {
		field := fmt.Sprintf("aspects[%d]", i)
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			return errs.Invalid(op, field, "aspect name is required")
		case seen[name]:
			return errs.Invalid(op, field, "duplicate aspect %q", name)
		case math.IsNaN(d.Angle) || d.Angle < 0 || d.Angle > 180:
			return errs.Invalid(op, field, "aspect %s angle %.2f out of range 0..180", name, d.Angle)
		case math.IsNaN(d.Orb) || d.Orb < 0:
			return errs.Invalid(op, field, "aspect %s orb %.2f must not be negative", name, d.Orb)
		}
		seen[name] = true
	}
	return nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv loads .env best-effort and lets ASTROREF_* variables override the file.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load() // ignore missing file

	setString(&cfg.App.LogLevel, "ASTROREF_LOG_LEVEL")
	setString(&cfg.App.HTTPAddr, "ASTROREF_HTTP_ADDR")
	setString(&cfg.App.MetricsAddr, "ASTROREF_METRICS_ADDR")
	setString(&cfg.Ephemeris.Provider, "ASTROREF_EPHEMERIS_PROVIDER")
	setString(&cfg.Ephemeris.BaseURL, "ASTROREF_EPHEMERIS_URL")
	setString(&cfg.Ephemeris.StreamURL, "ASTROREF_EPHEMERIS_STREAM_URL")
	setString(&cfg.Ephemeris.Center, "ASTROREF_EPHEMERIS_CENTER")
	setString(&cfg.Frame.Ayanamsa, "ASTROREF_AYANAMSA")
	setString(&cfg.LocationsPath, "ASTROREF_LOCATIONS")

	if raw := os.Getenv("ASTROREF_POLL_INTERVAL_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid ASTROREF_POLL_INTERVAL_MS: %s", raw)
		}
		cfg.Ephemeris.PollIntervalMs = ms
	}
	if raw := os.Getenv("ASTROREF_BODIES"); raw != "" {
		cfg.Ephemeris.Bodies = strings.Split(raw, ",")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func millis(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
