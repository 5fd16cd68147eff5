package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
	"github.com/vango-dev/weft/pkg/lane"
)

const (
	// YAMLFileName is the preferred configuration file name.
	YAMLFileName = "weft.yaml"

	// JSONFileName is the JSON configuration file name.
	JSONFileName = "weft.json"

	// DefaultPriority is the priority of updates scheduled without one.
	DefaultPriority = "user-visible"

	// DefaultMaxFrameIterations bounds one frame's fixpoint loop.
	DefaultMaxFrameIterations = 100

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "weft"

	// DefaultDevtoolsAddr is the devtools listen address.
	DefaultDevtoolsAddr = "localhost:7070"

	// DefaultEventBuffer is the number of events devtools replays.
	DefaultEventBuffer = 256

	// DefaultTreeTimeout bounds a devtools tree dump.
	DefaultTreeTimeout = "2s"
)

// Config represents a complete weft configuration file.
type Config struct {
	// Scheduler contains runtime settings.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Devtools contains inspector server settings.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`

	// Log contains logging settings.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig maps onto core.Config.
type SchedulerConfig struct {
	// DefaultPriority is "user-blocking", "user-visible" or "background".
	DefaultPriority string `json:"defaultPriority,omitempty" yaml:"defaultPriority,omitempty"`

	// MaxFrameIterations bounds the fixpoint render loop of one frame.
	MaxFrameIterations int `json:"maxFrameIterations,omitempty" yaml:"maxFrameIterations,omitempty"`

	// Debug logs every scheduler event at debug level.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	// Metrics registers the Prometheus observer.
	Metrics bool `json:"metrics" yaml:"metrics"`

	// Namespace is the Prometheus namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Tracing registers the OpenTelemetry observer.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// EventBuffer is the number of events kept for replay.
	EventBuffer int `json:"eventBuffer,omitempty" yaml:"eventBuffer,omitempty"`

	// TreeTimeout bounds a tree dump (e.g., "2s").
	TreeTimeout string `json:"treeTimeout,omitempty" yaml:"treeTimeout,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			DefaultPriority:    DefaultPriority,
			MaxFrameIterations: DefaultMaxFrameIterations,
		},
		Telemetry: TelemetryConfig{
			Metrics:   true,
			Namespace: DefaultNamespace,
		},
		Devtools: DevtoolsConfig{
			Addr:        DefaultDevtoolsAddr,
			EventBuffer: DefaultEventBuffer,
			TreeTimeout: DefaultTreeTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from dir. It looks for weft.yaml, then
// weft.json.
func Load(dir string) (*Config, error) {
	for _, name := range []string{YAMLFileName, JSONFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigMissing).
		WithDetail("No " + YAMLFileName + " or " + JSONFileName + " found in " + dir).
		WithSuggestion("Create " + YAMLFileName + " or run without a config to use defaults")
}

// LoadOrDefault is Load, returning defaults when dir has no config file.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, errors.CodeConfigMissing) {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from path. Files ending in .json are parsed
// as JSON, everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigMissing).
				WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeConfigParse).Wrap(err)
	}

	cfg := New()
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + " as " + formatName(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func formatName(path string) string {
	if isJSON(path) {
		return "JSON"
	}
	return "YAML"
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isJSON(path) {
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Scheduler.DefaultPriority == "" {
		c.Scheduler.DefaultPriority = DefaultPriority
	}
	if c.Scheduler.MaxFrameIterations == 0 {
		c.Scheduler.MaxFrameIterations = DefaultMaxFrameIterations
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Devtools.TreeTimeout == "" {
		c.Devtools.TreeTimeout = DefaultTreeTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		e := errors.New(errors.CodeConfigInvalid).WithDetail(detail)
		if c.configPath != "" {
			e = e.WithUnit(filepath.Base(c.configPath))
		}
		return e
	}

	if _, ok := lane.ParsePriority(c.Scheduler.DefaultPriority); !ok {
		return invalid("scheduler.defaultPriority must be user-blocking, user-visible or background, got " +
			quote(c.Scheduler.DefaultPriority))
	}
	if c.Scheduler.MaxFrameIterations < 1 {
		return invalid("scheduler.maxFrameIterations must be at least 1")
	}
	if c.Devtools.EventBuffer < 0 {
		return invalid("devtools.eventBuffer must not be negative")
	}
	if d, err := time.ParseDuration(c.Devtools.TreeTimeout); err != nil || d <= 0 {
		return invalid("devtools.treeTimeout must be a positive duration, got " + quote(c.Devtools.TreeTimeout))
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level must be debug, info, warn or error, got " + quote(c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return invalid("log.format must be text or json, got " + quote(c.Log.Format))
	}
	return nil
}

func quote(s string) string { return `"` + s + `"` }

// Core returns the scheduler section as a core.Config. Call it on a
// validated config; an unknown priority maps to the runtime default.
func (c *Config) Core() core.Config {
	p, _ := lane.ParsePriority(c.Scheduler.DefaultPriority)
	return core.Config{
		DefaultPriority:    p,
		MaxFrameIterations: c.Scheduler.MaxFrameIterations,
		Debug:              c.Scheduler.Debug,
	}
}

// TreeTimeout returns the parsed devtools tree timeout.
func (c *Config) TreeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Devtools.TreeTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTreeTimeout)
	}
	return d
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// Logger builds a logger writing to w with the configured level and
// format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
