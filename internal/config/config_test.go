package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/lane"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Scheduler.DefaultPriority != DefaultPriority {
		t.Errorf("Scheduler.DefaultPriority = %q, want %q", cfg.Scheduler.DefaultPriority, DefaultPriority)
	}
	if cfg.Scheduler.MaxFrameIterations != DefaultMaxFrameIterations {
		t.Errorf("Scheduler.MaxFrameIterations = %d, want %d", cfg.Scheduler.MaxFrameIterations, DefaultMaxFrameIterations)
	}
	if cfg.Devtools.Addr != DefaultDevtoolsAddr {
		t.Errorf("Devtools.Addr = %q, want %q", cfg.Devtools.Addr, DefaultDevtoolsAddr)
	}
	if !cfg.Telemetry.Metrics {
		t.Error("metrics should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, YAMLFileName, `
scheduler:
  defaultPriority: background
  maxFrameIterations: 20
  debug: true
telemetry:
  metrics: false
devtools:
  addr: ":9000"
log:
  format: json
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Scheduler.DefaultPriority != "background" || cfg.Scheduler.MaxFrameIterations != 20 || !cfg.Scheduler.Debug {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Telemetry.Metrics {
		t.Error("metrics: false was ignored")
	}
	if cfg.Telemetry.Namespace != DefaultNamespace {
		t.Errorf("Telemetry.Namespace = %q, want default", cfg.Telemetry.Namespace)
	}
	if cfg.Devtools.Addr != ":9000" {
		t.Errorf("Devtools.Addr = %q", cfg.Devtools.Addr)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, JSONFileName, `{
  "scheduler": {"defaultPriority": "user-blocking"},
  "devtools": {"eventBuffer": 10, "treeTimeout": "500ms"}
}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Scheduler.DefaultPriority != "user-blocking" {
		t.Errorf("DefaultPriority = %q", cfg.Scheduler.DefaultPriority)
	}
	if cfg.Devtools.EventBuffer != 10 {
		t.Errorf("EventBuffer = %d, want 10", cfg.Devtools.EventBuffer)
	}
	if got := cfg.TreeTimeout().String(); got != "500ms" {
		t.Errorf("TreeTimeout = %s, want 500ms", got)
	}
}

func TestLoadPrefersYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, JSONFileName, `{"log": {"level": "error"}}`)
	writeFile(t, tmpDir, YAMLFileName, "log:\n  level: debug\n")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug from %s", cfg.Log.Level, YAMLFileName)
	}
}

func TestLoadMissing(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.HasCode(err, errors.CodeConfigMissing) {
		t.Errorf("Load() error = %v, want %s", err, errors.CodeConfigMissing)
	}

	cfg, err := LoadOrDefault(tmpDir)
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Devtools.Addr != DefaultDevtoolsAddr {
		t.Error("LoadOrDefault did not return defaults")
	}
}

func TestLoadParseError(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, JSONFileName, `{"scheduler": `)

	_, err := LoadFile(path)
	if !errors.HasCode(err, errors.CodeConfigParse) {
		t.Fatalf("LoadFile() error = %v, want %s", err, errors.CodeConfigParse)
	}
	if !strings.Contains(err.Error(), "JSON") {
		t.Errorf("error %q does not name the format", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"priority", func(c *Config) { c.Scheduler.DefaultPriority = "urgent" }, "defaultPriority"},
		{"iterations", func(c *Config) { c.Scheduler.MaxFrameIterations = -1 }, "maxFrameIterations"},
		{"event buffer", func(c *Config) { c.Devtools.EventBuffer = -5 }, "eventBuffer"},
		{"tree timeout", func(c *Config) { c.Devtools.TreeTimeout = "soon" }, "treeTimeout"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.HasCode(err, errors.CodeConfigInvalid) {
				t.Fatalf("Validate() = %v, want %s", err, errors.CodeConfigInvalid)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestLoadValidates(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, YAMLFileName, "scheduler:\n  defaultPriority: urgent\n")

	_, err := Load(tmpDir)
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("Load() error = %v, want %s", err, errors.CodeConfigInvalid)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{YAMLFileName, JSONFileName} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Scheduler.Debug = true
			cfg.Devtools.Addr = ":1234"
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error: %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error: %v", err)
			}
			if !loaded.Scheduler.Debug || loaded.Devtools.Addr != ":1234" {
				t.Errorf("loaded = %+v", loaded)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestCore(t *testing.T) {
	cfg := New()
	cfg.Scheduler.DefaultPriority = "background"
	cfg.Scheduler.MaxFrameIterations = 7

	c := cfg.Core()
	if c.DefaultPriority != lane.PriorityBackground {
		t.Errorf("DefaultPriority = %v, want background", c.DefaultPriority)
	}
	if c.MaxFrameIterations != 7 {
		t.Errorf("MaxFrameIterations = %d, want 7", c.MaxFrameIterations)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record passed a warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("json output = %q", out)
	}
}
