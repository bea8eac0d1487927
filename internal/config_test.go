package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/halvard/muninn/pkg/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should pass: %v", err)
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.Log.Level)
	}
	if !cfg.Clipboard.CaptureURLs {
		t.Error("url capture should default on")
	}
}

func TestConfig_PollIntervalTooSmall(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Clipboard.PollIntervalMS = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("poll interval below minimum should fail validation")
	}
}

func TestConfig_LoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.yaml")
	content := "log:\n  level: debug\nclipboard:\n  capture_text: true\n  poll_interval_ms: 250\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.Log.Level)
	}
	if !cfg.Clipboard.CaptureText {
		t.Error("capture_text should be set from file")
	}
	if cfg.Clipboard.PollIntervalMS != 250 {
		t.Errorf("poll_interval_ms = %d", cfg.Clipboard.PollIntervalMS)
	}
	// Keys absent from the file keep defaults.
	if !cfg.Clipboard.CaptureURLs {
		t.Error("capture_urls should keep its default")
	}
	if len(cfg.Clipboard.IgnoreDomains) == 0 {
		t.Error("ignore_domains should keep its default")
	}
}

func TestConfig_CommentedTemplateLoads(t *testing.T) {
	// A freshly initialized brain.yaml is all comments; loading it must keep
	// every default.
	path := filepath.Join(t.TempDir(), "brain.yaml")
	content := "# muninn brain configuration\n#\n# log:\n#   level: info\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clipboard.PollIntervalMS != 500 {
		t.Errorf("poll_interval_ms = %d", cfg.Clipboard.PollIntervalMS)
	}
}
