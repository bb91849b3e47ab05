package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 8001 {
		t.Errorf("Port = %d, want 8001", cfg.Port)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("LogDir = %q, want logs", cfg.LogDir)
	}
	if cfg.ImageDir != "image" {
		t.Errorf("ImageDir = %q, want image", cfg.ImageDir)
	}
	if cfg.Debug {
		t.Error("Debug = true, want false by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NASMON_HOST", "127.0.0.1")
	t.Setenv("NASMON_PORT", "9001")
	t.Setenv("NASMON_LOG_DIR", "/tmp/nasmon-logs")
	t.Setenv("NASMON_IMAGE_DIR", "/srv/images")
	t.Setenv("NASMON_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Host != "127.0.0.1" || cfg.Port != 9001 {
		t.Errorf("bind = %s:%d, want 127.0.0.1:9001", cfg.Host, cfg.Port)
	}
	if cfg.LogDir != "/tmp/nasmon-logs" || cfg.ImageDir != "/srv/images" {
		t.Errorf("dirs = %q/%q, want overrides", cfg.LogDir, cfg.ImageDir)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	for _, bad := range []string{"abc", "0", "70000", "-1"} {
		t.Setenv("NASMON_PORT", bad)
		if _, err := Load(); err == nil {
			t.Errorf("Load() with NASMON_PORT=%q: want error", bad)
		}
	}
}
