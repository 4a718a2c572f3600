package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a developer .env out of the test

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.LogSink != SinkConsole {
		t.Errorf("LogSink = %q, want %q", cfg.LogSink, SinkConsole)
	}
	if cfg.LogPollInterval != 500*time.Millisecond {
		t.Errorf("LogPollInterval = %s, want 500ms", cfg.LogPollInterval)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %s, want 1m", cfg.CacheTTL)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_SINK", "file")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_SHUTDOWN_GRACE", "250ms")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.LogSink != SinkFile || cfg.LogFormat != "text" {
		t.Errorf("unexpected sink/format: %q/%q", cfg.LogSink, cfg.LogFormat)
	}
	if cfg.LogShutdownGrace != 250*time.Millisecond {
		t.Errorf("LogShutdownGrace = %s", cfg.LogShutdownGrace)
	}
	if cfg.DBMaxOpenConns != 7 {
		t.Errorf("DBMaxOpenConns = %d, want 7", cfg.DBMaxOpenConns)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{LogFormat: "json", LogSink: SinkConsole, LogShutdownGrace: time.Second, LogPollInterval: time.Second}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "Unknown Sink", mutate: func(c *Config) { c.LogSink = "kafka" }},
		{name: "Unknown Format", mutate: func(c *Config) { c.LogFormat = "yaml" }},
		{name: "Zero Grace", mutate: func(c *Config) { c.LogShutdownGrace = 0 }},
		{name: "Zero Poll", mutate: func(c *Config) { c.LogPollInterval = 0 }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestRedactionFields(t *testing.T) {
	cfg := Config{PIIRedactionFields: "email, ,password,"}
	got := cfg.RedactionFields()
	want := []string{"email", "password"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
