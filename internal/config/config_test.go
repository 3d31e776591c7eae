package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_FuzzyThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.FuzzyThreshold = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for threshold > 1")
	}

	cfg.Engine.FuzzyThreshold = -0.1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative threshold")
	}

	// The matcher substitutes its default for non-positive thresholds,
	// so 0 must fail validation instead of silently becoming 0.6.
	cfg.Engine.FuzzyThreshold = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for threshold=0")
	}

	cfg.Engine.FuzzyThreshold = 1
	if err := Validate(cfg); err != nil {
		t.Fatalf("threshold=1 should be valid: %v", err)
	}
	cfg.Engine.FuzzyThreshold = 0.01
	if err := Validate(cfg); err != nil {
		t.Fatalf("threshold=0.01 should be valid: %v", err)
	}
}

func TestValidate_DailyPostHour(t *testing.T) {
	cfg := Defaults()
	cfg.Engage.DailyPostHour = 24
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for hour=24")
	}
	cfg.Engage.DailyPostHour = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for hour=-1")
	}
	cfg.Engage.DailyPostHour = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("hour=0 should be valid: %v", err)
	}
	cfg.Engage.DailyPostHour = 23
	if err := Validate(cfg); err != nil {
		t.Fatalf("hour=23 should be valid: %v", err)
	}
}

func TestValidate_NoMentionTokens(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.MentionTokens = nil
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty mention tokens")
	}
}

func TestValidate_TelegramTokenRequired(t *testing.T) {
	cfg := Defaults()
	cfg.Channels.Telegram.Enabled = true
	cfg.Channels.Telegram.Token = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled telegram without token")
	}
}

// --- Load ---

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Defaults()
	cfg.Engine.FuzzyThreshold = 0.75
	cfg.Engage.DailyPostHour = 8
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Engine.FuzzyThreshold != 0.75 {
		t.Errorf("threshold not preserved: %v", loaded.Engine.FuzzyThreshold)
	}
	if loaded.Engage.DailyPostHour != 8 {
		t.Errorf("dailyPostHour not preserved: %v", loaded.Engage.DailyPostHour)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	os.Setenv("EVABOT_TEST_TOKEN", "secret-token-12345")
	defer os.Unsetenv("EVABOT_TEST_TOKEN")

	raw := `{"channels":{"telegram":{"enabled":true,"token":"${EVABOT_TEST_TOKEN}"}}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Channels.Telegram.Token != "secret-token-12345" {
		t.Errorf("env var not expanded: %q", cfg.Channels.Telegram.Token)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("EVABOT_UNSET_VAR")
	got := ExpandEnvVars("${EVABOT_UNSET_VAR:-fallback}")
	if got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

// --- Accessors ---

func TestGetByPath(t *testing.T) {
	cfg := Defaults()
	val, err := GetByPath(cfg, "engage.dailyPostHour")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n, ok := val.(float64); !ok || n != 10 {
		t.Errorf("expected 10, got %v", val)
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "engine.fuzzyThreshold", "0.8"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Engine.FuzzyThreshold != 0.8 {
		t.Errorf("expected 0.8, got %v", cfg.Engine.FuzzyThreshold)
	}
}

func TestSanitize_MasksTokens(t *testing.T) {
	cfg := Defaults()
	cfg.Channels.Telegram.Token = "1234567890:ABCDEFGH"
	sanitized := Sanitize(cfg)
	if sanitized.Channels.Telegram.Token == cfg.Channels.Telegram.Token {
		t.Error("token not masked")
	}
	if cfg.Channels.Telegram.Token != "1234567890:ABCDEFGH" {
		t.Error("original config mutated")
	}
}

func TestFlexStringList_MixedTypes(t *testing.T) {
	var f FlexStringList
	if err := f.UnmarshalJSON([]byte(`["123", 456]`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(f) != 2 || f[0] != "123" || f[1] != "456" {
		t.Errorf("unexpected result: %v", f)
	}
}
