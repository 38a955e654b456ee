package main

import (
	"log/slog"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := readConfig("pulse.config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL == "" {
		t.Error("baseUrl not parsed")
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("level = %v, want info", cfg.Level())
	}
}

func TestLoadConfigMissingActivationID(t *testing.T) {
	if _, err := readConfig("testdata/activation_missing_id.yaml"); err == nil {
		t.Error("expected validation error")
	}
}
