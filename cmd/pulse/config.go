package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type streamConfig struct {
	Kind         string `yaml:"kind"` // notifications or activation
	ActivationID string `yaml:"activationId"`
}

type config struct {
	BaseURL   string       `yaml:"baseUrl"`
	APIKey    string       `yaml:"apiKey"`
	LogLevel  string       `yaml:"logLevel"`
	LogFormat string       `yaml:"logFormat"`
	Stream    streamConfig `yaml:"stream"`
}

func readConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baseUrl is required")
	}
	if cfg.Stream.Kind == "activation" && cfg.Stream.ActivationID == "" {
		return nil, fmt.Errorf("activationId is required for the activation stream")
	}
	return cfg, nil
}

func (c *config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
