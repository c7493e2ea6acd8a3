// Package config loads scheduler settings from YAML.
//
// A missing file is not an error: Load returns Default(). Unknown keys are
// rejected so typos surface instead of silently falling back to defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level settings document.
type Config struct {
	History HistoryConfig `yaml:"history"`
	Journal JournalConfig `yaml:"journal"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	// MaxDepth is the number of undo records kept. 0 keeps everything.
	MaxDepth int `yaml:"max_depth" validate:"gte=0,lte=100000"`
}

// JournalConfig locates the SQLite edit journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig selects the CLI output format.
type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=text json"`
}

// LogConfig selects the slog level.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Output: OutputConfig{Format: "text"},
		Log:    LogConfig{Level: "warn"},
	}
}

// Load reads the config file at path. An empty path or a missing file
// yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default() and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SlogLevel maps Log.Level to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
