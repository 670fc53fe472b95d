package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec"
	"github.com/reoring/verskema/examples/savegame"
)

// Config is the savegame tool configuration. Flags override file values.
type Config struct {
	Format      string `yaml:"format"`
	Compression string `yaml:"compression"`
	Strategy    string `yaml:"strategy"`
	MaxBytes    int64  `yaml:"max_bytes"`
	LogLevel    string `yaml:"log_level"`
	TagKey      string `yaml:"tag_key"`
}

func defaultConfig() Config {
	return Config{
		Format:      string(savegame.FormatAuto),
		Compression: string(savegame.CompressNone),
		Strategy:    verskema.StrategyEager.String(),
		LogLevel:    "info",
		TagKey:      codec.DefaultTagKey,
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch savegame.Format(c.Format) {
	case savegame.FormatAuto, savegame.FormatJSON, savegame.FormatMsgpack, savegame.FormatYAML:
	default:
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	switch savegame.Compression(c.Compression) {
	case savegame.CompressNone, savegame.CompressZstd, savegame.CompressLZ4:
	default:
		return fmt.Errorf("config: unknown compression %q", c.Compression)
	}
	if _, ok := verskema.ParseStrategy(c.Strategy); !ok {
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("config: negative max_bytes %d", c.MaxBytes)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// resolver builds the save resolver described by c.
func (c Config) resolver(log *slog.Logger, metrics verskema.MetricsCollector) (*verskema.Resolver[savegame.Latest], error) {
	adapters, err := savegame.AdaptersFor(savegame.Format(c.Format), savegame.Compression(c.Compression), codec.WithTagKey(c.TagKey))
	if err != nil {
		return nil, err
	}
	strategy, _ := verskema.ParseStrategy(c.Strategy)
	return verskema.New(savegame.NewChain(adapters), verskema.ResolveOpt{
		Strategy: strategy,
		MaxBytes: c.MaxBytes,
		Logger:   log,
		Metrics:  metrics,
	})
}
