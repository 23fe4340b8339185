// Package config loads the settings shared by the tetris binaries.
// Values come from the environment first; command line flags override them.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"studygames/tetris/tetris"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Rows  int    `env:"TETRIS_ROWS" envDefault:"20"`
	Cols  int    `env:"TETRIS_COLS" envDefault:"10"`
	Level int    `env:"TETRIS_LEVEL" envDefault:"1"`
	Seed  uint64 `env:"TETRIS_SEED"`

	Addr    string `env:"TETRIS_ADDR" envDefault:"localhost:9000"`
	NoGhost bool   `env:"TETRIS_NO_GHOST"`

	LogLevel slog.Level `env:"TETRIS_LOG_LEVEL" envDefault:"info"`
	LogFile  string     `env:"TETRIS_LOG_FILE"`

	OTelEndpoint string `env:"TETRIS_OTEL_ENDPOINT"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// EngineFlags binds the board and level settings to fs, using the current values as defaults.
func (c *Config) EngineFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.Rows, "rows", c.Rows, "Board rows (env: TETRIS_ROWS)")
	fs.IntVar(&c.Cols, "cols", c.Cols, "Board columns (env: TETRIS_COLS)")
	fs.IntVarP(&c.Level, "level", "l", c.Level, "Initial level (env: TETRIS_LEVEL)")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Seed for the tetromino randomizer, 0 for random (env: TETRIS_SEED)")
}

// CommonFlags binds the address and logging settings to fs.
func (c *Config) CommonFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "Server address (env: TETRIS_ADDR)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write logs to this file (env: TETRIS_LOG_FILE)")
	fs.Var(levelFlag{&c.LogLevel}, "log-level", "Log level: debug, info, warn, error (env: TETRIS_LOG_LEVEL)")
}

// levelFlag lets pflag set a slog.Level.
type levelFlag struct{ l *slog.Level }

func (f levelFlag) String() string     { return f.l.String() }
func (f levelFlag) Set(s string) error { return f.l.UnmarshalText([]byte(s)) }
func (f levelFlag) Type() string       { return "level" }

// Validate checks the engine settings.
func (c *Config) Validate() error {
	if c.Rows < 4 || c.Cols < 4 {
		return fmt.Errorf("%w: board must be at least 4x4, got %dx%d", ErrInvalidConfig, c.Rows, c.Cols)
	}
	if c.Level < 1 {
		return fmt.Errorf("%w: level must be 1 or more, got %d", ErrInvalidConfig, c.Level)
	}
	return nil
}

// Engine returns the settings of a single game.
func (c *Config) Engine() tetris.Config {
	return tetris.Config{
		Rows:  c.Rows,
		Cols:  c.Cols,
		Level: c.Level,
		Seed:  c.Seed,
	}
}

// Logger builds a JSON logger writing to LogFile, or to fallback when
// there's no file. The returned close function releases the file.
func (c *Config) Logger(fallback io.Writer) (*slog.Logger, func() error, error) {
	w := fallback
	closer := func() error { return nil }
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = f.Close
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
	return logger, closer, nil
}
