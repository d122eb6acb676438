// Package log wraps github.com/rs/zerolog behind the module's functional-options
// convention so every package configures logging the same way it configures everything
// else: via internal/options.Option values.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/zetaforensics/zff/internal/options"
)

// Config holds the construction-time state for a Logger.
type Config struct {
	level  zerolog.Level
	output io.Writer
}

// Option configures a Logger at construction time.
type Option = options.Option[*Config]

// WithLevel sets the minimum level a Logger emits.
func WithLevel(level string) Option {
	return options.New(func(c *Config) error {
		l, err := zerolog.ParseLevel(level)
		if err != nil {
			return err
		}
		c.level = l
		return nil
	})
}

// WithOutput redirects log output away from the default (stderr).
func WithOutput(w io.Writer) Option {
	return options.NoError(func(c *Config) { c.output = w })
}

// Logger is the logging handle passed into writer/reader state machines.
type Logger struct {
	zerolog.Logger
}

// New builds a Logger from the given options, defaulting to info level on stderr.
func New(opts ...Option) (*Logger, error) {
	cfg := &Config{level: zerolog.InfoLevel, output: os.Stderr}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	zl := zerolog.New(cfg.output).Level(cfg.level).With().Timestamp().Logger()
	return &Logger{Logger: zl}, nil
}

// Nop returns a Logger that discards everything, used as the zero-config default.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}
