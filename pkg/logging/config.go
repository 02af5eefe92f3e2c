package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/pkg/constants"
)

// Config describes a logger. The CLI fills it from the log_level,
// log_format and log_output keys of its configuration.
type Config struct {
	// Level is trace, debug, info, warn or error.
	Level string

	// Format is console, json, or auto for console on a terminal.
	Format string

	// Output is stderr, stdout, discard, or a file path appended to.
	Output string

	// NoColor disables color in console output.
	NoColor bool

	// Caller adds file:line to every entry.
	Caller bool
}

// DefaultConfig returns info level auto-formatted logging to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// NewLoggerFromConfig builds a logger from cfg. An output file that cannot
// be opened falls back to stderr and the failure is logged there.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	out, openErr := openOutput(cfg.Output)
	logger := zerolog.New(formatWriter(out, cfg)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	if cfg.Caller {
		logger = logger.With().Caller().Logger()
	}

	if openErr != nil {
		logger.Warn().Err(openErr).Str("output", cfg.Output).Msg("Logging to stderr instead")
	}
	return logger
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard", "none":
		return io.Discard, nil
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr, err
	}
	return file, nil
}

func formatWriter(out io.Writer, cfg *Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		}
	}
	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}
	}
	return out
}
