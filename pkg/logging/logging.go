package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures Setup.
type Options struct {
	// Verbosity is the count of -v flags.
	Verbosity int
	// Color enables ANSI colors on the console writer. The CLI derives it
	// from --color, so NO_COLOR and pipes are already accounted for.
	Color bool
	// Console receives human readable logs. Defaults to stderr.
	Console io.Writer
	// File is the JSON log file. Empty means LogFilePath(), "-" disables it.
	File string
}

var (
	fileMu sync.Mutex
	file   *os.File
)

// Level maps a -v count to a log level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger: a console writer plus a JSON log
// file. Calling it again replaces the previous configuration and closes the
// previous log file.
func Setup(opts Options) {
	zerolog.SetGlobalLevel(Level(opts.Verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    !opts.Color,
	}}

	path := opts.File
	if path == "" {
		path = LogFilePath()
	}
	var fileErr error
	if path != "-" {
		f, err := openLogFile(path)
		if err == nil {
			writers = append(writers, f)
		}
		fileErr = err
		swapFile(f)
	} else {
		swapFile(nil)
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", path).Msg("Failed to open log file, logging to console only")
	}
	log.Debug().Int("verbosity", opts.Verbosity).Str("logFile", path).Msg("Logger initialized")
}

// GetLogger returns a logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithBuild tags logger with a build id so every line of one build, from
// dispatch to HTML output, can be correlated.
func WithBuild(logger zerolog.Logger, id string) zerolog.Logger {
	if id == "" {
		return logger
	}
	return logger.With().Str("build", id).Logger()
}

// LogFilePath is bundl.log under $XDG_STATE_HOME/bundl, falling back to
// ~/.local/state/bundl.
func LogFilePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "bundl.log"
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "bundl", "bundl.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func swapFile(f *os.File) {
	fileMu.Lock()
	defer fileMu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = f
}
