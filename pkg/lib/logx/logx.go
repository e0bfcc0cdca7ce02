// Package logx builds pslog loggers from configuration.
package logx

import (
	"io"
	"log"
	"strings"

	"go.trai.ch/zerr"
	"pkt.systems/pslog"
)

// ValidLevel reports whether name is a supported log level. Empty means info.
func ValidLevel(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Options returns pslog options for a level name and output mode.
func Options(level string, structured bool) (pslog.Options, error) {
	opts := pslog.Options{Mode: pslog.ModeConsole}
	if structured {
		opts = pslog.Options{Mode: pslog.ModeStructured, NoColor: true, VerboseFields: true}
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "", "info":
		opts.MinLevel = pslog.InfoLevel
	case "warn", "warning":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	default:
		return pslog.Options{}, zerr.With(zerr.New("unsupported log level"), "level", level)
	}
	return opts, nil
}

// New creates a logger writing to w.
func New(w io.Writer, level string, structured bool) (pslog.Logger, error) {
	opts, err := Options(level, structured)
	if err != nil {
		return nil, err
	}
	return pslog.NewWithOptions(w, opts), nil
}

// FromEnv creates a logger writing to w. Environment settings take precedence
// over level and structured; an unknown level falls back to info.
func FromEnv(w io.Writer, level string, structured bool) pslog.Logger {
	opts, err := Options(level, structured)
	if err != nil {
		opts, _ = Options("info", structured)
	}
	return pslog.LoggerFromEnv(
		pslog.WithEnvWriter(w),
		pslog.WithEnvOptions(opts),
	)
}

// RedirectStdLog sends output of the standard log package (grpc uses it) to logger.
func RedirectStdLog(logger pslog.Logger) {
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)
}

// WithRun annotates the logger with a run id when present.
func WithRun(logger pslog.Logger, runID string) pslog.Logger {
	if runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}
