package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger, configured once by InitLogger.
var Logger zerolog.Logger

// LogConfig configures log level, directory, and rotation.
type LogConfig struct {
	Level      string
	LogDir     string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// DefaultLogConfig mirrors config.LoggingConfig's defaults.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		LogDir:     "logs",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// InitLogger wires a colored console writer plus two rotating file sinks
// (all levels, and errors-only) behind a single zerolog.Logger.
func InitLogger(cfg LogConfig) error {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	mainLogFile := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "estatecrawl.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	errorLogFile := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "estatecrawl_error.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	multiWriter := zerolog.MultiLevelWriter(
		consoleWriter,
		mainLogFile,
		&FilteredWriter{Writer: errorLogFile, MinLevel: zerolog.ErrorLevel},
	)

	Logger = zerolog.New(multiWriter).With().Timestamp().Logger()
	log.Logger = Logger

	Logger.Info().Str("level", cfg.Level).Str("log_dir", cfg.LogDir).Msg("logging initialized")
	return nil
}

// WithSession returns a child logger tagged with session_id and component,
// so every subsystem's log lines are scoped to one run. Components use this
// instead of the package-level shortcuts once a session starts.
func WithSession(sessionID, component string) zerolog.Logger {
	return Logger.With().Str("session_id", sessionID).Str("component", component).Logger()
}

// FilteredWriter only forwards writes at or above MinLevel to Writer.
// zerolog calls WriteLevel directly; Write exists to satisfy io.Writer for
// callers that don't know about level-aware writers.
type FilteredWriter struct {
	Writer   io.Writer
	MinLevel zerolog.Level
}

func (w *FilteredWriter) Write(p []byte) (int, error) {
	return w.Writer.Write(p)
}

func (w *FilteredWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= w.MinLevel {
		return w.Writer.Write(p)
	}
	return len(p), nil
}

func Info(msg string)                            { Logger.Info().Msg(msg) }
func Infof(format string, args ...interface{})    { Logger.Info().Msgf(format, args...) }
func Error(err error, msg string)                 { Logger.Error().Err(err).Msg(msg) }
func Errorf(format string, args ...interface{})   { Logger.Error().Msgf(format, args...) }
func Warn(msg string)                             { Logger.Warn().Msg(msg) }
func Warnf(format string, args ...interface{})    { Logger.Warn().Msgf(format, args...) }
func Debug(msg string)                            { Logger.Debug().Msg(msg) }
func Debugf(format string, args ...interface{})   { Logger.Debug().Msgf(format, args...) }
func Fatal(err error, msg string)                 { Logger.Fatal().Err(err).Msg(msg) }
