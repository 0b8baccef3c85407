package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu           sync.RWMutex
	currentLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar        = newSugar(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stdout))
	closeOutput  func() error
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a case-insensitive level name to a Level.
// Unknown names map to LevelInfo and ok=false.
func ParseLevel(level string) (Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// SetLevel changes the minimum level. Unknown names are ignored.
func SetLevel(level string) {
	if l, ok := ParseLevel(level); ok {
		currentLevel.SetLevel(l.zapLevel())
	}
}

// Enabled reports whether messages at the given level are emitted.
func Enabled(level Level) bool {
	return currentLevel.Enabled(level.zapLevel())
}

// Configure replaces the log sink.
//
// format is "text" (console encoder) or "json"; output is "stdout",
// "stderr" or a file path opened in append mode.
func Configure(level, format, output string) error {
	var sink zapcore.WriteSyncer
	var closer func() error

	switch strings.ToLower(output) {
	case "", "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log output %s: %w", output, err)
		}
		sink = zapcore.Lock(f)
		closer = f.Close
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "text":
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	default:
		if closer != nil {
			_ = closer()
		}
		return fmt.Errorf("unknown log format %q", format)
	}

	SetLevel(level)

	mu.Lock()
	defer mu.Unlock()

	_ = sugar.Sync()
	if closeOutput != nil {
		_ = closeOutput()
	}
	sugar = newSugar(encoder, sink)
	closeOutput = closer

	return nil
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return sugar.Sync()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func newSugar(encoder zapcore.Encoder, sink zapcore.WriteSyncer) *zap.SugaredLogger {
	return zap.New(zapcore.NewCore(encoder, sink, currentLevel)).Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debug(format string, v ...any) {
	current().Debugf(format, v...)
}

func Info(format string, v ...any) {
	current().Infof(format, v...)
}

func Warn(format string, v ...any) {
	current().Warnf(format, v...)
}

func Error(format string, v ...any) {
	current().Errorf(format, v...)
}
