package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger wraps zap.Logger with colored output
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

// Component represents different parts of the system for color coding
type Component string

const (
	ComponentNode      Component = "NODE"
	ComponentBootstrap Component = "BOOTSTRAP"
	ComponentNetwork   Component = "NETWORK"
	ComponentDatabase  Component = "DATABASE"
	ComponentRPC       Component = "RPC"
	ComponentExecutor  Component = "EXECUTOR"
	ComponentTelemetry Component = "TELEMETRY"
	ComponentGeneral   Component = "GENERAL"
)

// getComponentColor returns the color for a specific component
func getComponentColor(component Component) string {
	switch component {
	case ComponentNode:
		return BrightBlue
	case ComponentBootstrap:
		return BrightMagenta
	case ComponentNetwork:
		return BrightCyan
	case ComponentDatabase:
		return Green
	case ComponentRPC:
		return BrightGreen
	case ComponentExecutor:
		return BrightYellow
	case ComponentTelemetry:
		return Cyan
	case ComponentGeneral:
		return Yellow
	default:
		return White
	}
}

// getLevelColor returns the color for a log level
func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return Red
	default:
		return White
	}
}

// coloredConsoleEncoder creates a custom encoder with colors
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	// Timestamp with milliseconds
	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		timeStr := t.Format("2006-01-02 15:04:05.000")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, timeStr, Reset))
		} else {
			enc.AppendString(timeStr)
		}
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelMap := map[zapcore.Level]string{
			zapcore.DebugLevel: "D",
			zapcore.InfoLevel:  "I",
			zapcore.WarnLevel:  "W",
			zapcore.ErrorLevel: "E",
		}
		levelStr := levelMap[level]
		if levelStr == "" {
			levelStr = "?"
		}
		if enableColors {
			color := getLevelColor(level)
			enc.AppendString(fmt.Sprintf("%s%s%s%s", color, Bold, levelStr, Reset))
		} else {
			enc.AppendString(levelStr)
		}
	}

	// Just the file name without extension
	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		file = strings.TrimSuffix(file, ".go")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, file, Reset))
		} else {
			enc.AppendString(file)
		}
	}

	return zapcore.NewConsoleEncoder(config)
}

// ParseLevel converts a textual verbosity (debug, info, warn, error) into a zap level.
// An empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// NewWriterLogger creates a logger writing to w at the given verbosity.
func NewWriterLogger(w io.Writer, level string, enableColors bool) (*ColoredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(
		coloredConsoleEncoder(enableColors),
		zapcore.AddSync(w),
		lvl,
	)

	// Create logger with caller information
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &ColoredLogger{
		Logger:       logger,
		enableColors: enableColors,
	}, nil
}

// NewColoredLogger creates a new colored logger on stdout at the given verbosity.
func NewColoredLogger(level string, enableColors bool) (*ColoredLogger, error) {
	return NewWriterLogger(os.Stdout, level, enableColors)
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(filePath, level string, enableColors bool) (*ColoredLogger, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	return NewWriterLogger(file, level, enableColors)
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// by components constructed without a process environment.
func NewNopLogger() *ColoredLogger {
	return &ColoredLogger{Logger: zap.NewNop()}
}

func (l *ColoredLogger) tag(component Component, msg string) string {
	if l.enableColors {
		color := getComponentColor(component)
		return fmt.Sprintf("%s[%s]%s %s", color, component, Reset, msg)
	}
	return fmt.Sprintf("[%s] %s", component, msg)
}

// Component-specific logging methods
func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	l.Info(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	l.Warn(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	l.Error(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	l.Debug(l.tag(component, msg), fields...)
}
