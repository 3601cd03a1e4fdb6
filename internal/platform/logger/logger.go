package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the process-wide logger.
	Log *zap.Logger
	// Sugar wraps Log with printf-style helpers.
	Sugar *zap.SugaredLogger

	mu sync.RWMutex
)

// Init builds the process logger. Production uses JSON lines, everything
// else the console encoder at debug level.
func Init(env string) error {
	l := build(env)

	mu.Lock()
	Log = l
	Sugar = l.Sugar()
	mu.Unlock()

	return nil
}

func build(env string) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	level := zapcore.DebugLevel
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// GetLogger returns a named child logger, initializing a development logger
// on first use.
func GetLogger(name string) *zap.SugaredLogger {
	return current().Named(name).Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	l := Log
	mu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}

func current() *zap.Logger {
	mu.RLock()
	l := Log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if Log == nil {
		Log = build("development")
		Sugar = Log.Sugar()
	}
	return Log
}
