// Package util carries the process-wide logger. Every other package logs
// through the handle built here so level and encoding are decided once.
package util

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global   *zap.Logger
	initOnce sync.Once
)

// Init builds the process logger and installs it as the zap global. Repeat
// calls return the logger from the first call unchanged.
func Init(environment, level, format string) *zap.Logger {
	initOnce.Do(func() {
		global = build(environment, level, format)
		zap.ReplaceGlobals(global)
	})
	return global
}

func build(environment, level, format string) *zap.Logger {
	production := environment == "production"

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if production {
		encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	// stdout only; container runtimes collect the stream.
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), levelFor(level))
	if production {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if !production {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...)
}

func levelFor(level string) zapcore.Level {
	if level == "warning" {
		return zapcore.WarnLevel
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

// Get returns the process logger, initializing a production default when
// Init has not run yet.
func Get() *zap.Logger {
	if global == nil {
		return Init("production", "info", "json")
	}
	return global
}

// Sync flushes buffered entries. Called once on shutdown.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}

func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

// Field helpers keep call sites free of a direct zap import.
func String(key, value string) zap.Field { return zap.String(key, value) }

func Bool(key string, value bool) zap.Field { return zap.Bool(key, value) }

func Int(key string, value int) zap.Field { return zap.Int(key, value) }

func Duration(key string, value time.Duration) zap.Field { return zap.Duration(key, value) }

// ErrorField wraps zap.Error under a name that does not shadow util.Error.
func ErrorField(err error) zap.Field { return zap.Error(err) }
