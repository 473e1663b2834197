// Package logger wraps a zap SugaredLogger behind package-level helpers.
// Until Init is called every helper writes to a no-op logger.
package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	sugar.Store(zap.NewNop().Sugar())
}

// Init builds the process logger. format is "console" or "json"; an
// unparseable level falls back to info.
func Init(level, format string) error {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	var zapConfig zap.Config
	if format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.Encoding = "console"
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = "json"
	}

	zapConfig.Level = logLevel
	zapConfig.OutputPaths = []string{"stderr"}

	l, err := zapConfig.Build()
	if err != nil {
		return err
	}
	sugar.Store(l.Sugar())
	return nil
}

// Set replaces the process logger, mainly for tests.
func Set(l *zap.Logger) {
	sugar.Store(l.Sugar())
}

func Infof(template string, args ...interface{}) {
	sugar.Load().Infof(template, args...)
}

// Infow logs a message with structured key/value context.
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Load().Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Load().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Load().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugar.Load().Errorw(msg, keysAndValues...)
}

func Debugf(template string, args ...interface{}) {
	sugar.Load().Debugf(template, args...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = sugar.Load().Sync()
}
