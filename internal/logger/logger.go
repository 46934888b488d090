// Package logger provides structured logging using Zap.
//
// Request-scoped code (handlers, middleware) uses the process-wide logger from
// Get. Long-lived components such as the ledger poster and the scheduler take
// a *zap.SugaredLogger in their constructors, usually Get().Named(...).
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// New builds a sugared logger for the given environment.
// "production" selects a JSON encoder at info level; anything else gets the
// human-readable development console encoder.
func New(env string) *zap.SugaredLogger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar()
}

// Init initializes the global logger for the given environment.
func Init(env string) {
	once.Do(func() {
		sugar = New(env)
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
