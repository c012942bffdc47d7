// Package hlog provides the structured phase logging used across the
// build driver, grounded on the pack's zap bootstrap convention
// (theRebelliousNerd-codenerd's cmd/nerd/main.go: zap.NewProductionConfig,
// a debug level gated on a verbose flag, Sync on exit) — the teacher
// itself carries no structured-logging dependency, so this package's
// shape is adopted from the rest of the retrieval pack rather than the
// teacher.
package hlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for the build driver: human-readable console
// output at info level, or at debug level when verbose is set, which
// makes Phase's per-phase timing lines visible.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// Phase logs one completed build-driver phase at debug level, the unit
// the driver's PhaseTimings map records in milliseconds.
func Phase(log *zap.Logger, name string, ms int64) {
	log.Debug("phase complete", zap.String("phase", name), zap.Int64("ms", ms))
}
