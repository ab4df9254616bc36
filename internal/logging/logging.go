// Package logging builds the logr.Logger used by the CLI.
package logging

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Development enables debug-level output and a human-oriented encoder.
	Development bool
	// Output defaults to stderr.
	Output io.Writer
}

// DevelopmentFromEnv reports whether DEBUG=true is set.
func DevelopmentFromEnv() bool {
	return os.Getenv("DEBUG") == "true"
}

// New returns a zap-backed logr.Logger. V(1) messages are only written in
// development mode.
func New(opts Options) logr.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var (
		encCfg zapcore.EncoderConfig
		level  zapcore.Level
		enc    zapcore.Encoder
	)
	if opts.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
		// logr V(n) maps to zap level -n
		level = zapcore.Level(-2)
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), zap.NewAtomicLevelAt(level))
	return zapr.NewLogger(zap.New(core))
}
