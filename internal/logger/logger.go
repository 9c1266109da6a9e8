// Package logger provides the structured logging ambient stack, adapted
// from sarvarkurbonov-controlling_furnace/internal/logger: a sugared zap
// logger behind a small numeric-level-to-zap-level mapping, switchable at runtime
// by the CLI's LOG 0|1|2 command (spec.md §6).
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels named to match the CLI's numeric LOG command.
const (
	LevelError = 0
	LevelWarn  = 1
	LevelDebug = 2
)

// Logger wraps zap's SugaredLogger behind an AtomicLevel so the CLI
// goroutine can change verbosity while the tick goroutine logs through
// the same *zap.SugaredLogger without a data race: base and atom are
// set once in New and never reassigned.
type Logger struct {
	atom zap.AtomicLevel
	base *zap.SugaredLogger
}

func toZapLevel(level int) zapcore.Level {
	switch level {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.DebugLevel
	}
}

func newConsoleCore(atom zap.AtomicLevel) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(cfg)
	return zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(newStdoutSink())), atom)
}

// New constructs a logger at the given numeric level (0=error, 1=warn,
// 2=debug).
func New(level int) *Logger {
	atom := zap.NewAtomicLevelAt(toZapLevel(level))
	return &Logger{
		atom: atom,
		base: zap.New(newConsoleCore(atom)).Sugar(),
	}
}

// SetLevel adjusts the shared AtomicLevel in place, for the CLI's LOG
// command. Safe to call concurrently with Debugf/Warnf/Errorf/Infof from
// the tick goroutine.
func (l *Logger) SetLevel(level int) {
	l.atom.SetLevel(toZapLevel(level))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.base.Debugf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.base.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.base.Errorf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.base.Infof(format, args...) }
