// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// New builds a zap logger and the atomic level that controls it
func New(cfg config.LoggingConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, level, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	case "file":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, level, fmt.Errorf("open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
	default:
		sink = zapcore.Lock(os.Stdout)
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.EnableStackTrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(zapcore.NewCore(encoder, sink, level), opts...), level, nil
}

// SetLevel changes the level of a running logger
func SetLevel(level zap.AtomicLevel, name string) error {
	return level.UnmarshalText([]byte(name))
}
