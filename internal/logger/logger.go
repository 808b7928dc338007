// Package logger builds zap loggers and carries them through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger for the given environment. prod uses JSON
// output, local/dev use console output. levelOverride, if non-empty,
// overrides the log level: debug, info, warn, error.
func New(env, levelOverride string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if levelOverride != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(levelOverride)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelOverride, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
