package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LoggingConfig selects console verbosity and an optional log file.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=none normal debug"`
	File  string `mapstructure:"file"`
	Mode  string `mapstructure:"mode" validate:"omitempty,oneof=append overwrite"`
}

// Prepare builds the program logger. With quietConsole set nothing is
// written to the terminal; the TUI owns the screen while it runs.
func (conf LoggingConfig) Prepare(quietConsole bool) (*zap.Logger, error) {
	var level zapcore.Level
	switch conf.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "none":
		return zap.NewNop(), nil
	default:
		level = zapcore.InfoLevel
	}

	var cores []zapcore.Core

	if !quietConsole {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		if term.IsTerminal(int(os.Stderr.Fd())) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
			ec.TimeKey = zapcore.OmitKey
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), level))
	}

	if conf.File != "" {
		flags := os.O_CREATE | os.O_WRONLY
		if conf.Mode == "overwrite" {
			flags |= os.O_TRUNC
		} else {
			flags |= os.O_APPEND
		}
		f, err := os.OpenFile(conf.File, flags, 0644)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(f),
			level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}
