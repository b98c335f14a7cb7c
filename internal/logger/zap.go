package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"psych-assessment-service/internal/config"
)

// NewZapLogger builds the service logger from config. Development writes to
// stdout; production writes to the configured files.
func NewZapLogger(cfg config.Config) (*zap.Logger, error) {
	outputPaths := []string{"stdout"}
	errorOutputPaths := []string{"stderr"}
	if !cfg.IsDevelopment() {
		if cfg.Logger.OutputFile != "" {
			outputPaths = []string{cfg.Logger.OutputFile}
		}
		if cfg.Logger.ErrorOutputFile != "" {
			errorOutputPaths = append(errorOutputPaths, cfg.Logger.ErrorOutputFile)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Logger.Level)),
		Development:      cfg.IsDevelopment(),
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
	}
	return zapCfg.Build()
}

func parseLevel(raw string) zapcore.Level {
	switch raw {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	}
	return zap.InfoLevel
}
