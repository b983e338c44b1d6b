// Package logging builds the zap logger shared by every command. Console
// output goes to stderr so stdout carries only the report.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "VISION_LAB_LOG_LEVEL"

// Options selects the level and destinations.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Debug forces the debug level regardless of Level and EnvLevel.
	Debug bool
	// File, when set, receives a timestamped JSON copy of every entry.
	File string

	// Console defaults to os.Stderr.
	Console io.Writer
}

// New returns a sugared logger and a function that flushes and closes any log
// file. The close function is safe to call when no file was configured.
func New(opts Options) (*zap.SugaredLogger, func() error, error) {
	level, err := resolveLevel(opts)
	if err != nil {
		return nil, nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.AddSync(console), level),
	}

	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(file), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closer := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger.Sugar(), closer, nil
}

func resolveLevel(opts Options) (zapcore.Level, error) {
	if opts.Debug {
		return zapcore.DebugLevel, nil
	}
	name := opts.Level
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		name = env
	}
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
