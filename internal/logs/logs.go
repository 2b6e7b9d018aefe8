// Package logs builds the zap loggers used by the command-line tools.
package logs

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls log level and the optional rotating JSON file
type Config struct {
	Level      string `env:"AETHER_LOG_LEVEL"       envDefault:"info"`
	File       string `env:"AETHER_LOG_FILE"`
	MaxSize    int    `env:"AETHER_LOG_MAX_SIZE"    envDefault:"10"` // MB
	MaxBackups int    `env:"AETHER_LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"AETHER_LOG_MAX_AGE"     envDefault:"7"` // days
	Compress   bool   `env:"AETHER_LOG_COMPRESS"`
	Dev        bool   `env:"AETHER_LOG_DEV"`
}

// ConfigFromEnv reads Config from the environment
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse log env: %w", err)
	}
	return cfg, nil
}

// New builds a logger writing coloured text to stderr and, when cfg.File is
// set, JSON lines to a rotated file. Unknown levels fall back to info.
func New(appName string, cfg Config) *zap.Logger {
	return newLogger(appName, cfg, os.Stderr)
}

// NewFileOnly is New without the console core, for programs that own the
// terminal. Without cfg.File nothing is written.
func NewFileOnly(appName string, cfg Config) *zap.Logger {
	return newLogger(appName, cfg, io.Discard)
}

func newLogger(appName string, cfg Config, console io.Writer) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		lvl = zapcore.InfoLevel
	}
	level := zap.NewAtomicLevelAt(lvl)

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(zapcore.AddSync(console)), level)

	// file output never carries ANSI colours
	if cfg.File != "" {
		fileCfg := encoderCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    max(1, cfg.MaxSize),
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge),
			Compress:   cfg.Compress,
		}
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), level))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	return zap.New(core, opts...).Named(appName)
}
