package logs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

type Config struct {
	Level       string
	Development bool
	// Encoding is either json or console.
	Encoding    string
	OutputPaths []string
}

// Init replaces the package logger.
func Init(cfg Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// InitializeFileLogger sends all logs to dir/logs.txt.
func InitializeFileLogger(dir string, level string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "couldn't create %s log directory", dir)
	}
	return Init(Config{
		Level:       level,
		Encoding:    "json",
		OutputPaths: []string{filepath.Join(dir, "logs.txt")},
	})
}

func newLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level '%s'", cfg.Level)
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "console"
	}
	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	out, err := zapCfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't build logger")
	}
	return out, nil
}

func SetLogger(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Logger returns the package logger, creating a warn level stderr logger on first use.
func Logger() *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l, err := newLogger(Config{Level: "warn"})
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	}
	return logger
}

func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
