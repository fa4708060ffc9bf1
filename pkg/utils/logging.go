package utils

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Logger returns the process logger. LOG_FILE tees JSON output to a file and
// LOG_LEVEL overrides the starting level.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return logger
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		_ = level.UnmarshalText([]byte(lvl))
	}
	logger = build(os.Getenv("LOG_FILE"))
	return logger
}

// SetLevel changes the level of the shared logger at runtime.
func SetLevel(lvl string) error {
	return level.UnmarshalText([]byte(lvl))
}

func build(logFile string) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	consoleCore := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)
	if logFile == "" {
		return zap.New(consoleCore, zap.AddCaller())
	}
	_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zap.New(consoleCore, zap.AddCaller())
	}
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(f), level)
	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller())
}

// Configure rebuilds the shared logger from configuration values. An empty
// file keeps console-only output.
func Configure(lvl, logFile string) (*zap.Logger, error) {
	mu.Lock()
	defer mu.Unlock()
	if lvl != "" {
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			return nil, err
		}
	}
	if logger != nil {
		_ = logger.Sync()
	}
	logger = build(logFile)
	return logger, nil
}
