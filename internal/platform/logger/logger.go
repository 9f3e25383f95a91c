package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/lumberjack.v3"
)

var once sync.Once
var appLogger *zap.Logger
var stateLogger *zap.Logger

// Config describes one rotating JSON log file and whether the logger also
// writes human readable lines to stderr.
type Config struct {
	Filename   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Console    bool
}

// Get returns the process logger, creating it from LOG_DIR, LOG_LEVEL and
// LOG_CONSOLE on first use.
func Get() *zap.Logger {
	once.Do(initLoggers)
	return appLogger
}

// GetStateLogger returns the logger that records best ask and bid after
// every book change. It never writes to the console.
func GetStateLogger() *zap.Logger {
	once.Do(initLoggers)
	return stateLogger
}

func Sync() error {
	once.Do(initLoggers)
	return multierr.Append(appLogger.Sync(), stateLogger.Sync())
}

func New(config Config) (*zap.Logger, error) {
	rotator, err := openRotator(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", config.Filename, err)
	}

	level := zap.NewAtomicLevelAt(levelFromEnv())

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.TimeKey = "timestamp"
	jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), rotator, level),
	}

	if config.Console {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		// stdout belongs to the book display
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func openRotator(config Config) (zapcore.WriteSyncer, error) {
	maxBytes := int64(config.MaxSize * 1024 * 1024)
	if config.Compress {
		rotator, err := lumberjack.New(
			lumberjack.WithFileName(config.Filename),
			lumberjack.WithMaxBytes(maxBytes),
			lumberjack.WithMaxBackups(config.MaxBackups),
			lumberjack.WithMaxDays(config.MaxAge),
			lumberjack.WithCompress(),
		)
		if err != nil {
			return nil, err
		}
		return zapcore.AddSync(rotator), nil
	}

	rotator, err := lumberjack.New(
		lumberjack.WithFileName(config.Filename),
		lumberjack.WithMaxBytes(maxBytes),
		lumberjack.WithMaxBackups(config.MaxBackups),
		lumberjack.WithMaxDays(config.MaxAge),
	)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(rotator), nil
}

func levelFromEnv() zapcore.Level {
	level, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func initLoggers() {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}

	var err error
	appLogger, err = New(Config{
		Filename:   filepath.Join(dir, "app.log"),
		MaxSize:    5,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
		Console:    os.Getenv("LOG_CONSOLE") != "false",
	})
	if err != nil {
		log.Fatalf("failed to create app logger: %v", err)
	}

	stateLogger, err = New(Config{
		Filename:   filepath.Join(dir, "book_state.log"),
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     3,
		Compress:   true,
	})
	if err != nil {
		log.Fatalf("failed to create state logger: %v", err)
	}
}
