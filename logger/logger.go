// Package logger provides the structured logging used by the storage
// core: the buffer pool logs eviction write-back failures here rather
// than panicking, and the transaction manager traces begin, commit and
// rollback. The file manager and lock manager do not log.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	Logger      *logrus.Logger
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func init() {
	// a usable default so packages can log before Init is called, e.g. in tests
	_ = Init(Config{Level: "info"})
}

// Config controls where logs are written and at what level.
type Config struct {
	ErrorLogPath string
	InfoLogPath  string
	Level        string
}

type callerFormatter struct{}

func (callerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("15:04:05 2006/01/02")
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	return []byte(fmt.Sprintf("[%s] [%s] (%s) %s\n", timestamp, level, caller(), entry.Message)), nil
}

func caller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen/logrus") || strings.Contains(file, "logger/logger.go") {
			continue
		}
		funcName := runtime.FuncForPC(pc).Name()
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), funcName, line)
	}
	return "unknown:unknown:0"
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Init (re)configures the package-level loggers. Safe to call more than
// once; later calls replace the previous configuration.
func Init(cfg Config) error {
	formatter := callerFormatter{}
	lvl := parseLevel(cfg.Level)

	Logger = logrus.New()
	Logger.SetFormatter(formatter)
	Logger.SetLevel(lvl)

	InfoLogger = logrus.New()
	InfoLogger.SetFormatter(formatter)
	InfoLogger.SetLevel(lvl)
	InfoLogger.SetOutput(outputFor(cfg.InfoLogPath, os.Stdout, InfoLogger))

	ErrorLogger = logrus.New()
	ErrorLogger.SetFormatter(formatter)
	ErrorLogger.SetLevel(lvl)
	ErrorLogger.SetOutput(outputFor(cfg.ErrorLogPath, os.Stderr, ErrorLogger))

	Logger.SetOutput(InfoLogger.Out)
	return nil
}

func outputFor(path string, fallback *os.File, l *logrus.Logger) io.Writer {
	if path == "" {
		return fallback
	}
	f, err := openLogFile(path)
	if err != nil {
		l.Warnf("failed to open log file %s, falling back: %v", path, err)
		return fallback
	}
	return io.MultiWriter(fallback, f)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { InfoLogger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { ErrorLogger.Errorf(format, args...) }
