package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// Logger writes "[time] [LEVEL] [component] message" lines. Loggers derived
// with Named share the level of their root, so SetLevel applies to all of them.
type Logger struct {
	level  *atomic.Int32
	prefix string
	log    *log.Logger
}

func New(level Level) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter builds a logger that writes to w, mostly useful in tests
func NewWithWriter(level Level, w io.Writer) *Logger {
	l := &Logger{level: new(atomic.Int32), log: log.New(w, "", 0)}
	l.level.Store(int32(level))
	return l
}

// Named returns a child logger whose messages are tagged with a component name
func (l *Logger) Named(component string) *Logger {
	prefix := component
	if l.prefix != "" {
		prefix = l.prefix + "." + component
	}
	return &Logger{level: l.level, prefix: prefix, log: l.log}
}

func (l *Logger) formatMessage(level Level, format string, v ...interface{}) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	levelName := levelNames[level]
	message := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, levelName, l.prefix, message)
	}
	return fmt.Sprintf("[%s] [%s] %s", timestamp, levelName, message)
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if l.GetLevel() <= level {
		l.log.Print(l.formatMessage(level, format, v...))
	}
}

func (l *Logger) Debug(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.logf(INFO, format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.logf(WARN, format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.log.Print(l.formatMessage(FATAL, format, v...))
	os.Exit(1)
}

// SetLevel changes the level of this logger and every logger sharing its root
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) GetLevel() Level {
	return Level(l.level.Load())
}

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

var defaultLogger = New(INFO)

// Default returns the process-wide logger
func Default() *Logger { return defaultLogger }

func Debug(format string, v ...interface{}) { defaultLogger.Debug(format, v...) }
func Info(format string, v ...interface{})  { defaultLogger.Info(format, v...) }
func Warn(format string, v ...interface{})  { defaultLogger.Warn(format, v...) }
func Error(format string, v ...interface{}) { defaultLogger.Error(format, v...) }
func Fatal(format string, v ...interface{}) { defaultLogger.Fatal(format, v...) }

// SetGlobalLevel sets the level for the global logger
func SetGlobalLevel(level Level) {
	defaultLogger.SetLevel(level)
}
