package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"
)

const timestampLayout = "06-01-02 15:04:05"

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case INFO:
		return logrus.InfoLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.FatalLevel
	}
}

func fromLogrusLevel(level logrus.Level) LogLevel {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return DEBUG
	case logrus.InfoLevel:
		return INFO
	case logrus.WarnLevel:
		return WARN
	case logrus.ErrorLevel:
		return ERROR
	default:
		return FATAL
	}
}

func levelColor(level LogLevel) string {
	switch level {
	case DEBUG:
		return ColorGray
	case INFO:
		return ColorBlue
	case WARN:
		return ColorYellow
	case ERROR:
		return ColorRed
	case FATAL:
		return ColorPurple
	default:
		return ColorWhite
	}
}

// lineFormatter renders "[ts] LEVEL message", colored when Colors is set.
type lineFormatter struct {
	Colors bool
}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := fromLogrusLevel(entry.Level)
	timestamp := entry.Time.Format(timestampLayout)

	if !f.Colors {
		return []byte(fmt.Sprintf("[%s] %-5s %s\n", timestamp, level.String(), entry.Message)), nil
	}

	return []byte(fmt.Sprintf(
		"%s[%s%s%s]%s %s%-5s%s %s%s\n",
		ColorGray, ColorGray, timestamp, ColorGray, ColorReset,
		levelColor(level), level.String(), ColorReset,
		entry.Message, ColorReset,
	)), nil
}

// fileHook mirrors every entry, uncolored, into a rotating log file.
type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

type ColoredLogger struct {
	mu      sync.RWMutex
	verbose bool
	base    *logrus.Logger
	file    *lumberjack.Logger
}

var globalLogger *ColoredLogger

func init() {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&lineFormatter{Colors: isTerminal(os.Stdout)})

	globalLogger = &ColoredLogger{base: base}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func SetVerbose(verbose bool) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.verbose = verbose
	if verbose {
		globalLogger.base.SetLevel(logrus.DebugLevel)
	} else {
		globalLogger.base.SetLevel(logrus.InfoLevel)
	}
}

func IsVerbose() bool {
	globalLogger.mu.RLock()
	defer globalLogger.mu.RUnlock()
	return globalLogger.verbose
}

// SetWriterForAll redirects console output. Colors follow the new writer.
func SetWriterForAll(writer io.Writer) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.base.SetOutput(writer)
	globalLogger.base.SetFormatter(&lineFormatter{Colors: isTerminal(writer)})
}

// SetLogFile adds a rotating plain-text file sink next to the console output.
func SetLogFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	if globalLogger.file != nil {
		return fmt.Errorf("log file already set to %s", globalLogger.file.Filename)
	}

	globalLogger.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	globalLogger.base.AddHook(&fileHook{
		writer:    globalLogger.file,
		formatter: &lineFormatter{},
	})
	return nil
}

// Close flushes and closes the log file sink, if any.
func Close() error {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	if globalLogger.file == nil {
		return nil
	}
	err := globalLogger.file.Close()
	globalLogger.file = nil
	globalLogger.base.ReplaceHooks(make(logrus.LevelHooks))
	return err
}

func (cl *ColoredLogger) log(level LogLevel, format string, args ...interface{}) {
	cl.mu.RLock()
	base := cl.base
	cl.mu.RUnlock()

	message := fmt.Sprintf(format, args...)
	if level == FATAL {
		base.Fatal(message)
		return
	}
	base.Log(level.logrusLevel(), message)
}

func Debug(format string, args ...interface{}) {
	globalLogger.log(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	globalLogger.log(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	globalLogger.log(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	globalLogger.log(ERROR, format, args...)
}

func Fatal(format string, args ...interface{}) {
	globalLogger.log(FATAL, format, args...)
}

func GetLogFromLevel(level LogLevel) func(format string, args ...interface{}) {
	return func(format string, args ...interface{}) {
		globalLogger.log(level, format, args...)
	}
}
