package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Options configures file output. An empty Dir logs to the console only.
type Options struct {
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	debugLog = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime)
	infoLog  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	warnLog  = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime)
	errorLog = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime)
	closers  []io.Closer
)

// Setup routes each level to the console plus a rotated file under opts.Dir
// and redirects the standard logger to the info stream.
func Setup(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	minLevel = ParseLevel(opts.Level)
	if opts.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	rotated := func(name string) *lumberjack.Logger {
		l := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, name),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		closers = append(closers, l)
		return l
	}

	infoFile := rotated("info.log")
	warnFile := rotated("warn.log")
	errorFile := rotated("error.log")

	debugLog.SetOutput(io.MultiWriter(os.Stdout, infoFile))
	infoLog.SetOutput(io.MultiWriter(os.Stdout, infoFile))
	warnLog.SetOutput(io.MultiWriter(os.Stdout, warnFile))
	errorLog.SetOutput(io.MultiWriter(os.Stderr, errorFile))

	// Override Go's default log
	log.SetOutput(infoLog.Writer())
	return nil
}

// SetOutput sends every level to w. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range []*log.Logger{debugLog, infoLog, warnLog, errorLog} {
		l.SetOutput(w)
	}
}

// SetLevel changes the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// Close flushes and closes rotated files.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range closers {
		_ = c.Close()
	}
	closers = nil
}

func getCallerInfo() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	name := runtime.FuncForPC(pc).Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func write(level Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}

	entry := fmt.Sprintf("[%s] %s", getCallerInfo(), fmt.Sprintf(format, v...))
	switch level {
	case LevelDebug:
		debugLog.Println(entry)
	case LevelWarn:
		warnLog.Println(entry)
	case LevelError:
		errorLog.Println(entry)
	default:
		infoLog.Println(entry)
	}
}

func Debug(format string, v ...interface{}) { write(LevelDebug, format, v...) }
func Info(format string, v ...interface{})  { write(LevelInfo, format, v...) }
func Warn(format string, v ...interface{})  { write(LevelWarn, format, v...) }
func Error(format string, v ...interface{}) { write(LevelError, format, v...) }
