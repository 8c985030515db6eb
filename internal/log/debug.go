// Package log is the blendgit debug log. Messages are buffered until a log
// file is configured, then flushed to it; with no file they are dropped.
package log

import (
	"log"
	"os"
	"sync"
)

// DebugLogger is the io.Writer behind every debug logger.
type DebugLogger struct {
	mu      sync.Mutex
	file    *os.File
	buffer  []byte
	discard bool
}

var (
	globalDebugLogger = &DebugLogger{}
	stdLogger         = log.New(globalDebugLogger, "", log.LstdFlags|log.Lmicroseconds)
)

// Write implements io.Writer.
func (l *DebugLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.discard {
		return len(p), nil
	}

	if l.file != nil {
		n, err = l.file.Write(p)
		_ = l.file.Sync()
		return n, err
	}

	// p may be reused by the caller.
	l.buffer = append(l.buffer, p...)
	return len(p), nil
}

// SetFile directs the log to path, flushing what was buffered so far. An
// empty path drops the buffer and every later message.
func SetFile(path string) error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file != nil {
		_ = globalDebugLogger.file.Close()
		globalDebugLogger.file = nil
	}

	if path == "" {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return err
	}

	globalDebugLogger.file = f
	globalDebugLogger.discard = false

	if len(globalDebugLogger.buffer) > 0 {
		_, _ = f.Write(globalDebugLogger.buffer)
		_ = f.Sync()
		globalDebugLogger.buffer = nil
	}

	return nil
}

// Printf writes a formatted debug message.
func Printf(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Println writes a debug message.
func Println(v ...any) {
	stdLogger.Println(v...)
}

// Close closes the debug log file if open.
func Close() error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file == nil {
		return nil
	}

	err := globalDebugLogger.file.Close()
	globalDebugLogger.file = nil
	return err
}

// Logger tags debug messages with a component name.
type Logger struct {
	prefix string
}

// Named returns a logger whose messages start with "[name] ".
func Named(name string) *Logger {
	return &Logger{prefix: "[" + name + "] "}
}

// With returns a logger nested under l, e.g. "[dispatch] [op=1a2b] ".
func (l *Logger) With(name string) *Logger {
	return &Logger{prefix: l.prefix + "[" + name + "] "}
}

// Printf writes a formatted message with the component prefix.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		stdLogger.Printf(format, args...)
		return
	}
	stdLogger.Printf(l.prefix+format, args...)
}
