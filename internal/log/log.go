// Package log provides leveled logging for shellcap.
package log

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// stderr is a close-on-exec copy of fd 2 taken when the program starts.
// Running a command points fd 2 at a spool file for a moment; log output
// written through this copy keeps reaching the real stderr meanwhile.
var stderr io.Writer = dupStderr()

func dupStderr() io.Writer {
	fd, err := unix.FcntlInt(uintptr(unix.Stderr), unix.F_DUPFD_CLOEXEC, 3)
	if err != nil {
		return os.Stderr
	}
	return os.NewFile(uintptr(fd), "/dev/stderr")
}

// Stderr returns the writer loggers use for the process's original stderr.
// Use it instead of os.Stderr for anything that may be written while a
// command is starting.
func Stderr() io.Writer {
	return stderr
}

// Logger defines the interface for logging operations.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps slog.Logger to implement our Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Info logs an info message.
func (s *SlogAdapter) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// New returns a text logger writing to w. Verbose enables debug output;
// otherwise only warnings and errors are written.
func New(w io.Writer, verbose bool) Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	return &SlogAdapter{logger: slog.New(slog.NewTextHandler(w, opts))}
}

// NewLogger returns a logger writing to Stderr. Stdout is left to the
// command output the CLI prints.
func NewLogger(verbose bool) Logger {
	return New(Stderr(), verbose)
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return New(io.Discard, false)
}
