// Package logger provides run logging for the datacore CLI. Warnings
// always reach stderr so skipped files and reclaimed locks are visible
// in normal operation; debug and info messages and the phase markers
// around ingest and search runs appear only with the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output, primarily for tests. Defaults to
// os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf is the single sink every level writes through. Callers hold mu.
func logf(tag, format string, args ...any) {
	fmt.Fprintf(output, "["+tag+"] "+format+"\n", args...)
}

// Debug prints pipeline detail (per-file decisions, chunk counts) in
// verbose mode.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		logf("DEBUG", format, args...)
	}
}

// Info prints run-level progress in verbose mode.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		logf("INFO", format, args...)
	}
}

// Warn prints a warning. Warnings are not gated on verbose mode:
// a skipped file or a reclaimed lock is something the operator should
// see even on a quiet run.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logf("WARN", format, args...)
}

// Section prints a marker opening a run phase in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n--- %s ---\n", name)
	}
}
