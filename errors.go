package rotolog

import (
	"fmt"
	"time"
)

// ErrorCode classifies the failures the engine can report.
type ErrorCode int

const (
	// ErrCodeUnknown represents an unclassified error
	ErrCodeUnknown ErrorCode = iota

	// Spec handling errors
	ErrCodeSpecParse
	ErrCodeWatcherRead

	// File operation errors
	ErrCodeFileOpen
	ErrCodeFileWrite
	ErrCodeFileFlush
	ErrCodeFileRotate
	ErrCodeFileClose
	ErrCodeFileLock

	// Cleanup errors
	ErrCodeCompression
	ErrCodeCleanup

	// Lifecycle errors
	ErrCodeShutdown
	ErrCodeClosed
)

// Error is the structured error type used throughout the package. It carries
// the failed operation and the affected path so a single handler can report
// problems from the writer, the watcher and the cleanup engine uniformly.
type Error struct {
	Code ErrorCode
	Op   string // operation that failed, e.g. "rotate", "write", "compress"
	Path string // file path involved, if any
	Err  error  // underlying error
	Time time.Time
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rotolog: %s on %s: %v", e.Op, e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("rotolog: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rotolog: %s failed", e.Op)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error. Two *Error values match when
// their codes are equal, so callers can test categories with errors.Is.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return e.Err != nil && e.Err == target
}

func newError(code ErrorCode, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err, Time: time.Now()}
}

// ErrorHandler receives the engine's own failures: degraded destinations,
// rotation problems, watcher read errors, cleanup failures. Handlers must be
// safe for concurrent use and must not call back into the logger.
type ErrorHandler func(err *Error)
