package rotolog

import (
	"fmt"
	"io"
	"time"
)

// LogTarget selects the primary output channel.
type LogTarget int

const (
	// TargetStderr writes records to stderr. This is the default.
	TargetStderr LogTarget = iota
	// TargetStdout writes records to stdout.
	TargetStdout
	// TargetFile writes records to the managed log file.
	TargetFile
	// TargetNone discards records; only custom writers receive them.
	TargetNone
)

// Config collects everything an Option can set. Options validate their
// input; New validates cross-field constraints.
type Config struct {
	Target      LogTarget
	OnSpecError SpecErrorPolicy

	FileSpec FileSpec
	Append   bool

	Rotate            *RotateConfig
	BackgroundCleanup bool

	FormatFile     FormatFunc
	FormatStderr   FormatFunc
	FormatStdout   FormatFunc
	FormatWriters  FormatFunc
	AdaptiveStderr *AdaptiveFormat
	AdaptiveStdout *AdaptiveFormat
	Palette        *Palette

	DupStderr *Level
	DupStdout *Level

	BufferSize    int
	FlushInterval time.Duration

	SpecFile         string
	SpecFileInterval time.Duration

	Writers []writerTarget

	PrintMessage      bool
	WindowsLineEnding bool
	ErrorHandler      ErrorHandler
}

// Option is a functional option for configuring a Logger.
type Option func(*Config) error

// LogToFile sends records to the managed log file instead of stderr.
func LogToFile() Option {
	return func(c *Config) error {
		c.Target = TargetFile
		return nil
	}
}

// LogToStdout sends records to stdout instead of stderr.
func LogToStdout() Option {
	return func(c *Config) error {
		c.Target = TargetStdout
		return nil
	}
}

// LogToNothing discards records except for registered custom writers.
func LogToNothing() Option {
	return func(c *Config) error {
		c.Target = TargetNone
		return nil
	}
}

// WithDirectory places the log files in dir, creating it if necessary.
func WithDirectory(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("directory cannot be empty"))
		}
		c.FileSpec.Directory = dir
		return nil
	}
}

// WithBasename overrides the program-name-derived base of the log file name.
func WithBasename(name string) Option {
	return func(c *Config) error {
		c.FileSpec.Basename = name
		return nil
	}
}

// WithDiscriminant adds a discriminating infix to the log file name,
// separating files from different runs or components.
func WithDiscriminant(d string) Option {
	return func(c *Config) error {
		c.FileSpec.Discriminant = d
		return nil
	}
}

// WithSuffix changes the log file suffix from the default "log".
func WithSuffix(suffix string) Option {
	return func(c *Config) error {
		if suffix == "" {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("suffix cannot be empty"))
		}
		c.FileSpec.Suffix = suffix
		return nil
	}
}

// WithSuppressTimestamp uses a fixed file name without the startup
// timestamp. Without WithAppend, a restart truncates the existing file.
func WithSuppressTimestamp() Option {
	return func(c *Config) error {
		c.FileSpec.SuppressTimestamp = true
		return nil
	}
}

// WithAppend appends to an existing fixed-name log file instead of
// truncating it at startup.
func WithAppend() Option {
	return func(c *Config) error {
		c.Append = true
		return nil
	}
}

// WithRotate enables rotation of the managed file. The criterion decides
// when to rotate, the naming scheme decides what rotated files are called,
// and the cleanup policy bounds how many of them accumulate.
func WithRotate(criterion Criterion, naming Naming, cleanup Cleanup) Option {
	return func(c *Config) error {
		if criterion.kind != criterionAge && criterion.maxSize <= 0 {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("rotation size limit must be positive"))
		}
		c.Rotate = &RotateConfig{Criterion: criterion, Naming: naming, Cleanup: cleanup}
		return nil
	}
}

// WithBackgroundCleanup selects whether retention passes run on a background
// task (the default) or inline on the goroutine that triggered the rotation.
func WithBackgroundCleanup(background bool) Option {
	return func(c *Config) error {
		c.BackgroundCleanup = background
		return nil
	}
}

// WithFormat sets the format function for all output channels.
func WithFormat(f FormatFunc) Option {
	return func(c *Config) error {
		if f == nil {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("format function cannot be nil"))
		}
		c.FormatFile = f
		c.FormatStderr = f
		c.FormatStdout = f
		c.FormatWriters = f
		return nil
	}
}

// WithFormatForFiles sets the format used for the managed file.
func WithFormatForFiles(f FormatFunc) Option {
	return func(c *Config) error {
		c.FormatFile = f
		return nil
	}
}

// WithFormatForStderr sets the format used for stderr.
func WithFormatForStderr(f FormatFunc) Option {
	return func(c *Config) error {
		c.FormatStderr = f
		c.AdaptiveStderr = nil
		return nil
	}
}

// WithFormatForStdout sets the format used for stdout.
func WithFormatForStdout(f FormatFunc) Option {
	return func(c *Config) error {
		c.FormatStdout = f
		c.AdaptiveStdout = nil
		return nil
	}
}

// WithFormatForWriters sets the default format for custom writers.
func WithFormatForWriters(f FormatFunc) Option {
	return func(c *Config) error {
		c.FormatWriters = f
		return nil
	}
}

// WithAdaptiveFormatForStderr picks the colored variant of the pair when
// stderr is a terminal and the plain variant when it is not. The probe runs
// once at start.
func WithAdaptiveFormatForStderr(a AdaptiveFormat) Option {
	return func(c *Config) error {
		c.AdaptiveStderr = &a
		return nil
	}
}

// WithAdaptiveFormatForStdout is WithAdaptiveFormatForStderr for stdout.
func WithAdaptiveFormatForStdout(a AdaptiveFormat) Option {
	return func(c *Config) error {
		c.AdaptiveStdout = &a
		return nil
	}
}

// WithPalette replaces the level-to-color mapping used by the colored
// formats.
func WithPalette(p Palette) Option {
	return func(c *Config) error {
		c.Palette = &p
		return nil
	}
}

// WithDuplicateToStderr mirrors records at least as severe as level from the
// managed file to stderr, using stderr's own format.
func WithDuplicateToStderr(level Level) Option {
	return func(c *Config) error {
		if !level.valid() {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("invalid duplication level %d", level))
		}
		c.DupStderr = &level
		return nil
	}
}

// WithDuplicateToStdout mirrors records at least as severe as level from the
// managed file to stdout.
func WithDuplicateToStdout(level Level) Option {
	return func(c *Config) error {
		if !level.valid() {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("invalid duplication level %d", level))
		}
		c.DupStdout = &level
		return nil
	}
}

// WithBuffered buffers writes to the managed file and to custom writers,
// reducing I/O overhead under heavy logging. Pair with WithFlushInterval or
// call Flush/Shutdown so buffered records are not delayed indefinitely.
func WithBuffered(size int) Option {
	return func(c *Config) error {
		if size <= 0 {
			size = defaultBufferSize
		}
		c.BufferSize = size
		return nil
	}
}

// WithFlushInterval flushes all destinations at the given cadence from a
// background task.
func WithFlushInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("flush interval must be positive"))
		}
		c.FlushInterval = interval
		return nil
	}
}

// WithSpecFile watches path for edits and swaps the base specification when
// its contents change. A zero interval polls every 2 seconds; the file is
// created and seeded with the initial spec if it does not exist.
func WithSpecFile(path string, interval time.Duration) Option {
	return func(c *Config) error {
		if path == "" {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("spec file path cannot be empty"))
		}
		c.SpecFile = path
		c.SpecFileInterval = interval
		return nil
	}
}

// WithSpecErrorPolicy decides how malformed spec text is treated, both at
// startup and when the watched spec file changes.
func WithSpecErrorPolicy(p SpecErrorPolicy) Option {
	return func(c *Config) error {
		c.OnSpecError = p
		return nil
	}
}

// WithWriter registers a custom destination. Writers are fixed for the
// process lifetime once the logger starts.
func WithWriter(name string, w io.Writer) Option {
	return WithFormattedWriter(name, w, nil)
}

// WithFormattedWriter registers a custom destination with its own format
// function; a nil format falls back to the writers' default format.
func WithFormattedWriter(name string, w io.Writer, format FormatFunc) Option {
	return func(c *Config) error {
		if w == nil {
			return newError(ErrCodeUnknown, "config", "", fmt.Errorf("writer %q cannot be nil", name))
		}
		if name == "" {
			name = fmt.Sprintf("writer-%d", len(c.Writers))
		}
		c.Writers = append(c.Writers, writerTarget{name: name, w: w, format: format})
		return nil
	}
}

// WithPrintMessage announces the log file path on stdout at startup.
func WithPrintMessage() Option {
	return func(c *Config) error {
		c.PrintMessage = true
		return nil
	}
}

// WithWindowsLineEnding terminates records with CRLF instead of LF.
func WithWindowsLineEnding() Option {
	return func(c *Config) error {
		c.WindowsLineEnding = true
		return nil
	}
}

// WithErrorHandler routes the engine's own failures (degraded destinations,
// rotation or watcher problems) to h instead of the default stderr line.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Config) error {
		c.ErrorHandler = h
		return nil
	}
}
