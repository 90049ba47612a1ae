package rotolog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
)

// Logger is the runtime engine: it filters records against the effective
// specification, multiplexes them across the configured destinations, and
// keeps the managed file rotated and cleaned up. The Logger value is also
// the caller-facing handle for pushing temporary specs, flushing and
// shutting down.
//
// A Logger is safe for concurrent use. If multiple processes write to the
// same rotating file concurrently, behavior is undefined.
type Logger struct {
	specs *SpecStack

	dests      []*destination
	fileDest   *destination
	stderrDest *destination
	stdoutDest *destination
	dupStderr  *Level
	dupStdout  *Level

	fileSpec FileSpec
	rotate   *RotateConfig
	cleaner  *cleanupWorker
	watcher  *specWatcher

	flushDone chan struct{}
	flushWg   sync.WaitGroup

	errorHandler ErrorHandler
	metrics      metrics
	eol          string
	now          func() time.Time

	closed       atomic.Bool
	shutdownOnce sync.Once
}

// New creates a logger filtering by the given spec text. By default records
// go to stderr with an adaptive format; options select files, rotation,
// cleanup, buffering, duplication, custom writers and the spec-file watcher.
//
// A malformed spec is fatal here unless IgnoreSpecErrors was chosen, in
// which case the well-formed directives take effect and the rest is dropped.
func New(spec string, opts ...Option) (*Logger, error) {
	cfg := &Config{BackgroundCleanup: true}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	base, perr := ParseSpec(spec)
	if perr != nil && cfg.OnSpecError != IgnoreSpecErrors {
		return nil, perr
	}

	l := &Logger{
		specs:        NewSpecStack(base),
		fileSpec:     cfg.FileSpec.withDefaults(),
		rotate:       cfg.Rotate,
		dupStderr:    cfg.DupStderr,
		dupStdout:    cfg.DupStdout,
		errorHandler: cfg.ErrorHandler,
		eol:          "\n",
		now:          time.Now,
	}
	if cfg.WindowsLineEnding {
		l.eol = "\r\n"
	}
	if l.errorHandler == nil {
		l.errorHandler = func(err *Error) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
	if cfg.Palette != nil {
		setPalette(*cfg.Palette)
	}

	// tty probes happen once here, never per record
	l.stderrDest = &destination{
		kind:   destStderr,
		name:   "stderr",
		sink:   os.Stderr,
		format: terminalFormat(cfg.FormatStderr, cfg.AdaptiveStderr, isTerminal(os.Stderr)),
	}
	l.stdoutDest = &destination{
		kind:   destStdout,
		name:   "stdout",
		sink:   os.Stdout,
		format: terminalFormat(cfg.FormatStdout, cfg.AdaptiveStdout, isTerminal(os.Stdout)),
	}

	switch cfg.Target {
	case TargetStdout:
		l.dests = append(l.dests, l.stdoutDest)
	case TargetFile:
		d, err := l.openFileDestination(cfg)
		if err != nil {
			return nil, err
		}
		l.fileDest = d
		l.dests = append(l.dests, d)
	case TargetNone:
		// only custom writers
	default:
		l.dests = append(l.dests, l.stderrDest)
	}

	writerFmt := cfg.FormatWriters
	if writerFmt == nil {
		writerFmt = DefaultFormat
	}
	for _, wt := range cfg.Writers {
		format := wt.format
		if format == nil {
			format = writerFmt
		}
		d := &destination{kind: destWriter, name: wt.name, sink: wt.w, format: format}
		if cfg.BufferSize > 0 {
			d.buf = bufio.NewWriterSize(wt.w, cfg.BufferSize)
		}
		l.dests = append(l.dests, d)
	}

	// duplication mirrors file records to a terminal; it is meaningless
	// without a file destination or when that terminal is already primary
	if l.fileDest == nil {
		l.dupStderr, l.dupStdout = nil, nil
	}

	if l.rotate != nil && l.rotate.Cleanup.active() && cfg.BackgroundCleanup {
		l.startCleanupWorker()
	}

	if cfg.SpecFile != "" {
		if err := l.startSpecWatcher(cfg.SpecFile, cfg.SpecFileInterval, cfg.OnSpecError); err != nil {
			l.teardownDests()
			return nil, err
		}
	}

	if cfg.FlushInterval > 0 {
		l.startFlushTimer(cfg.FlushInterval)
	}

	if cfg.PrintMessage && l.fileDest != nil {
		fmt.Printf("Log is written to %s\n", l.fileDest.name)
	}

	return l, nil
}

// terminalFormat resolves the format for a terminal stream: an adaptive pair
// beats an explicit function, and the default is the adaptive default pair.
func terminalFormat(explicit FormatFunc, adaptive *AdaptiveFormat, tty bool) FormatFunc {
	if adaptive != nil {
		return adaptive.resolve(tty)
	}
	if explicit != nil {
		return explicit
	}
	return AdaptiveDefault.resolve(tty)
}

// openFileDestination opens the managed log file and, with rotation
// configured, primes the rotation state from what is on disk.
func (l *Logger) openFileDestination(cfg *Config) (*destination, error) {
	fs := l.fileSpec
	if err := os.MkdirAll(fs.Directory, defaultDirPerm); err != nil {
		return nil, newError(ErrCodeFileOpen, "mkdir", fs.Directory, err)
	}

	rotating := l.rotate != nil
	now := l.now()
	path := fs.currentPath(rotating, now)

	flag := os.O_CREATE | os.O_WRONLY
	if rotating || cfg.Append || !fs.SuppressTimestamp {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, newError(ErrCodeFileLock, "lock", path, err)
	}
	defer lock.Unlock()

	file, err := os.OpenFile(path, flag, defaultFilePerm)
	if err != nil {
		return nil, newError(ErrCodeFileOpen, "open", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, newError(ErrCodeFileOpen, "stat", path, err)
	}

	fileFmt := cfg.FormatFile
	if fileFmt == nil {
		fileFmt = DefaultFormat
	}

	d := &destination{kind: destFile, name: path, file: file, format: fileFmt}
	if cfg.BufferSize > 0 {
		d.buf = bufio.NewWriterSize(file, cfg.BufferSize)
	}
	if rotating {
		// an rCURRENT file left over from a previous run keeps its age:
		// its last modification stands in for the creation time
		birth := now
		if info.Size() > 0 {
			birth = info.ModTime()
		}
		d.rot = &rotationState{currentPath: path, size: info.Size(), birth: birth}
		if l.rotate.Naming == NamingNumbers {
			d.rot.index = fs.nextRotationIndex()
		}
		d.lock = lock
	}
	return d, nil
}

func (l *Logger) teardownDests() {
	for _, d := range l.allDests() {
		d.close() //nolint:errcheck // best effort during failed startup
	}
}

// Enabled reports whether a record at the given level from the given module
// would currently be written. This is the hot-path check: one atomic load
// plus the prefix match, no locks.
func (l *Logger) Enabled(level Level, module string) bool {
	if l.closed.Load() {
		return false
	}
	return l.specs.Effective().Enabled(level, module)
}

// Log submits one record. Disabled and post-shutdown records are dropped
// without error; log calls never fail.
func (l *Logger) Log(level Level, module, message string) {
	l.LogRecord(Record{Level: level, Module: module, Message: message})
}

// LogRecord submits a fully built record, stamping the time if unset.
func (l *Logger) LogRecord(r Record) {
	if l.closed.Load() {
		l.metrics.dropped.Add(1)
		return
	}
	if !l.specs.Effective().Enabled(r.Level, r.Module) {
		return
	}
	if r.Time.IsZero() {
		r.Time = l.now()
	}
	l.dispatch(r)
}

// Errorf logs a formatted message at LevelError for the given module.
func (l *Logger) Errorf(module, format string, args ...interface{}) {
	l.logf(LevelError, module, format, args...)
}

// Warnf logs a formatted message at LevelWarn for the given module.
func (l *Logger) Warnf(module, format string, args ...interface{}) {
	l.logf(LevelWarn, module, format, args...)
}

// Infof logs a formatted message at LevelInfo for the given module.
func (l *Logger) Infof(module, format string, args ...interface{}) {
	l.logf(LevelInfo, module, format, args...)
}

// Debugf logs a formatted message at LevelDebug for the given module.
func (l *Logger) Debugf(module, format string, args ...interface{}) {
	l.logf(LevelDebug, module, format, args...)
}

// Tracef logs a formatted message at LevelTrace for the given module.
func (l *Logger) Tracef(module, format string, args ...interface{}) {
	l.logf(LevelTrace, module, format, args...)
}

func (l *Logger) logf(level Level, module, format string, args ...interface{}) {
	// the enabled check runs before the message is rendered so disabled
	// records cost no formatting work
	if !l.Enabled(level, module) {
		return
	}
	l.LogRecord(Record{Level: level, Module: module, Message: fmt.Sprintf(format, args...)})
}

// PushTempSpec parses text and pushes it as a temporary override; the
// previous effective spec is restored by PopTempSpec. A malformed text is
// rejected without pushing unless IgnoreSpecErrors is in effect, in which
// case the well-formed directives are pushed.
func (l *Logger) PushTempSpec(text string) error {
	spec, err := ParseSpec(text)
	if err != nil {
		l.metrics.specParseFailures.Add(1)
		return err
	}
	l.specs.Push(spec)
	return nil
}

// PushTempSpecIgnoringErrors pushes whatever well-formed directives text
// contains, never failing.
func (l *Logger) PushTempSpecIgnoringErrors(text string) {
	spec, err := ParseSpec(text)
	if err != nil {
		l.metrics.specParseFailures.Add(1)
	}
	l.specs.Push(spec)
}

// PopTempSpec removes the most recently pushed temporary spec. Popping with
// nothing pushed is a no-op.
func (l *Logger) PopTempSpec() {
	l.specs.Pop()
}

// Spec returns the currently effective specification snapshot.
func (l *Logger) Spec() *Specification {
	return l.specs.Effective()
}

// CurrentPath returns the path of the managed log file, or "" when no file
// destination is configured.
func (l *Logger) CurrentPath() string {
	if l.fileDest == nil {
		return ""
	}
	return l.fileDest.name
}

// handleError routes an engine failure to the configured handler.
func (l *Logger) handleError(err *Error) {
	if h := l.errorHandler; h != nil {
		h(err)
	}
}

// Shutdown drains and stops the logger: the watcher and flush timer are
// cancelled, in-flight background cleanup is awaited (bounded by ctx), all
// buffers are flushed and all destinations closed. Subsequent log calls are
// no-ops rather than errors. Shutdown is idempotent and best-effort: the
// first error is returned but the remaining steps still run.
func (l *Logger) Shutdown(ctx context.Context) error {
	var err error
	l.shutdownOnce.Do(func() {
		l.closed.Store(true)

		if l.watcher != nil {
			l.watcher.stop()
		}
		l.stopFlushTimer()

		if l.cleaner != nil {
			done := make(chan struct{})
			go func() {
				l.cleaner.stop()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				err = newError(ErrCodeShutdown, "await-cleanup", "", ctx.Err())
			}
		}

		for _, d := range l.allDests() {
			if cerr := d.close(); cerr != nil && err == nil {
				err = newError(ErrCodeFileClose, "close", d.name, cerr)
			}
		}
	})
	return err
}
