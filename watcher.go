package rotolog

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// SpecErrorPolicy decides what happens when spec text fails to parse.
type SpecErrorPolicy int

const (
	// ReportSpecErrors keeps the previous spec and routes the parse error
	// through the error handler. This is the default.
	ReportSpecErrors SpecErrorPolicy = iota
	// IgnoreSpecErrors keeps the previous spec silently; only the parse
	// failure counter moves.
	IgnoreSpecErrors
	// FailOnSpecErrors makes a malformed spec fatal at startup. After
	// startup the watcher never fails; it behaves like ReportSpecErrors.
	FailOnSpecErrors
)

// specWatcher replaces the base specification whenever the watched file
// changes. It owns all filesystem-observation state and touches the rest of
// the logger only through the spec stack's atomic swap.
type specWatcher struct {
	logger   *Logger
	path     string
	interval time.Duration
	policy   SpecErrorPolicy

	fsw      *fsnotify.Watcher // nil when only polling is available
	lastHash [sha256.Size]byte
	haveHash bool

	done chan struct{}
	wg   sync.WaitGroup
}

// startSpecWatcher seeds the spec file if it does not exist, applies its
// current contents, and launches the watch goroutine. A malformed file is
// fatal here only under FailOnSpecErrors.
func (l *Logger) startSpecWatcher(path string, interval time.Duration, policy SpecErrorPolicy) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	w := &specWatcher{
		logger:   l,
		path:     path,
		interval: interval,
		policy:   policy,
		done:     make(chan struct{}),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := w.seed(); err != nil {
			return err
		}
	} else if err := w.reload(true); err != nil {
		return err
	}

	// fsnotify gives prompt reaction to edits; the poll ticker stays as a
	// fallback for editors that replace the inode and for platforms where
	// the watch cannot be established.
	if fsw, err := fsnotify.NewWatcher(); err == nil {
		if err := fsw.Add(filepath.Dir(path)); err == nil {
			w.fsw = fsw
		} else {
			fsw.Close()
		}
	}

	w.wg.Add(1)
	go w.watch()
	l.watcher = w
	return nil
}

// seed writes the logger's current base spec into a missing spec file so the
// operator has a template to edit.
func (w *specWatcher) seed() error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return newError(ErrCodeWatcherRead, "seed-specfile", w.path, err)
	}
	text := w.logger.specs.Effective().Text() + "\n"
	if err := os.WriteFile(w.path, []byte(text), defaultFilePerm); err != nil {
		return newError(ErrCodeWatcherRead, "seed-specfile", w.path, err)
	}
	w.lastHash = sha256.Sum256([]byte(text))
	w.haveHash = true
	return nil
}

func (w *specWatcher) watch() {
	defer w.wg.Done()
	if w.fsw != nil {
		defer w.fsw.Close()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var fsErrors chan error
	if w.fsw != nil {
		events = w.fsw.Events
		fsErrors = w.fsw.Errors
	}

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.checkAndReload()
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.handleError(newError(ErrCodeWatcherRead, "watch", w.path, err))
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

func (w *specWatcher) stop() {
	close(w.done)
	w.wg.Wait()
}

func (w *specWatcher) checkAndReload() {
	if err := w.reload(false); err != nil {
		w.logger.handleError(newError(ErrCodeWatcherRead, "reload-specfile", w.path, err))
	}
}

// reload reads the spec file, retrying briefly when it is absent or empty
// (an editor doing truncate+rewrite), and swaps the base spec when the
// contents changed. Parse failures leave the previous spec active per the
// configured policy; only at startup under FailOnSpecErrors are they fatal.
func (w *specWatcher) reload(startup bool) error {
	var data []byte
	read := func() error {
		b, err := os.ReadFile(w.path)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return errors.New("spec file empty, possibly mid-write")
		}
		data = b
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(25*time.Millisecond),
		backoff.WithMaxInterval(250*time.Millisecond),
	), 5)
	if err := backoff.Retry(read, bo); err != nil {
		if startup {
			return newError(ErrCodeWatcherRead, "read-specfile", w.path, err)
		}
		// transient: keep the previous spec, try again on the next tick
		return nil
	}

	hash := sha256.Sum256(data)
	if w.haveHash && hash == w.lastHash {
		return nil
	}
	w.lastHash = hash
	w.haveHash = true

	spec, err := ParseSpec(string(data))
	if err != nil {
		w.logger.metrics.specParseFailures.Add(1)
		if startup && w.policy == FailOnSpecErrors {
			return err
		}
		if w.policy != IgnoreSpecErrors {
			w.logger.handleError(err.(*Error))
		}
		return nil
	}

	w.logger.specs.SetBase(spec)
	w.logger.metrics.specReloads.Add(1)
	return nil
}
