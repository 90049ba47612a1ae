package rotolog

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

type cleanupMode int

const (
	cleanupNever cleanupMode = iota
	cleanupKeep
)

// Cleanup is the retention policy applied to rotated files after each
// rotation. Construct values with KeepLogFiles, KeepCompressedFiles,
// KeepLogAndCompressedFiles or CleanupNever.
type Cleanup struct {
	mode           cleanupMode
	keepRaw        int
	keepCompressed int
}

// CleanupNever retains every rotated file; no deletion, no compression.
var CleanupNever = Cleanup{mode: cleanupNever}

// KeepLogFiles keeps the newest n rotated files and deletes the rest.
func KeepLogFiles(n int) Cleanup {
	return Cleanup{mode: cleanupKeep, keepRaw: n}
}

// KeepCompressedFiles keeps the newest n rotated files in compressed form
// and deletes the rest.
func KeepCompressedFiles(n int) Cleanup {
	return Cleanup{mode: cleanupKeep, keepCompressed: n}
}

// KeepLogAndCompressedFiles keeps the newest keep rotated files as they are,
// compresses the next compress files, and deletes everything older.
func KeepLogAndCompressedFiles(keep, compress int) Cleanup {
	return Cleanup{mode: cleanupKeep, keepRaw: keep, keepCompressed: compress}
}

func (c Cleanup) active() bool {
	return c.mode != cleanupNever
}

// cleanupWorker runs retention passes off the record-submission path. The
// writer hands over the rotated file path and continues; the worker owns all
// enumeration and deletion work.
type cleanupWorker struct {
	ch   chan string
	done chan struct{}
	wg   sync.WaitGroup
}

func (l *Logger) startCleanupWorker() {
	w := &cleanupWorker{ch: make(chan string, 16), done: make(chan struct{})}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.done:
				return
			case <-w.ch:
				l.cleanupPass()
			}
		}
	}()
	l.cleaner = w
}

// stop waits for an in-flight pass to finish; queued passes are abandoned.
// The channel is never closed, so a writer racing shutdown cannot panic.
func (w *cleanupWorker) stop() {
	close(w.done)
	w.wg.Wait()
}

// runCleanup triggers a retention pass for the just-rotated file, inline or
// on the background worker depending on configuration.
func (l *Logger) runCleanup(rotatedPath string) {
	if l.rotate == nil || !l.rotate.Cleanup.active() {
		return
	}
	if l.cleaner != nil {
		select {
		case l.cleaner.ch <- rotatedPath:
		default:
			// worker saturated; the next rotation will catch up
		}
		return
	}
	l.cleanupPass()
}

// cleanupPass enumerates the rotated files (never the current one), newest
// first, and applies the retention policy by position: the first keepRaw
// files stay untouched, the next keepCompressed are compressed, the rest are
// deleted. Individual file failures are reported and skipped; the pass
// continues with the remaining candidates.
func (l *Logger) cleanupPass() {
	policy := l.rotate.Cleanup
	files, err := l.fileSpec.listRotated()
	if err != nil {
		l.handleError(newError(ErrCodeCleanup, "cleanup-scan", l.fileSpec.Directory, err))
		return
	}

	for i, f := range files {
		switch {
		case i < policy.keepRaw:
			// newest files stay as they are, compressed or not
		case i < policy.keepRaw+policy.keepCompressed:
			if f.compressed {
				continue
			}
			if err := compressFileGzip(f.path); err != nil {
				l.handleError(newError(ErrCodeCompression, "compress", f.path, err))
				continue
			}
			l.metrics.compressed.Add(1)
		default:
			if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
				l.handleError(newError(ErrCodeCleanup, "remove",
					f.path, errors.Wrap(err, "removing excess rotated file")))
				continue
			}
			l.metrics.removed.Add(1)
		}
	}
}
