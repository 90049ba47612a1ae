package rotolog

import "sync/atomic"

// metrics is the logger's internal counter block. Counters are atomic so
// the hot path never takes a lock to account for a record.
type metrics struct {
	written           atomic.Uint64
	dropped           atomic.Uint64
	writeErrors       atomic.Uint64
	rotations         atomic.Uint64
	compressed        atomic.Uint64
	removed           atomic.Uint64
	specReloads       atomic.Uint64
	specParseFailures atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the logger's counters.
type MetricsSnapshot struct {
	// Written counts successful destination writes. A record fanned out
	// to several destinations counts once per destination.
	Written uint64
	// Dropped counts records discarded by degraded destinations or after
	// shutdown.
	Dropped uint64
	// WriteErrors counts destination write failures.
	WriteErrors uint64
	// Rotations counts completed file rotations.
	Rotations uint64
	// CompressedFiles counts rotated files compressed by cleanup.
	CompressedFiles uint64
	// RemovedFiles counts rotated files deleted by cleanup.
	RemovedFiles uint64
	// SpecReloads counts base-spec swaps performed by the spec-file
	// watcher.
	SpecReloads uint64
	// SpecParseFailures counts malformed spec texts seen by the watcher.
	SpecParseFailures uint64
}

// Metrics returns a snapshot of the logger's counters.
func (l *Logger) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Written:           l.metrics.written.Load(),
		Dropped:           l.metrics.dropped.Load(),
		WriteErrors:       l.metrics.writeErrors.Load(),
		Rotations:         l.metrics.rotations.Load(),
		CompressedFiles:   l.metrics.compressed.Load(),
		RemovedFiles:      l.metrics.removed.Load(),
		SpecReloads:       l.metrics.specReloads.Load(),
		SpecParseFailures: l.metrics.specParseFailures.Load(),
	}
}
