package rotolog

import "time"

// startFlushTimer launches the background task that flushes every
// destination at the configured cadence, so buffered records surface even
// when logging is sparse.
func (l *Logger) startFlushTimer(interval time.Duration) {
	l.flushDone = make(chan struct{})
	l.flushWg.Add(1)
	go func() {
		defer l.flushWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-l.flushDone:
				return
			case <-ticker.C:
				l.Flush() //nolint:errcheck // periodic flush is best-effort
			}
		}
	}()
}

func (l *Logger) stopFlushTimer() {
	if l.flushDone == nil {
		return
	}
	close(l.flushDone)
	l.flushWg.Wait()
	l.flushDone = nil
}

// Flush forces all buffered bytes through to the underlying sinks. The
// first error encountered is returned; remaining destinations are still
// flushed.
func (l *Logger) Flush() error {
	var first error
	for _, d := range l.allDests() {
		if err := d.flush(); err != nil && first == nil {
			first = newError(ErrCodeFileFlush, "flush", d.name, err)
		}
	}
	return first
}

// allDests returns the primary destinations plus any duplication-only
// terminal destinations.
func (l *Logger) allDests() []*destination {
	dests := make([]*destination, 0, len(l.dests)+2)
	dests = append(dests, l.dests...)
	for _, d := range []*destination{l.stderrDest, l.stdoutDest} {
		if d == nil {
			continue
		}
		primary := false
		for _, p := range l.dests {
			if p == d {
				primary = true
				break
			}
		}
		if !primary {
			dests = append(dests, d)
		}
	}
	return dests
}

func (d *destination) flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf == nil {
		return nil
	}
	return d.buf.Flush()
}

// close flushes and closes the destination. Managed files are closed;
// terminal streams and custom writers are only flushed.
func (d *destination) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first error
	if d.buf != nil {
		if err := d.buf.Flush(); err != nil {
			first = err
		}
		d.buf = nil
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && first == nil {
			first = err
		}
		d.file = nil
	}
	d.dropping = true
	return first
}
