package rotolog

import "io"

// dispatch routes one enabled record to every configured destination and
// applies the duplication rule. Destinations are written under their own
// mutexes, so a slow or failing destination never blocks the others beyond
// this goroutine's own sequential visit.
func (l *Logger) dispatch(r Record) {
	for _, d := range l.dests {
		l.writeTo(d, r)
	}

	if l.fileDest == nil {
		return
	}
	if l.dupStderr != nil && r.Level <= *l.dupStderr {
		l.writeTo(l.stderrDest, r)
	}
	if l.dupStdout != nil && r.Level <= *l.dupStdout {
		l.writeTo(l.stdoutDest, r)
	}
}

// writeTo renders the record with the destination's format and appends the
// line to its sink. A failed write flips the destination into a dropping
// state that is reported once, not per record; other destinations are
// unaffected.
func (l *Logger) writeTo(d *destination, r Record) {
	buf := getLineBuffer()
	defer putLineBuffer(buf)

	if err := d.format(buf, r); err != nil {
		l.metrics.writeErrors.Add(1)
		return
	}
	buf.WriteString(l.eol)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dropping {
		l.metrics.dropped.Add(1)
		return
	}

	l.maybeRotate(d, buf.Len())

	out := d.out()
	if out == nil {
		d.dropping = true
		l.metrics.dropped.Add(1)
		return
	}

	n, err := out.Write(buf.Bytes())
	if err != nil {
		d.dropping = true
		l.metrics.dropped.Add(1)
		l.metrics.writeErrors.Add(1)
		l.reportOnce(d, newError(ErrCodeFileWrite, "write", d.name, err))
		return
	}
	if d.rot != nil {
		d.rot.size += int64(n)
	}
	l.metrics.written.Add(1)
}

// out returns the destination's write path: the buffer when buffering is on,
// otherwise the file or sink directly. Called with d.mu held.
func (d *destination) out() io.Writer {
	if d.buf != nil {
		return d.buf
	}
	if d.kind == destFile {
		if d.file == nil {
			return nil
		}
		return d.file
	}
	return d.sink
}

// reportOnce forwards the error to the handler the first time a destination
// fails, avoiding a log storm of identical reports.
func (l *Logger) reportOnce(d *destination, err *Error) {
	if d.reported {
		return
	}
	d.reported = true
	l.handleError(err)
}
