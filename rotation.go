package rotolog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// AgeUnit is the calendar granularity for age-based rotation.
type AgeUnit int

const (
	// AgeDay rotates on the first write of a new calendar day.
	AgeDay AgeUnit = iota
	// AgeHour rotates on the first write of a new hour.
	AgeHour
	// AgeMinute rotates on the first write of a new minute.
	AgeMinute
	// AgeSecond rotates on the first write of a new second.
	AgeSecond
)

// stamp collapses t to the unit's granularity; rotation triggers when the
// stamp of "now" differs from the stamp of the current file's birth.
func (u AgeUnit) stamp(t time.Time) string {
	switch u {
	case AgeHour:
		return t.Format("2006-01-02_15")
	case AgeMinute:
		return t.Format("2006-01-02_15-04")
	case AgeSecond:
		return t.Format("2006-01-02_15-04-05")
	default:
		return t.Format("2006-01-02")
	}
}

type criterionKind int

const (
	criterionAge criterionKind = iota
	criterionSize
	criterionAgeOrSize
)

// Criterion is the condition that triggers rotation of the current file.
type Criterion struct {
	kind    criterionKind
	unit    AgeUnit
	maxSize int64
}

// RotateAge rotates when the clock switches to a new day, hour, minute or
// second, per the given granularity.
func RotateAge(unit AgeUnit) Criterion {
	return Criterion{kind: criterionAge, unit: unit}
}

// RotateSize rotates before a write that would push the current file past
// limit bytes. Records are never split across files; the crossing record
// opens the next file.
func RotateSize(limit int64) Criterion {
	return Criterion{kind: criterionSize, maxSize: limit}
}

// RotateAgeOrSize rotates when either the age or the size condition holds.
func RotateAgeOrSize(unit AgeUnit, limit int64) Criterion {
	return Criterion{kind: criterionAgeOrSize, unit: unit, maxSize: limit}
}

func (c Criterion) triggered(st *rotationState, now time.Time, incoming int) bool {
	ageHit := func() bool {
		return c.unit.stamp(st.birth) != c.unit.stamp(now)
	}
	sizeHit := func() bool {
		return st.size > 0 && st.size+int64(incoming) > c.maxSize
	}
	switch c.kind {
	case criterionSize:
		return sizeHit()
	case criterionAgeOrSize:
		return ageHit() || sizeHit()
	default:
		return ageHit()
	}
}

// Naming selects how the current file is renamed when it is rotated out.
type Naming int

const (
	// NamingTimestamps embeds the rotation timestamp in the file name.
	NamingTimestamps Naming = iota
	// NamingNumbers embeds a zero-padded, monotonically increasing index.
	NamingNumbers
)

// RotateConfig bundles the rotation criterion, the naming scheme for rotated
// files and the retention policy applied after each rotation.
type RotateConfig struct {
	Criterion Criterion
	Naming    Naming
	Cleanup   Cleanup
}

// maybeRotate checks the criterion and runs the rotation sequence when it
// fires. Called with d.mu held, before the incoming line is written, so no
// record lands in the old file after the rotation decision.
func (l *Logger) maybeRotate(d *destination, incoming int) {
	if d.rot == nil || d.file == nil {
		return
	}
	now := l.now()
	if !l.rotate.Criterion.triggered(d.rot, now, incoming) {
		return
	}
	if err := l.rotateFile(d, now); err != nil {
		l.reportOnce(d, newError(ErrCodeFileRotate, "rotate", d.rot.currentPath, err))
	}
}

// rotateFile closes, renames and reopens the managed file. Called with d.mu
// held; the flock guards the on-disk transition against other processes that
// honor the same advisory lock. If the rename fails the writer falls back to
// appending to the pre-rotation file; if the reopen fails the destination
// degrades to dropping.
func (l *Logger) rotateFile(d *destination, now time.Time) error {
	if d.lock != nil {
		if err := d.lock.Lock(); err == nil {
			defer d.lock.Unlock()
		}
	}

	if d.buf != nil {
		if err := d.buf.Flush(); err != nil {
			return errors.Wrap(err, "flushing current log")
		}
	}
	if err := d.file.Close(); err != nil {
		return errors.Wrap(err, "closing current log")
	}

	rotated := l.fileSpec.rotatedPath(l.rotate.Naming, now, d.rot.index)
	if l.rotate.Naming == NamingNumbers {
		// skip any index that exists on disk already
		for fileExists(rotated) || fileExists(rotated+".gz") {
			d.rot.index++
			rotated = l.fileSpec.rotatedPath(l.rotate.Naming, now, d.rot.index)
		}
	} else {
		// several rotations within one second need distinct names
		base := rotated
		ext := filepath.Ext(base)
		for n := 1; fileExists(rotated) || fileExists(rotated+".gz"); n++ {
			rotated = strings.TrimSuffix(base, ext) + fmt.Sprintf(".%d", n) + ext
		}
	}

	if err := os.Rename(d.rot.currentPath, rotated); err != nil {
		// keep appending to the old file if it can be reopened
		if file, openErr := os.OpenFile(d.rot.currentPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFilePerm); openErr == nil {
			d.file = file
			d.resetSink()
		} else {
			d.dropping = true
		}
		return errors.Wrap(err, "renaming current log")
	}

	file, err := os.OpenFile(d.rot.currentPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		d.file = nil
		d.dropping = true
		return errors.Wrap(err, "creating new current log")
	}

	d.file = file
	d.resetSink()
	d.rot.size = 0
	d.rot.birth = now
	d.rot.index++
	l.metrics.rotations.Add(1)

	l.runCleanup(rotated)
	return nil
}

// resetSink repoints the destination's write path at the (re)opened file,
// re-wrapping it in a fresh buffer when buffering is on.
func (d *destination) resetSink() {
	if d.buf != nil {
		d.buf = bufio.NewWriterSize(d.file, d.buf.Size())
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
