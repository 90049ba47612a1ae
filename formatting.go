package rotolog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

// FormatFunc renders one record into one line of text, without the trailing
// line ending. Formats are selected per output channel and a custom function
// can be supplied wherever a built-in fits poorly.
type FormatFunc func(w io.Writer, r Record) error

// DefaultFormat writes "LEVEL [module] message".
func DefaultFormat(w io.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "%s [%s] %s", r.Level, r.Module, r.Message)
	return err
}

// OptFormat writes a short wall-clock time, the level and the source
// location: "15:04:05.000 LEVEL [file:line] message". The module path stands
// in when no location was captured.
func OptFormat(w io.Writer, r Record) error {
	loc := r.Module
	if r.File != "" {
		loc = fmt.Sprintf("%s:%d", r.File, r.Line)
	}
	_, err := fmt.Fprintf(w, "%s %s [%s] %s",
		r.Time.Format("15:04:05.000"), r.Level, loc, r.Message)
	return err
}

// DetailedFormat writes the full timestamp, level, module and location.
func DetailedFormat(w io.Writer, r Record) error {
	if r.File != "" {
		_, err := fmt.Fprintf(w, "%s %s [%s] %s:%d: %s",
			r.Time.Format("2006-01-02 15:04:05.000000 -0700"),
			r.Level, r.Module, r.File, r.Line, r.Message)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s [%s] %s",
		r.Time.Format("2006-01-02 15:04:05.000000 -0700"),
		r.Level, r.Module, r.Message)
	return err
}

// Palette maps each level to an ANSI SGR parameter string. An empty entry
// leaves that level uncolored.
type Palette [LevelTrace + 1]string

// DefaultPalette colors errors red, warnings yellow and the verbose levels
// dim gray; info stays uncolored.
var DefaultPalette = Palette{
	LevelError: "1;31",
	LevelWarn:  "33",
	LevelInfo:  "",
	LevelDebug: "90",
	LevelTrace: "90",
}

// activePalette is fixed once at logger start (WithPalette) and read by the
// colored formats on every call.
var activePalette atomic.Value // Palette

func init() {
	activePalette.Store(DefaultPalette)
}

func setPalette(p Palette) {
	activePalette.Store(p)
}

func colorize(level Level, text string) string {
	p := activePalette.Load().(Palette)
	if !level.valid() || p[level] == "" {
		return text
	}
	return "\x1b[" + p[level] + "m" + text + "\x1b[0m"
}

func colored(inner FormatFunc) FormatFunc {
	return func(w io.Writer, r Record) error {
		var sb strings.Builder
		if err := inner(&sb, r); err != nil {
			return err
		}
		_, err := io.WriteString(w, colorize(r.Level, sb.String()))
		return err
	}
}

// ColoredDefaultFormat is DefaultFormat with the line colored by level.
var ColoredDefaultFormat = colored(DefaultFormat)

// ColoredOptFormat is OptFormat with the line colored by level.
var ColoredOptFormat = colored(OptFormat)

// ColoredDetailedFormat is DetailedFormat with the line colored by level.
var ColoredDetailedFormat = colored(DetailedFormat)

// AdaptiveFormat selects between a colored and a plain variant of a built-in
// format depending on whether the output channel is a terminal. The probe
// happens once at logger start, never per record.
type AdaptiveFormat int

const (
	// AdaptiveDefault pairs DefaultFormat with ColoredDefaultFormat.
	AdaptiveDefault AdaptiveFormat = iota
	// AdaptiveOpt pairs OptFormat with ColoredOptFormat.
	AdaptiveOpt
	// AdaptiveDetailed pairs DetailedFormat with ColoredDetailedFormat.
	AdaptiveDetailed
)

func (a AdaptiveFormat) resolve(tty bool) FormatFunc {
	switch a {
	case AdaptiveOpt:
		if tty {
			return ColoredOptFormat
		}
		return OptFormat
	case AdaptiveDetailed:
		if tty {
			return ColoredDetailedFormat
		}
		return DetailedFormat
	default:
		if tty {
			return ColoredDefaultFormat
		}
		return DefaultFormat
	}
}

// isTerminal probes whether f is attached to a tty.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
