package rotolog

import (
	"fmt"
	"strings"
)

// Level is the severity of a log record. Lower numeric values are more
// severe: LevelError is 0 and LevelTrace is 4. A record passes a directive
// whose threshold is at least as verbose as the record's level, i.e.
// record <= threshold.
type Level int

const (
	// LevelError is the most severe level.
	LevelError Level = iota
	// LevelWarn marks conditions that deserve attention but are not errors.
	LevelWarn
	// LevelInfo marks ordinary operational messages.
	LevelInfo
	// LevelDebug is for developer-facing diagnostics.
	LevelDebug
	// LevelTrace is the most verbose level.
	LevelTrace
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

// String returns the upper-case name of the level ("ERROR", "WARN", ...).
func (l Level) String() string {
	if l < LevelError || l > LevelTrace {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// Marker returns the single-letter marker for the level ("E", "W", ...).
func (l Level) Marker() string {
	if l < LevelError || l > LevelTrace {
		return "?"
	}
	return levelNames[l][:1]
}

func (l Level) valid() bool {
	return l >= LevelError && l <= LevelTrace
}

// ParseLevel parses a case-insensitive level name. Accepted names are
// error, warn, info, debug and trace; "warning" is tolerated as an alias.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	}
	return LevelInfo, newError(ErrCodeSpecParse, "parse-level", "", fmt.Errorf("unknown level %q", s))
}
