package rotolog

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Record is one log record as handed over by the upstream facade. Records
// are immutable once created and owned transiently by the call that
// produced them.
type Record struct {
	Level   Level
	Module  string // dot or double-colon separated module path
	Message string
	Time    time.Time
	File    string // optional source file
	Line    int    // optional source line
}

// destinationKind distinguishes the sink behind a destination.
type destinationKind int

const (
	destStderr destinationKind = iota
	destStdout
	destFile
	destWriter
)

// destination is one configured output channel: its sink, its format, its
// optional buffer and, for the managed file, the rotation state. Each
// destination serializes writes through its own mutex so destinations never
// block each other.
type destination struct {
	mu     sync.Mutex
	kind   destinationKind
	name   string
	format FormatFunc

	sink io.Writer     // terminal stream or custom writer
	file *os.File      // managed file, destFile only
	buf  *bufio.Writer // non-nil when buffering is enabled

	rot  *rotationState // destFile only, nil without rotation
	lock *flock.Flock   // destFile only, guards the rotate critical section

	// degraded state: after a write error the destination drops records
	// and reports the failure once instead of once per record
	dropping bool
	reported bool
}

// rotationState is the mutable state of the rotating file writer. It is
// owned by the file destination and only touched with the destination
// mutex held.
type rotationState struct {
	currentPath string
	size        int64
	birth       time.Time
	index       int // next index for NamingNumbers
}

// writerTarget is a custom writer registered at construction.
type writerTarget struct {
	name   string
	w      io.Writer
	format FormatFunc // nil means the configured writer format
}
