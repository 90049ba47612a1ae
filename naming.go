package rotolog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileSpec describes where the managed log file lives and how it is named.
// The zero value is usable: files land in the current directory, named after
// the program with a startup timestamp and a ".log" suffix.
type FileSpec struct {
	// Directory for the log files. Created if missing. Default ".".
	Directory string
	// Basename of the log files. Default: the program name.
	Basename string
	// Discriminant is an optional infix distinguishing files from
	// different runs or components.
	Discriminant string
	// Suffix without the leading dot. Default "log".
	Suffix string
	// SuppressTimestamp switches unrotated files to a fixed name without
	// the startup timestamp.
	SuppressTimestamp bool
}

func (fs FileSpec) withDefaults() FileSpec {
	if fs.Directory == "" {
		fs.Directory = "."
	}
	if fs.Basename == "" {
		exe := filepath.Base(os.Args[0])
		fs.Basename = strings.TrimSuffix(exe, filepath.Ext(exe))
	}
	if fs.Suffix == "" {
		fs.Suffix = defaultSuffix
	}
	return fs
}

// fileName joins the non-empty name parts with underscores and appends the
// suffix: name[_discriminant][_infix].suffix
func (fs FileSpec) fileName(infix string) string {
	parts := []string{fs.Basename}
	if fs.Discriminant != "" {
		parts = append(parts, fs.Discriminant)
	}
	if infix != "" {
		parts = append(parts, infix)
	}
	return strings.Join(parts, "_") + "." + fs.Suffix
}

// currentPath returns the path of the file that receives new records. With
// rotation the name carries the fixed rCURRENT infix; without rotation it
// carries the startup timestamp unless that is suppressed.
func (fs FileSpec) currentPath(rotating bool, now time.Time) string {
	var infix string
	switch {
	case rotating:
		infix = currentInfix
	case !fs.SuppressTimestamp:
		infix = now.Format(fileTimeFormat)
	}
	return filepath.Join(fs.Directory, fs.fileName(infix))
}

// rotatedPath returns the name the current file is renamed to on rotation.
func (fs FileSpec) rotatedPath(naming Naming, now time.Time, index int) string {
	var infix string
	switch naming {
	case NamingNumbers:
		infix = fmt.Sprintf("r%0*d", indexWidth, index)
	default:
		infix = "r" + now.Format(rotationTimeFormat)
	}
	return filepath.Join(fs.Directory, fs.fileName(infix))
}

// rotatedFile is one rotated (non-current) file found on disk.
type rotatedFile struct {
	path       string
	key        string // sortable: timestamp text or zero-padded index
	compressed bool
}

// listRotated enumerates the rotated files for this FileSpec, newest first.
// The rCURRENT file is never a candidate, so a concurrent writer creating a
// fresh current file cannot race a cleanup pass over the result.
func (fs FileSpec) listRotated() ([]rotatedFile, error) {
	entries, err := os.ReadDir(fs.Directory)
	if err != nil {
		return nil, err
	}

	plainExt := "." + fs.Suffix
	prefix := strings.TrimSuffix(fs.fileName("r"), plainExt) // name[_disc]_r

	var out []rotatedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		compressed := false
		if strings.HasSuffix(rest, ".gz") {
			compressed = true
			rest = strings.TrimSuffix(rest, ".gz")
		}
		if !strings.HasSuffix(rest, plainExt) {
			continue
		}
		key := strings.TrimSuffix(rest, plainExt)
		if key == "" || "r"+key == currentInfix {
			continue
		}
		out = append(out, rotatedFile{
			path:       filepath.Join(fs.Directory, name),
			key:        key,
			compressed: compressed,
		})
	}

	// newest first: both timestamp and zero-padded numeric keys sort
	// lexically
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].key > out[j-1].key; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// nextRotationIndex scans existing rotated files and returns one past the
// highest numeric index found. Rotation indexes therefore continue across
// process restarts instead of resetting and overwriting older files.
func (fs FileSpec) nextRotationIndex() int {
	files, err := fs.listRotated()
	if err != nil {
		return 0
	}
	next := 0
	for _, f := range files {
		if n, err := strconv.Atoi(f.key); err == nil && n+1 > next {
			next = n + 1
		}
	}
	return next
}
