package rotolog

import "time"

const (
	defaultSuffix       = "log"
	defaultBufferSize   = 8 * 1024
	defaultPollInterval = 2 * time.Second
	defaultFilePerm     = 0644
	defaultDirPerm      = 0755

	// currentInfix marks the file that is being written to while rotation
	// is configured; rotated files get a timestamp or number instead.
	currentInfix = "rCURRENT"

	// rotationTimeFormat is the timestamp embedded in rotated file names.
	// It is sortable, so cleanup can order files lexically.
	rotationTimeFormat = "2006-01-02_15-04-05"

	// fileTimeFormat is the startup timestamp embedded in unrotated file
	// names.
	fileTimeFormat = "2006-01-02_15-04-05"

	// indexWidth is the zero-padded width of numeric rotation infixes.
	indexWidth = 5
)
