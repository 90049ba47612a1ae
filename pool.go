package rotolog

import (
	"bytes"
	"sync"
)

// linePool recycles the scratch buffers used to render records before they
// are handed to a destination's sink. One rendered line lives entirely in
// one buffer, so a single sink write carries a whole record and concurrent
// records never interleave mid-line.
var linePool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

func getLineBuffer() *bytes.Buffer {
	return linePool.Get().(*bytes.Buffer)
}

func putLineBuffer(b *bytes.Buffer) {
	// Oversized buffers are dropped instead of pinned in the pool.
	if b.Cap() > 64*1024 {
		return
	}
	b.Reset()
	linePool.Put(b)
}
