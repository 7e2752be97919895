package fastparser

import (
	"sync"

	"github.com/shapestone/streamcsv/internal/rawbuf"
)

// locPool is a sync.Pool for []rawbuf.FieldLoc slices, handed out by
// GetFieldLocs and taken back by PutFieldLocs. Reader does not use it: each
// chunk's RawCSVData grows its own Fields slice.
var locPool = sync.Pool{
	New: func() interface{} {
		s := make([]rawbuf.FieldLoc, 0, 32)
		return &s
	},
}

// GetFieldLocs returns a []rawbuf.FieldLoc from the pool, length 0.
func GetFieldLocs() []rawbuf.FieldLoc {
	p := locPool.Get().(*[]rawbuf.FieldLoc)
	locs := (*p)[:0]
	return locs
}

// PutFieldLocs returns a []rawbuf.FieldLoc to the pool. Slices that grew
// unreasonably large are dropped rather than pinned in the pool forever.
func PutFieldLocs(locs []rawbuf.FieldLoc) {
	const maxCapacity = 4096
	if cap(locs) > maxCapacity {
		return
	}
	locs = locs[:0]
	locPool.Put(&locs)
}

// bufferPool is a sync.Pool for []byte chunk buffers, shared by every
// chunksource.Source implementation that reads into a scratch buffer rather
// than mmap'ing or holding the whole input in memory.
var bufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 64*1024)
		return &b
	},
}

// GetBuffer returns a []byte buffer from the pool, length 0.
func GetBuffer() []byte {
	p := bufferPool.Get().(*[]byte)
	buf := (*p)[:0]
	return buf
}

// PutBuffer returns a []byte buffer to the pool. Buffers that grew past
// maxCapacity are dropped instead of pinned in the pool forever.
func PutBuffer(buf []byte) {
	const maxCapacity = 4 * 1024 * 1024
	if cap(buf) > maxCapacity {
		return
	}
	buf = buf[:0]
	bufferPool.Put(&buf)
}
