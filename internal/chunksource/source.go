// Package chunksource implements the pull-based chunk contract the parser
// state machine is driven by (spec §6's chunk source interface): load up to
// maxBytes at a time, and roll back onto an incomplete trailing row so the
// next chunk reconstitutes it whole before the state machine resumes.
//
// The C++ original tracks a single integer read position and lets its
// mmap'd view re-expose already-read bytes on rewind. Go's ownership model
// is different — a []byte handed to a caller may outlive the Source, be
// pooled, or be mutated — so Rewind here takes the tail bytes to re-deliver
// rather than a byte count; every Source copies them into its own pending
// buffer.
package chunksource

import "github.com/google/uuid"

// Source is implemented by every chunk source: file-backed, mmap-backed,
// in-memory, and LZ4-compressed.
type Source interface {
	// NextChunk returns up to maxBytes of newly read data. When a prior call
	// to Rewind left a pending tail, it is delivered whole as a prefix in
	// addition to those bytes, so a chunk can exceed maxBytes — a row can
	// never be split mid-glyph.
	// eof is true once this chunk is known to be the last one available.
	NextChunk(maxBytes int) (data []byte, eof bool, err error)

	// Rewind asks the source to re-deliver tail as a prefix of the next
	// NextChunk call. The source must copy tail; the caller may reuse or
	// recycle its backing array immediately after Rewind returns.
	Rewind(tail []byte) error

	// SessionID tags every chunk produced by this source, for logging and
	// for Reader.SessionID().
	SessionID() uuid.UUID

	// Close releases any resources (file descriptors, mmap'd regions).
	Close() error
}
