package chunksource

import (
	"github.com/google/uuid"

	"github.com/shapestone/streamcsv/internal/fastparser"
)

// MmapSource serves chunks as windows directly into a memory-mapped file,
// grounded on fastparser's MmapFile (itself adapted from the original's
// MmapParser::next, which advances mmap_pos and rolls it back on an
// incomplete row instead of copying bytes).
type MmapSource struct {
	data      []byte
	cleanup   func()
	pos       int
	pending   []byte
	sessionID uuid.UUID
}

// NewMmapSource memory-maps path. On platforms without mmap support,
// fastparser.MmapFile falls back to a full read whose cleanup closes the
// file.
func NewMmapSource(path string) (*MmapSource, error) {
	data, cleanup, err := fastparser.MmapFile(path)
	if err != nil {
		return nil, err
	}
	return &MmapSource{data: data, cleanup: cleanup, sessionID: uuid.New()}, nil
}

func (s *MmapSource) SessionID() uuid.UUID { return s.sessionID }

func (s *MmapSource) NextChunk(maxBytes int) ([]byte, bool, error) {
	remaining := len(s.data) - s.pos
	n := maxBytes
	if n > remaining {
		n = remaining
	}
	var chunk []byte
	if len(s.pending) == 0 {
		// No rewound tail: hand out the mmap window directly, zero-copy.
		chunk = s.data[s.pos : s.pos+n]
	} else {
		chunk = make([]byte, 0, len(s.pending)+n)
		chunk = append(chunk, s.pending...)
		chunk = append(chunk, s.data[s.pos:s.pos+n]...)
		s.pending = s.pending[:0]
	}
	s.pos += n
	return chunk, s.pos >= len(s.data), nil
}

func (s *MmapSource) Rewind(tail []byte) error {
	s.pending = append(s.pending[:0], tail...)
	return nil
}

func (s *MmapSource) Close() error {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return nil
}
