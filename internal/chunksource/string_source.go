package chunksource

import (
	"github.com/google/uuid"
)

// StringSource serves an in-memory buffer as chunks. It backs
// csvstream.NewReaderFromString and is the default source for tests.
type StringSource struct {
	data      []byte
	pos       int
	pending   []byte
	sessionID uuid.UUID
}

// NewStringSource wraps data for chunked reading without copying it.
func NewStringSource(data []byte) *StringSource {
	return &StringSource{data: data, sessionID: uuid.New()}
}

func (s *StringSource) SessionID() uuid.UUID { return s.sessionID }

func (s *StringSource) NextChunk(maxBytes int) ([]byte, bool, error) {
	remaining := len(s.data) - s.pos
	n := maxBytes
	if n > remaining {
		n = remaining
	}
	chunk := make([]byte, 0, len(s.pending)+n)
	chunk = append(chunk, s.pending...)
	chunk = append(chunk, s.data[s.pos:s.pos+n]...)
	s.pos += n
	s.pending = s.pending[:0]
	return chunk, s.pos >= len(s.data), nil
}

func (s *StringSource) Rewind(tail []byte) error {
	s.pending = append(s.pending[:0], tail...)
	return nil
}

func (s *StringSource) Close() error { return nil }
