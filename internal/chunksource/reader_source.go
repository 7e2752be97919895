package chunksource

import (
	"io"

	"github.com/google/uuid"

	"github.com/shapestone/streamcsv/internal/fastparser"
)

// ReaderSource adapts any io.Reader into a Source. It backs both the plain
// file source and the LZ4-compressed source, which differ only in how the
// underlying io.Reader is constructed.
type ReaderSource struct {
	r         io.Reader
	closer    io.Closer
	pending   []byte
	sessionID uuid.UUID
	closed    bool
}

// NewReaderSource wraps r. closer may be nil when there is nothing to close.
func NewReaderSource(r io.Reader, closer io.Closer) *ReaderSource {
	return &ReaderSource{r: r, closer: closer, sessionID: uuid.New()}
}

func (s *ReaderSource) SessionID() uuid.UUID { return s.sessionID }

// NextChunk draws its scratch buffer from fastparser's pool. Ownership of the
// returned slice passes to the caller; pkg/csvstream's Reader never puts it
// back, since a zero-copy Row/Field may still be viewing it.
func (s *ReaderSource) NextChunk(maxBytes int) ([]byte, bool, error) {
	total := maxBytes + len(s.pending)
	buf := fastparser.GetBuffer()
	if cap(buf) < total {
		buf = make([]byte, 0, total)
	}
	buf = append(buf, s.pending...)
	s.pending = s.pending[:0]

	for len(buf) < total {
		n, err := s.r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err != nil {
			if err == io.EOF {
				return buf, true, nil
			}
			return buf, false, err
		}
		if n == 0 {
			break
		}
	}
	return buf, false, nil
}

func (s *ReaderSource) Rewind(tail []byte) error {
	s.pending = append(s.pending[:0], tail...)
	return nil
}

func (s *ReaderSource) Close() error {
	if s.closed || s.closer == nil {
		return nil
	}
	s.closed = true
	return s.closer.Close()
}
