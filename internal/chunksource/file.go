package chunksource

import (
	"fmt"
	"os"
)

// NewFileSource opens path for buffered, non-mmap'd chunked reading.
func NewFileSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunksource: open %s: %w", path, err)
	}
	return NewReaderSource(f, f), nil
}
