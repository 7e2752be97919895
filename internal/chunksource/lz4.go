package chunksource

import (
	"fmt"
	"os"

	"github.com/pierrec/lz4/v4"
)

// NewLZ4Source opens an LZ4-compressed CSV file (".csv.lz4") and decodes it
// on the fly into the same chunked Source contract as the plain file source,
// so downstream code never has to special-case compressed input.
func NewLZ4Source(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunksource: open %s: %w", path, err)
	}
	zr := lz4.NewReader(f)
	return NewReaderSource(zr, f), nil
}
