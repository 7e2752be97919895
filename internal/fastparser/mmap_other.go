//go:build !unix

package fastparser

import (
	"fmt"
	"io"
	"os"
)

// MmapFile reads a file into memory on non-Unix platforms: same signature as
// mmap_unix.go's MmapFile, but a buffered read in place of Mmap/Madvise,
// mirroring entreya-csvquery's Windows MmapFile falling back to io.ReadAll
// rather than reimplementing mmap's unsafe pointer arithmetic without an
// external library. The file handle is opened explicitly (not
// os.ReadFile) so cleanup has a real resource to release, matching
// mmap_unix.go's open/cleanup shape; there is no mapping to unmap, only the
// handle to close.
func MmapFile(filename string) ([]byte, func(), error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	cleanup := func() { f.Close() }
	return data, cleanup, nil
}
