//go:build unix

package fastparser

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapFile memory-maps a file for reading.
// Returns the mapped byte slice and a cleanup function that must be called to unmap the file.
//
// This is useful for processing large CSV files efficiently:
//   - The file is mapped into memory without loading it entirely
//   - The OS handles paging data in/out as needed
//   - Combined with zero-copy parsing, this enables processing huge files with minimal memory
//
// Example usage:
//
//	data, cleanup, err := MmapFile("large.csv")
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
//	// Hand data (or chunks of it) to Parse via a rawbuf.RawCSVData...
//
// IMPORTANT: Do not use the data slice after calling cleanup().
func MmapFile(filename string) ([]byte, func(), error) {
	// Open the file
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	// Get file size
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	if size == 0 {
		// Empty file - return empty slice and cleanup that just closes the file
		return []byte{}, func() { f.Close() }, nil
	}

	// Memory-map the file
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		int(size),
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	// madvise sequential: chunked scans read the whole mapping once, in order.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	// Create cleanup function that unmaps and closes
	cleanup := func() {
		_ = unix.Munmap(data)
		f.Close()
	}

	return data, cleanup, nil
}
