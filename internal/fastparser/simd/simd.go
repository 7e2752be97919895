// Package simd reports which vectorized CPU instruction sets are available
// for accelerating byte scanning, grounded on the retrieval pack's
// CPUID-based capability checks but replacing the hand-rolled assembly with
// golang.org/x/sys/cpu's portable feature flags.
//
// fastparser's scalar state machine does not yet branch on these flags; the
// package exists so callers (cmd/csvstream in particular) can report what
// acceleration would be available, and so a future vectorized scan path has
// a ready-made detection layer to dispatch on.
package simd

// Features describes the vector instruction sets detected on the current
// CPU.
type Features struct {
	HasAVX2   bool
	HasSSE4_2 bool
}

// Detect returns the vector capabilities of the running CPU. On
// architectures other than amd64 both fields are false.
func Detect() Features {
	return Features{
		HasAVX2:   hasAVX2,
		HasSSE4_2: hasSSE42,
	}
}
