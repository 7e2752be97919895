//go:build amd64

package simd

import "golang.org/x/sys/cpu"

var (
	hasAVX2  = cpu.X86.HasAVX2
	hasSSE42 = cpu.X86.HasSSE42
)
