// Package utf8glyph decodes one UTF-8 code point at a byte offset using a
// branchless, table-driven decoder ported from the "branchless-utf8" design
// (Christopher Wellons) used by the original csv-parser implementation this
// module's behavior is grounded on. Unlike that original, malformed input
// never aborts the process: it is recovered by substituting U+FFFD and
// advancing by the minimum number of inspected bytes, guaranteeing forward
// progress.
package utf8glyph

const (
	replacementChar = 0xFFFD
	maxCodePoint    = 0x10FFFF
)

// lengths[b>>3] gives the expected byte count (1-4) for a lead byte, or 0 for
// invalid lead bytes (continuation bytes and the two reserved ranges).
var lengths = [32]byte{
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	0, 0, 0, 0, 0, 0, 0, 0,
	2, 2, 2, 2, 3, 3, 4, 0,
}

var masks = [5]byte{0x00, 0x7F, 0x1F, 0x0F, 0x07}
var mins = [5]uint32{0x110000, 0, 0x80, 0x800, 0x10000}
var shiftc = [5]uint{0, 18, 12, 6, 0}
var shifte = [5]uint{0, 6, 4, 2, 0}

// Decode reads one glyph starting at data[pos]. It returns the decoded code
// point and the number of bytes consumed (always >= 1 when pos < len(data)).
// On malformed input it returns the Unicode replacement character and the
// minimal byte count needed to guarantee forward progress; ok is false in
// that case so callers can count resynchronisation events.
func Decode(data []byte, pos int) (r rune, size int, ok bool) {
	b0 := data[pos]
	if b0 < 0x80 {
		return rune(b0), 1, true
	}

	length := lengths[b0>>3]
	wanted := int(length)
	if length == 0 {
		wanted = 1
	}

	var s [4]byte
	end := len(data)
	for i := 0; i < 4; i++ {
		if pos+i < end && pos+i < pos+wanted {
			s[i] = data[pos+i]
		}
	}

	c := uint32(s[0]&masks[length]) << 18
	c |= uint32(s[1]&0x3F) << 12
	c |= uint32(s[2]&0x3F) << 6
	c |= uint32(s[3]&0x3F) << 0
	c >>= shiftc[length]

	e := 0
	if c < mins[length] {
		e |= 1 << 6 // non-canonical encoding
	}
	if (c >> 11) == 0x1B {
		e |= 1 << 7 // surrogate half
	}
	if c > maxCodePoint {
		e |= 1 << 8 // out of range
	}
	e |= int(s[1]&0xC0) >> 2
	e |= int(s[2]&0xC0) >> 4
	e |= int(s[3]) >> 6
	e ^= 0x2A // top two bits of each continuation byte must be 10
	e >>= shifte[length]

	if e != 0 || length == 0 {
		nonZero := 0
		for i := 0; i < 4; i++ {
			if s[i] != 0 {
				nonZero++
			}
		}
		consumed := wanted
		if nonZero < consumed {
			consumed = nonZero
		}
		if consumed < 1 {
			consumed = 1
		}
		return replacementChar, consumed, false
	}

	return rune(c), wanted, true
}
