package utf8glyph

import "testing"

func TestDecode_ASCII(t *testing.T) {
	r, n, ok := Decode([]byte("a"), 0)
	if r != 'a' || n != 1 || !ok {
		t.Fatalf("got (%q, %d, %v), want ('a', 1, true)", r, n, ok)
	}
}

func TestDecode_MultiByte(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  rune
		size  int
	}{
		{"two-byte section sign", []byte("\xC2\xA7"), '§', 2},
		{"three-byte euro sign", []byte("\xE2\x82\xAC"), '€', 3},
		{"four-byte emoji", []byte("\xF0\x9F\x98\x80"), '\U0001F600', 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, n, ok := Decode(tc.input, 0)
			if !ok || r != tc.want || n != tc.size {
				t.Fatalf("got (%q, %d, %v), want (%q, %d, true)", r, n, ok, tc.want, tc.size)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"lone continuation byte", []byte{0x80}},
		{"truncated two-byte", []byte{0xC2}},
		{"overlong encoding", []byte{0xC0, 0x80}},
		{"surrogate half", []byte{0xED, 0xA0, 0x80}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, n, ok := Decode(tc.input, 0)
			if ok {
				t.Fatalf("expected ok=false for %x", tc.input)
			}
			if r != replacementChar {
				t.Fatalf("got rune %U, want replacement char", r)
			}
			if n < 1 {
				t.Fatalf("decoder must always make forward progress, got size %d", n)
			}
		})
	}
}

func TestDecode_ResyncAfterInjectedByte(t *testing.T) {
	// One invalid lone continuation byte injected between two valid ASCII
	// bytes must cost exactly one substitution and not desync the rest.
	data := []byte{'a', 0x80, 'b'}
	pos := 0
	var runes []rune
	errs := 0
	for pos < len(data) {
		r, n, ok := Decode(data, pos)
		if !ok {
			errs++
		}
		runes = append(runes, r)
		pos += n
	}
	if errs != 1 {
		t.Fatalf("expected exactly one resync error, got %d", errs)
	}
	want := []rune{'a', replacementChar, 'b'}
	if len(runes) != len(want) {
		t.Fatalf("got %v, want %v", runes, want)
	}
	for i := range want {
		if runes[i] != want[i] {
			t.Fatalf("got %v, want %v", runes, want)
		}
	}
}
