// Package rawbuf implements the shared buffer and record model a chunked CSV
// parse produces: RawCSVData owns one chunk's bytes and the parsed field
// index into it; Row and Field are zero-copy views that keep RawCSVData
// alive for as long as the caller holds them. Go's garbage collector gives
// us this "RawCSVData must outlive every field view into it" invariant for
// free — a Row/Field only needs to hold a pointer back to its RawCSVData,
// the same way the teacher's ByteRecord holds its backing []byte.
package rawbuf

import "github.com/shapestone/streamcsv/internal/flags"

// FieldLoc is one parsed field's location within RawCSVData.Bytes: its
// absolute byte offset, byte length, and whether it contained an escaped
// quote ("") that String() must collapse on access.
type FieldLoc struct {
	Start           uint32
	Length          uint32
	HasEscapedQuote bool
}

// RawCSVData owns one chunk's raw bytes and the field index parsed from it.
// It is shared — via ordinary Go pointers — between every Row and Field that
// was parsed out of this chunk; nothing mutates Bytes after the parser
// finishes with it.
type RawCSVData struct {
	Bytes  []byte
	Fields []FieldLoc
	Flags  *flags.Table
	Cols   *ColNames

	// NullValues is the configured set of literals Field.IsNull and IsStr
	// treat as null, threaded down from pkg/csvstream.ReaderOptions.NullValues
	// so every Field view sees the caller's configuration without having to
	// carry it itself.
	NullValues []string
}

// PushField appends a field location, mirroring the C++ original's
// push_field: a field with no content observed (UNINITIALIZED field_start)
// records offset 0, matching the original's "field_start == UNINITIALIZED_FIELD ? 0 : field_start".
func (d *RawCSVData) PushField(rowStart uint32, start int, length int, hasEscapedQuote bool) {
	abs := rowStart
	if start >= 0 {
		abs = rowStart + uint32(start)
	}
	d.Fields = append(d.Fields, FieldLoc{
		Start:           abs,
		Length:          uint32(length),
		HasEscapedQuote: hasEscapedQuote,
	})
}
