package rawbuf

import (
	"errors"
	"strconv"
	"strings"
	"unsafe"
)

// ErrTypeMismatch is returned by Field.Int/Float when the raw bytes cannot
// be coerced to the requested numeric type.
var ErrTypeMismatch = errors.New("rawbuf: type mismatch")

// Field is a zero-copy view of one parsed field's raw bytes. De-escaping
// ("" -> ") happens on demand in String(), never at parse time, per spec
// §3's Field (view) contract.
type Field struct {
	data            *RawCSVData
	start           uint32
	length          uint32
	hasEscapedQuote bool
}

// NewField constructs a Field view over data's bytes. Exported for fastparser
// and pkg/csvstream, which assemble Fields from parsed FieldLoc entries.
func NewField(data *RawCSVData, loc FieldLoc) Field {
	return Field{data: data, start: loc.Start, length: loc.Length, hasEscapedQuote: loc.HasEscapedQuote}
}

// RawBytes returns the verbatim slice, including any doubled quotes.
func (f Field) RawBytes() []byte {
	return f.data.Bytes[f.start : f.start+f.length]
}

// HasEscapedQuote reports whether the raw bytes contain a doubled quote that
// String must collapse.
func (f Field) HasEscapedQuote() bool {
	return f.hasEscapedQuote
}

// String returns the field's text. When the field contains no escaped
// quote, this is a zero-copy view into the backing buffer; otherwise it
// returns an owned, de-escaped copy with every "" collapsed to ".
func (f Field) String() string {
	raw := f.RawBytes()
	if !f.hasEscapedQuote {
		return unsafeString(raw)
	}
	return strings.ReplaceAll(string(raw), `""`, `"`)
}

// IsNull reports whether the field's raw bytes match one of the configured
// null literals (default: empty string only).
func (f Field) IsNull(nullLiterals []string) bool {
	if f.length == 0 {
		return true
	}
	s := unsafeString(f.RawBytes())
	for _, lit := range nullLiterals {
		if s == lit {
			return true
		}
	}
	return false
}

// IsInt reports whether the raw bytes parse as a signed integer with no
// fractional or exponent part.
func (f Field) IsInt() bool {
	_, err := strconv.ParseInt(unsafeString(f.RawBytes()), 10, 64)
	return err == nil
}

// IsFloat reports whether the raw bytes parse as a finite float but are not
// also a valid integer (IsInt and IsFloat are never both true).
func (f Field) IsFloat() bool {
	if f.IsInt() {
		return false
	}
	v, err := strconv.ParseFloat(unsafeString(f.RawBytes()), 64)
	return err == nil && !isInfOrNaN(v)
}

// IsStr reports whether the field is neither null, int, nor float. Nullness
// is judged against data.NullValues, the caller's configured null literals,
// falling back to "empty string only" when unset.
func (f Field) IsStr() bool {
	return !f.IsNull(f.data.NullValues) && !f.IsInt() && !f.IsFloat()
}

// Int coerces the field to int64, failing with ErrTypeMismatch when the raw
// bytes are not a valid integer.
func (f Field) Int() (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(unsafeString(f.RawBytes())), 10, 64)
	if err != nil {
		return 0, errors.Join(ErrTypeMismatch, err)
	}
	return v, nil
}

// Float coerces the field to float64, failing with ErrTypeMismatch when the
// raw bytes are not a valid float.
func (f Field) Float() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(unsafeString(f.RawBytes())), 64)
	if err != nil {
		return 0, errors.Join(ErrTypeMismatch, err)
	}
	return v, nil
}

func isInfOrNaN(v float64) bool {
	return v != v || v > 1.7976931348623157e+308 || v < -1.7976931348623157e+308
}

// unsafeString converts a []byte to a string without allocation. Safe here
// because every slice it's given is a subslice of RawCSVData.Bytes, which is
// immutable once the parser has moved past it.
func unsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
