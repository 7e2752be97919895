package rawbuf

import "fmt"

// ErrOutOfRange is returned by Row.Get for an index past the row's field count.
var ErrOutOfRange = fmt.Errorf("rawbuf: field index out of range")

// Row is an immutable view over a contiguous run of fields inside a
// RawCSVData: (buffer, fields_start_index, field_count). It holds the same
// shared pointer to its buffer that every Field it returns will hold.
type Row struct {
	Data        *RawCSVData
	FieldsStart int
	FieldCount  int
}

// Len returns the number of fields in the row.
func (r Row) Len() int {
	return r.FieldCount
}

// Get returns the i-th field view, 0-indexed.
func (r Row) Get(i int) (Field, error) {
	if i < 0 || i >= r.FieldCount {
		return Field{}, fmt.Errorf("%w: index %d, row has %d fields", ErrOutOfRange, i, r.FieldCount)
	}
	return NewField(r.Data, r.Data.Fields[r.FieldsStart+i]), nil
}

// GetByName looks up a field by header name via the shared ColNames.
func (r Row) GetByName(name string) (Field, error) {
	cols := r.Data.Cols
	if cols == nil {
		return Field{}, fmt.Errorf("%w: %q (no header configured)", ErrUnknownColumn, name)
	}
	i, err := cols.Index(name)
	if err != nil {
		return Field{}, err
	}
	return r.Get(i)
}

// ColNames returns the shared column-name map for this row.
func (r Row) ColNames() *ColNames {
	return r.Data.Cols
}

// Fields materializes every field in the row as a slice, in order.
func (r Row) Fields() []Field {
	out := make([]Field, r.FieldCount)
	for i := 0; i < r.FieldCount; i++ {
		out[i] = NewField(r.Data, r.Data.Fields[r.FieldsStart+i])
	}
	return out
}
