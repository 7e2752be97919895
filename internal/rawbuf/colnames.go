package rawbuf

import (
	"errors"
	"fmt"
)

// ErrDuplicateColumn is returned by NewColNames when two header fields
// collide; ErrUnknownColumn is returned by ColNames.Index and Row.GetByName
// for a name that isn't present.
var (
	ErrDuplicateColumn = errors.New("rawbuf: duplicate column name")
	ErrUnknownColumn   = errors.New("rawbuf: unknown column")
)

// ColNames is the ordered header-name -> field-index map, built once from
// the configured header row and shared by every subsequent Row.
type ColNames struct {
	names []string
	index map[string]int
}

// NewColNames builds a ColNames from ordered header names. Names must be
// unique; header_row_index == none should use Empty() instead, so that
// name-based field access always fails exactly as spec'd.
func NewColNames(names []string) (*ColNames, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		index[name] = i
	}
	return &ColNames{names: names, index: index}, nil
}

// Empty returns a ColNames with no headers; every Index lookup fails with
// ErrUnknownColumn, matching header_row_index == "none".
func Empty() *ColNames {
	return &ColNames{index: map[string]int{}}
}

// Names returns the ordered header names.
func (c *ColNames) Names() []string {
	return c.names
}

// Len returns the number of columns.
func (c *ColNames) Len() int {
	return len(c.names)
}

// Index returns the field index for a column name.
func (c *ColNames) Index(name string) (int, error) {
	i, ok := c.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return i, nil
}
