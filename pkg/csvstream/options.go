// Package csvstream provides a streaming, byte-level, UTF-8-aware CSV
// reader: a pull iterator over zero-copy Row/Field views, built on
// internal/chunksource for input and internal/fastparser for the state
// machine.
package csvstream

import "unicode/utf8"

// VariableColumnPolicy controls how Reader.Next reacts to a row whose field
// count differs from the first row read (or from an explicit header row).
type VariableColumnPolicy int

const (
	// PolicyStrict fails with MalformedRow on any field-count mismatch.
	PolicyStrict VariableColumnPolicy = iota
	// PolicyKeep returns the row exactly as parsed, mismatch and all.
	PolicyKeep
	// PolicyIgnore pads a short row with empty fields, or drops a long row's
	// extra fields, so every row returned has the expected field count.
	PolicyIgnore
)

func (p VariableColumnPolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyKeep:
		return "keep"
	case PolicyIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// NoHeader disables header resolution: Format.HeaderRowIndex set to this
// value means ColNames is always empty and GetByName always fails, matching
// the spec's header_row_index == "none".
const NoHeader = -1

// Format describes the dialect a Reader parses: delimiter, quote handling,
// whitespace trimming, and which row (if any) carries column names.
type Format struct {
	// Delimiter is the field separator code point. May be multi-byte.
	Delimiter rune
	// Quote is the quote byte. Only ASCII quote bytes are supported, matching
	// the original's single-byte QUOTE_CHAR.
	Quote byte
	// QuotingEnabled toggles whether Quote triggers quoted-field handling at
	// all; when false, the quote byte is ordinary field content.
	QuotingEnabled bool
	// TrimChars is the set of single-byte code points trimmed from the start
	// and end of every field, quoted or not.
	TrimChars []byte
	// HeaderRowIndex is the 0-indexed row used to resolve column names, or
	// NoHeader.
	HeaderRowIndex int
}

// DefaultFormat returns comma-delimited, double-quoted, header-on-row-0 CSV.
func DefaultFormat() Format {
	return Format{
		Delimiter:      ',',
		Quote:          '"',
		QuotingEnabled: true,
		TrimChars:      []byte(" \t"),
		HeaderRowIndex: 0,
	}
}

// Validate reports whether the format is internally consistent.
func (f Format) Validate() error {
	if !validDelim(f.Delimiter) {
		return &OptionsError{Field: "Delimiter", Message: "invalid delimiter"}
	}
	if f.QuotingEnabled && rune(f.Quote) == f.Delimiter {
		return &OptionsError{Field: "Quote", Message: "quote byte same as delimiter"}
	}
	if f.HeaderRowIndex < NoHeader {
		return &OptionsError{Field: "HeaderRowIndex", Message: "must be >= -1"}
	}
	return nil
}

// ReaderOptions configures a Reader beyond its dialect.
type ReaderOptions struct {
	Format Format
	// VariableColumns governs field-count-mismatch handling (§6).
	VariableColumns VariableColumnPolicy
	// ChunkSize is the maximum number of bytes requested from the chunk
	// source per internal fill. Default: 64 KiB.
	ChunkSize int
	// ErrorRecovery configures bad-line and warning behavior.
	ErrorRecovery ErrorRecoveryOptions
	// NullValues lists the literals Field.IsNull treats as null, in addition
	// to the empty string.
	NullValues []string
	// HeaderConverter, when set, transforms each resolved header name (e.g.
	// LowercaseHeader, SnakeCaseHeader) before it is exposed through
	// ColumnNames/GetByName.
	HeaderConverter HeaderConverter
	// ReuseBuffers has no effect on Reader: chunk buffers are never returned
	// to fastparser's pool, so a Row/Field stays valid for as long as the
	// caller holds it.
	ReuseBuffers bool
}

// DefaultReaderOptions returns comma-delimited CSV, strict field-count
// checking, a 64 KiB chunk size, and default null-value detection.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Format:          DefaultFormat(),
		VariableColumns: PolicyStrict,
		ChunkSize:       64 * 1024,
		ErrorRecovery:   DefaultErrorRecoveryOptions(),
		NullValues:      DefaultNullValues,
	}
}

// Validate checks the full option set for internal consistency.
func (o ReaderOptions) Validate() error {
	if err := o.Format.Validate(); err != nil {
		return err
	}
	if o.ChunkSize <= 0 {
		return &OptionsError{Field: "ChunkSize", Message: "must be positive"}
	}
	return nil
}

// WriterOptions configures CSV writing behavior, mirroring encoding/csv.Writer.
type WriterOptions struct {
	Comma   rune
	UseCRLF bool
}

// DefaultWriterOptions returns comma-delimited, LF-terminated output.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{Comma: ',', UseCRLF: false}
}

// Validate checks if the writer options are valid.
func (o WriterOptions) Validate() error {
	if !validDelim(o.Comma) {
		return &OptionsError{Field: "Comma", Message: "invalid delimiter"}
	}
	return nil
}

// validDelim reports whether r is a valid field delimiter.
func validDelim(r rune) bool {
	return r != 0 && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// OptionsError represents an invalid option configuration.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "csvstream: invalid " + e.Field + ": " + e.Message
}
