package csvstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/shapestone/streamcsv/internal/chunksource"
	"github.com/shapestone/streamcsv/internal/fastparser"
	"github.com/shapestone/streamcsv/internal/flags"
	"github.com/shapestone/streamcsv/internal/rawbuf"
)

// Reader is a pull iterator over a chunked CSV source: it drives
// internal/fastparser's state machine one chunk at a time, resolves the
// configured header row into ColNames, and hands back zero-copy Rows.
//
// A Reader is not safe for concurrent use; each goroutine should own one,
// matching the teacher's Scanner and the original's single-threaded
// IBasicCSVParser.
type Reader struct {
	src  chunksource.Source
	opts ReaderOptions
	tbl  *flags.Table
	cols *rawbuf.ColNames

	stats      fastparser.Stats
	firstChunk bool
	eof        bool

	rows   []rawbuf.Row
	rowIdx int

	expectedFields int
	rowsEmitted    int
	err            error
}

// NewReader builds a Reader over src using opts. When opts.Format has a
// HeaderRowIndex, that row is consumed immediately to resolve column names
// (§4.7) before the first data row is returned from Next.
func NewReader(src chunksource.Source, opts ReaderOptions) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := &Reader{
		src:            src,
		opts:           opts,
		tbl:            flags.New(opts.Format.Delimiter, opts.Format.Quote, opts.Format.QuotingEnabled, opts.Format.TrimChars),
		firstChunk:     true,
		expectedFields: -1,
	}
	if opts.Format.HeaderRowIndex == NoHeader {
		r.cols = rawbuf.Empty()
		return r, nil
	}
	if err := r.resolveHeader(opts.Format.HeaderRowIndex); err != nil {
		return nil, err
	}
	return r, nil
}

// NewReaderFromString is a convenience constructor over an in-memory buffer,
// grounded on the teacher's NewScanner(io.Reader) convenience pattern.
func NewReaderFromString(data string, opts ReaderOptions) (*Reader, error) {
	return NewReader(chunksource.NewStringSource([]byte(data)), opts)
}

// NewReaderFromFile opens path for buffered chunked reading.
func NewReaderFromFile(path string, opts ReaderOptions) (*Reader, error) {
	src, err := chunksource.NewFileSource(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return NewReader(src, opts)
}

// NewReaderFromMmapFile memory-maps path for zero-copy chunked reading.
func NewReaderFromMmapFile(path string, opts ReaderOptions) (*Reader, error) {
	src, err := chunksource.NewMmapSource(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return NewReader(src, opts)
}

// NewReaderFromLZ4File opens an LZ4-compressed CSV file.
func NewReaderFromLZ4File(path string, opts ReaderOptions) (*Reader, error) {
	src, err := chunksource.NewLZ4Source(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return NewReader(src, opts)
}

// resolveHeader reads rows up to and including headerRowIndex, discarding
// any before it, and builds r.cols from the header row's field strings.
func (r *Reader) resolveHeader(headerRowIndex int) error {
	for i := 0; i <= headerRowIndex; i++ {
		row, err := r.nextRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("csvstream: input has no row at header_row_index %d", headerRowIndex)
			}
			return err
		}
		if i == headerRowIndex {
			names := make([]string, row.Len())
			for j := 0; j < row.Len(); j++ {
				f, _ := row.Get(j)
				name := f.String()
				if r.opts.HeaderConverter != nil {
					name = r.opts.HeaderConverter(name)
				}
				names[j] = name
			}
			cols, err := rawbuf.NewColNames(names)
			if err != nil {
				return err
			}
			r.cols = cols
			r.expectedFields = len(names)
		}
	}
	return nil
}

// fill pulls chunks from src until at least one new row is available or eof
// is reached.
func (r *Reader) fill() error {
	for r.rowIdx >= len(r.rows) && !r.eof {
		chunk, eof, err := r.src.NextChunk(r.opts.ChunkSize)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		data := &rawbuf.RawCSVData{Bytes: chunk, Flags: r.tbl, Cols: r.cols, NullValues: r.opts.NullValues}
		utf8Before := r.stats.UTF8Errors
		quoteBefore := r.stats.QuoteErrors
		res := fastparser.Parse(data, &r.stats, r.firstChunk, eof)
		r.firstChunk = false
		r.eof = eof
		if n := r.stats.UTF8Errors - utf8Before; n > 0 {
			r.warn(fmt.Sprintf("recovered %d malformed UTF-8 byte(s) via substitution", n))
		}
		if n := r.stats.QuoteErrors - quoteBefore; n > 0 {
			msg := fmt.Sprintf("%d field(s) had content immediately after a closing quote", n)
			mode := r.opts.ErrorRecovery.OnBadLine
			if mode == BadLineModeError {
				return fmt.Errorf("%w: %s", ErrQuote, msg)
			}
			if cb := r.opts.ErrorRecovery.BadLineCallback; cb != nil && !cb(r.rowsEmitted, msg, ErrQuote) {
				return fmt.Errorf("%w: %s", ErrQuote, msg)
			}
			if mode == BadLineModeWarn {
				r.warn(msg)
			}
		}

		if !eof {
			tail := data.Bytes[res.IncompleteStart:]
			if err := r.src.Rewind(tail); err != nil {
				return fmt.Errorf("%w: %v", ErrIO, err)
			}
		}
		r.rows = res.Rows
		r.rowIdx = 0
	}
	return nil
}

// nextRaw returns the next row with no field-count policy applied; used
// internally by resolveHeader before r.cols exists.
func (r *Reader) nextRaw() (rawbuf.Row, error) {
	if err := r.fill(); err != nil {
		return rawbuf.Row{}, err
	}
	if r.rowIdx >= len(r.rows) {
		return rawbuf.Row{}, io.EOF
	}
	row := r.rows[r.rowIdx]
	r.rowIdx++
	return row, nil
}

// Next returns the next data row, applying the configured
// VariableColumnPolicy and ErrorRecoveryOptions.MaxFieldSize/MaxRecordSize
// limits. It returns io.EOF once the source is exhausted.
func (r *Reader) Next() (rawbuf.Row, error) {
	if r.err != nil {
		return rawbuf.Row{}, r.err
	}
	for {
		row, err := r.nextRaw()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return rawbuf.Row{}, err
		}
		out, badErr := r.applyColumnPolicy(row)
		if badErr == nil {
			badErr = r.checkSize(out)
		}
		if badErr == nil {
			return out, nil
		}
		if r.handleBadLine(out, badErr) {
			continue
		}
		r.err = badErr
		return rawbuf.Row{}, badErr
	}
}

func (r *Reader) applyColumnPolicy(row rawbuf.Row) (rawbuf.Row, error) {
	r.rowsEmitted++
	if r.expectedFields == -1 {
		r.expectedFields = row.Len()
		return row, nil
	}
	if row.Len() == r.expectedFields {
		return row, nil
	}
	switch r.opts.VariableColumns {
	case PolicyKeep:
		r.warn(fmt.Sprintf("row %d has %d fields, want %d", r.rowsEmitted, row.Len(), r.expectedFields))
		return row, nil
	case PolicyIgnore:
		r.warn(fmt.Sprintf("row %d has %d fields, want %d", r.rowsEmitted, row.Len(), r.expectedFields))
		return padOrTruncate(row, r.expectedFields), nil
	default: // PolicyStrict
		err := &ParseError{Line: r.rowsEmitted, Column: 0, Err: fmt.Errorf("%w: got %d fields, want %d", ErrFieldCount, row.Len(), r.expectedFields)}
		return row, err
	}
}

// padOrTruncate returns a row with exactly want fields, borrowing the
// original row's backing RawCSVData and padding with zero-length field
// views (which read back as the empty string) when short.
func padOrTruncate(row rawbuf.Row, want int) rawbuf.Row {
	if row.Len() >= want {
		return rawbuf.Row{Data: row.Data, FieldsStart: row.FieldsStart, FieldCount: want}
	}
	data := row.Data
	pad := want - row.Len()
	start := len(data.Fields)
	for i := 0; i < pad; i++ {
		data.Fields = append(data.Fields, rawbuf.FieldLoc{Start: uint32(len(data.Bytes)), Length: 0})
	}
	if row.FieldsStart+row.Len() == start {
		// Original fields and the new padding are contiguous: one row.
		return rawbuf.Row{Data: data, FieldsStart: row.FieldsStart, FieldCount: want}
	}
	// Fields aren't contiguous (padding appended elsewhere); copy into a
	// fresh contiguous run so Row's (start, count) contract still holds.
	merged := make([]rawbuf.FieldLoc, 0, want)
	for i := 0; i < row.Len(); i++ {
		merged = append(merged, data.Fields[row.FieldsStart+i])
	}
	for i := 0; i < pad; i++ {
		merged = append(merged, rawbuf.FieldLoc{Start: uint32(len(data.Bytes)), Length: 0})
	}
	newStart := len(data.Fields)
	data.Fields = append(data.Fields, merged...)
	return rawbuf.Row{Data: data, FieldsStart: newStart, FieldCount: want}
}

// checkSize enforces ErrorRecoveryOptions.MaxFieldSize/MaxRecordSize against
// row, returning a *ParseError wrapping ErrFieldTooLarge/ErrRecordTooLarge
// when a limit configured above zero is exceeded.
func (r *Reader) checkSize(row rawbuf.Row) error {
	maxField := r.opts.ErrorRecovery.MaxFieldSize
	maxRecord := r.opts.ErrorRecovery.MaxRecordSize
	if maxField == 0 && maxRecord == 0 {
		return nil
	}
	total := 0
	for i := 0; i < row.Len(); i++ {
		f, _ := row.Get(i)
		n := len(f.RawBytes())
		if maxField > 0 && n > maxField {
			return &ParseError{Line: r.rowsEmitted, Column: i + 1,
				Err: fmt.Errorf("%w: field is %d bytes, limit %d", ErrFieldTooLarge, n, maxField)}
		}
		total += n
	}
	if maxRecord > 0 && total > maxRecord {
		return &ParseError{Line: r.rowsEmitted,
			Err: fmt.Errorf("%w: record is %d bytes, limit %d", ErrRecordTooLarge, total, maxRecord)}
	}
	return nil
}

// handleBadLine applies ErrorRecoveryOptions.OnBadLine to a row that failed
// applyColumnPolicy or checkSize. It returns true when Next should silently
// retry with the following row instead of surfacing err to the caller.
func (r *Reader) handleBadLine(row rawbuf.Row, err error) bool {
	mode := r.opts.ErrorRecovery.OnBadLine
	if mode == BadLineModeError {
		return false
	}
	cont := true
	if cb := r.opts.ErrorRecovery.BadLineCallback; cb != nil {
		cont = cb(r.rowsEmitted, rowContent(row), err)
	}
	if mode == BadLineModeWarn {
		r.warn(err.Error())
	}
	return cont
}

// rowContent renders a row's fields back into one comma-joined string for
// BadLineHandler's content argument.
func rowContent(row rawbuf.Row) string {
	var b []byte
	for i := 0; i < row.Len(); i++ {
		if i > 0 {
			b = append(b, ',')
		}
		f, _ := row.Get(i)
		b = append(b, f.RawBytes()...)
	}
	return string(b)
}

// warn invokes the configured WarningCallback, if any, with the current row
// count as the line number. Reader itself never logs (§5/§7 side-effect
// free); it only ever calls back into the caller.
func (r *Reader) warn(message string) {
	if cb := r.opts.ErrorRecovery.WarningCallback; cb != nil {
		cb(r.rowsEmitted, message)
	}
}

// ColumnNames returns the resolved header names, or nil when HeaderRowIndex
// is NoHeader.
func (r *Reader) ColumnNames() []string {
	if r.cols == nil {
		return nil
	}
	return r.cols.Names()
}

// SessionID returns the underlying chunk source's session identifier.
func (r *Reader) SessionID() uuid.UUID {
	return r.src.SessionID()
}

// HadUTF8Errors reports whether any malformed UTF-8 was recovered via
// substitution so far.
func (r *Reader) HadUTF8Errors() bool {
	return r.stats.UTF8Errors > 0
}

// UTF8ErrorCount returns how many malformed UTF-8 sequences have been
// recovered via substitution so far.
func (r *Reader) UTF8ErrorCount() int {
	return r.stats.UTF8Errors
}

// HadQuoteErrors reports whether any field had content immediately after its
// closing quote recovered so far (see ErrQuote).
func (r *Reader) HadQuoteErrors() bool {
	return r.stats.QuoteErrors > 0
}

// QuoteErrorCount returns how many such fields have been recovered so far.
func (r *Reader) QuoteErrorCount() int {
	return r.stats.QuoteErrors
}

// Close releases the underlying chunk source's resources.
func (r *Reader) Close() error {
	return r.src.Close()
}

// ReadAll drains the Reader into a [][]string snapshot, mainly useful for
// tests and small inputs; production callers should prefer Next for
// constant-memory streaming.
func (r *Reader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		row, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		rec := make([]string, row.Len())
		for i := 0; i < row.Len(); i++ {
			f, _ := row.Get(i)
			rec[i] = f.String()
		}
		out = append(out, rec)
	}
}
