// Package fastparser implements the chunked CSV state machine: it consumes
// one already-loaded RawCSVData buffer at a time, decoding UTF-8 glyphs,
// classifying them via the parse-flag table, and appending completed fields
// and rows. It never re-reads a previous chunk's bytes — when a row is left
// incomplete at the end of a buffer, the caller (pkg/csvstream.Reader) asks
// the chunk source to roll back to the row's start, so the *next* buffer
// contains that row's bytes again from the beginning and this state machine
// can simply restart the row from scratch. That is why no quote/field state
// is threaded across Parse calls: the spec's cross-chunk "parser state" is
// reconstructed for free by always giving a clean buffer boundary at a row
// start (see internal/chunksource).
package fastparser

import (
	"unicode/utf8"

	"github.com/shapestone/streamcsv/internal/flags"
	"github.com/shapestone/streamcsv/internal/rawbuf"
	"github.com/shapestone/streamcsv/internal/utf8glyph"
)

const uninitializedField = -1

// Stats accumulates counters that persist across chunks without affecting
// parse position: whether the UTF-8 BOM has already been checked (only the
// very first chunk of a source may have one) and how many malformed UTF-8
// sequences have been recovered via substitution so far.
type Stats struct {
	BOMChecked bool
	UTF8Errors int

	// QuoteErrors counts fields where content followed a field's closing
	// quote before the next delimiter/newline (e.g. `"hello"x`). The state
	// machine recovers by folding that trailing content into the field
	// rather than aborting the chunk, the same tolerant strategy it already
	// uses for malformed UTF-8; the caller decides whether that recovery is
	// acceptable via ReaderOptions.ErrorRecovery.OnBadLine.
	QuoteErrors int
}

// Result is what one Parse call produced.
type Result struct {
	// Rows completed entirely within this call.
	Rows []rawbuf.Row
	// IncompleteStart is the byte offset, within data.Bytes, where the last
	// (possibly still-open) row begins. When the caller has more chunks to
	// load, it rewinds the chunk source by len(data.Bytes)-IncompleteStart
	// bytes so that row is re-read, whole, as a prefix of the next chunk.
	IncompleteStart uint32
}

// glyphFlag decodes one glyph and returns its compound parse flag. Malformed
// UTF-8 is always classified NotSpecial — a substitution byte can never be a
// structural delimiter/quote/newline — and bumps stats.UTF8Errors when stats
// is non-nil. Inside a quoted field, delimiters and newlines are field
// content and also classify as NotSpecial.
func glyphFlag(tbl *flags.Table, in []byte, pos int, insideQuote bool, stats *Stats) (r rune, glen int, flag flags.ParseFlag) {
	r, glen, ok := utf8glyph.Decode(in, pos)
	if !ok {
		if stats != nil {
			stats.UTF8Errors++
		}
		return r, glen, flags.NotSpecial
	}
	flag = tbl.Compound(r, glen, insideQuote)
	if insideQuote && (flag == flags.Delimiter || flag == flags.Newline) {
		flag = flags.NotSpecial
	}
	return r, glen, flag
}

// Parse runs the state machine (spec §4.3–§4.5) over data.Bytes, appending
// fields to data.Fields and returning every row completed in this call. When
// isFinalChunk is true and the buffer ends mid-field or mid-row, end_feed
// semantics apply: a non-empty trailing field (or a trailing delimiter
// implying an empty one) is pushed and the final row is closed out.
func Parse(data *rawbuf.RawCSVData, stats *Stats, isFirstChunk, isFinalChunk bool) Result {
	in := data.Bytes
	tbl := data.Flags

	pos := 0
	if isFirstChunk && !stats.BOMChecked && len(in) >= 3 &&
		in[0] == 0xEF && in[1] == 0xBB && in[2] == 0xBF {
		pos = 3
	}
	stats.BOMChecked = true

	var rows []rawbuf.Row
	rowStart := uint32(pos)
	fieldsStart := len(data.Fields)

	fieldStart := uninitializedField
	fieldLength := 0
	quoteEscape := false
	fieldHasEscaped := false

	pushField := func() {
		data.PushField(rowStart, fieldStart, fieldLength, fieldHasEscaped)
		fieldStart = uninitializedField
		fieldLength = 0
		fieldHasEscaped = false
	}
	pushRow := func() {
		rows = append(rows, rawbuf.Row{
			Data:        data,
			FieldsStart: fieldsStart,
			FieldCount:  len(data.Fields) - fieldsStart,
		})
		fieldsStart = len(data.Fields)
	}
	endFeed := func() {
		lastRune, _ := utf8.DecodeLastRune(in)
		emptyLastField := len(in) > 0 && lastRune == tbl.Delimiter
		if fieldLength > 0 || emptyLastField {
			pushField()
		}
		if len(data.Fields) > fieldsStart {
			pushRow()
		}
	}

	for pos < len(in) {
		// Malformed glyphs are counted once, by parseField, which consumes them.
		_, glen, flag := glyphFlag(tbl, in, pos, quoteEscape, nil)

		switch flag {
		case flags.Delimiter:
			pushField()
			pos += glen

		case flags.Newline:
			pos += glen
			if pos < len(in) {
				_, glen2, flag2 := glyphFlag(tbl, in, pos, false, nil)
				if flag2 == flags.Newline {
					pos += glen2
				}
			}
			pushField()
			pushRow()
			rowStart = uint32(pos)

		case flags.NotSpecial:
			parseField(tbl, in, &pos, rowStart, &fieldStart, quoteEscape, stats)
			fieldLength = pos - (fieldStart + int(rowStart))
			j := pos - 1
			for fieldLength > 0 && tbl.WS(in[j]) {
				fieldLength--
				j--
			}

		case flags.Quote:
			if fieldLength == 0 {
				quoteEscape = true
				pos += glen
				if fieldStart == uninitializedField && pos < len(in) {
					peekC, peekLen, _ := utf8glyph.Decode(in, pos)
					if !(peekLen == 1 && tbl.WS(byte(peekC))) {
						fieldStart = int(uint32(pos) - rowStart)
					}
				}
			} else {
				fieldLength += glen
				pos += glen
			}

		case flags.QuoteEscapeQuote:
			if pos+1 >= len(in) {
				if !isFinalChunk {
					return Result{Rows: rows, IncompleteStart: rowStart}
				}
				// No more bytes ever coming: treat the lone trailing quote
				// as the field's closing quote.
				quoteEscape = false
				pos++
				continue
			}
			_, nextLen, nextFlag := glyphFlag(tbl, in, pos+1, false, nil)
			switch {
			case nextFlag == flags.Delimiter || nextFlag == flags.Newline:
				quoteEscape = false
				pos++
			case nextFlag == flags.Quote:
				pos += 1 + nextLen
				fieldLength += 1 + nextLen
				fieldHasEscaped = true
			default:
				// Content follows the field's closing quote directly, with
				// no delimiter/newline/escaped-quote in between (e.g.
				// `"hello"x`). Recovered by folding the quote byte itself
				// back into the field, mirroring glyphFlag's UTF8Errors
				// recovery-and-count strategy above.
				stats.QuoteErrors++
				fieldLength++
				pos++
			}
		}
	}

	if isFinalChunk {
		endFeed()
		return Result{Rows: rows, IncompleteStart: uint32(len(in))}
	}
	return Result{Rows: rows, IncompleteStart: rowStart}
}

// parseField is the field sub-routine (§4.4): trim leading whitespace,
// anchor field_start on the first non-whitespace glyph, then consume a
// contiguous run of NOT_SPECIAL glyphs. Trailing-whitespace trim happens in
// the caller, since it needs the final field_length.
func parseField(tbl *flags.Table, in []byte, pos *int, rowStart uint32, fieldStart *int, insideQuote bool, stats *Stats) {
	for *pos < len(in) {
		c, l, ok := utf8glyph.Decode(in, *pos)
		if ok && l == 1 && tbl.WS(byte(c)) {
			*pos += l
		} else {
			break
		}
	}
	if *fieldStart == uninitializedField {
		*fieldStart = int(uint32(*pos) - rowStart)
	}
	for *pos < len(in) {
		_, l, flag := glyphFlag(tbl, in, *pos, insideQuote, stats)
		if flag == flags.NotSpecial {
			*pos += l
		} else {
			break
		}
	}
}
