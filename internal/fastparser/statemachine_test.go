package fastparser

import (
	"testing"

	"github.com/shapestone/streamcsv/internal/flags"
	"github.com/shapestone/streamcsv/internal/rawbuf"
)

func parseAll(t *testing.T, raw string, tbl *flags.Table) (*rawbuf.RawCSVData, []rawbuf.Row) {
	t.Helper()
	data := &rawbuf.RawCSVData{Bytes: []byte(raw), Flags: tbl}
	res := Parse(data, &Stats{}, true, true)
	return data, res.Rows
}

func defaultTable() *flags.Table {
	return flags.New(',', '"', true, []byte(" \t"))
}

func rowStrings(row rawbuf.Row) []string {
	out := make([]string, row.Len())
	for i := 0; i < row.Len(); i++ {
		f, _ := row.Get(i)
		out[i] = f.String()
	}
	return out
}

func TestParse_SimpleRows(t *testing.T) {
	_, rows := parseAll(t, "a,b,c\n1,2,3\n", defaultTable())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := rowStrings(rows[0]); got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("row 0 = %v", got)
	}
	if got := rowStrings(rows[1]); got[0] != "1" || got[1] != "2" || got[2] != "3" {
		t.Fatalf("row 1 = %v", got)
	}
}

func TestParse_QuotedFieldWithDelimiterAndNewline(t *testing.T) {
	_, rows := parseAll(t, "\"hello, world\",\"line1\nline2\"\n", defaultTable())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	got := rowStrings(rows[0])
	if got[0] != "hello, world" {
		t.Fatalf("field 0 = %q", got[0])
	}
	if got[1] != "line1\nline2" {
		t.Fatalf("field 1 = %q", got[1])
	}
}

func TestParse_EscapedQuote(t *testing.T) {
	_, rows := parseAll(t, `"she said ""hi""",next`+"\n", defaultTable())
	got := rowStrings(rows[0])
	if got[0] != `she said "hi"` {
		t.Fatalf("field 0 = %q", got[0])
	}
	if got[1] != "next" {
		t.Fatalf("field 1 = %q", got[1])
	}
}

func TestParse_TrailingCommaImpliesEmptyField(t *testing.T) {
	_, rows := parseAll(t, "a,b\n1,\n", defaultTable())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	got := rowStrings(rows[1])
	if len(got) != 2 || got[0] != "1" || got[1] != "" {
		t.Fatalf("row 1 = %v", got)
	}
}

func TestParse_EndFeedTrailingDelimiterNoNewline(t *testing.T) {
	_, rows := parseAll(t, "1,2,", defaultTable())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	got := rowStrings(rows[0])
	if len(got) != 3 || got[2] != "" {
		t.Fatalf("row 0 = %v", got)
	}
}

func TestParse_EndFeedNoTrailingDelimiter(t *testing.T) {
	_, rows := parseAll(t, "1,2,3", defaultTable())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	got := rowStrings(rows[0])
	if len(got) != 3 || got[2] != "3" {
		t.Fatalf("row 0 = %v", got)
	}
}

func TestParse_WhitespaceTrim(t *testing.T) {
	_, rows := parseAll(t, "  a  , b ,c\n", defaultTable())
	got := rowStrings(rows[0])
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("row 0 = %v", got)
	}
}

func TestParse_CRLFCollapsesToOneNewline(t *testing.T) {
	_, rows := parseAll(t, "a,b\r\n1,2\r\n", defaultTable())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestParse_BOMTrimmedOnFirstChunkOnly(t *testing.T) {
	tbl := defaultTable()
	raw := "\xEF\xBB\xBFa,b\n"
	data := &rawbuf.RawCSVData{Bytes: []byte(raw), Flags: tbl}
	stats := &Stats{}
	res := Parse(data, stats, true, true)
	got := rowStrings(res.Rows[0])
	if got[0] != "a" {
		t.Fatalf("field 0 = %q, BOM not trimmed", got[0])
	}
}

func TestParse_MultiByteDelimiter(t *testing.T) {
	tbl := flags.New('§', '"', true, nil)
	data := &rawbuf.RawCSVData{Bytes: []byte("a§b§c\n"), Flags: tbl}
	res := Parse(data, &Stats{}, true, true)
	got := rowStrings(res.Rows[0])
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("row 0 = %v", got)
	}
}

func TestParse_MalformedUTF8Recovers(t *testing.T) {
	tbl := defaultTable()
	data := &rawbuf.RawCSVData{Bytes: []byte{'a', 0x80, 'b', ',', 'c', '\n'}, Flags: tbl}
	stats := &Stats{}
	res := Parse(data, stats, true, true)
	got := rowStrings(res.Rows[0])
	if got[0] != "a\x80b" {
		t.Fatalf("field 0 = %q", got[0])
	}
	if stats.UTF8Errors != 1 {
		t.Fatalf("UTF8Errors = %d, want 1", stats.UTF8Errors)
	}
}

func TestParse_IncompleteRowRewindAcrossChunks(t *testing.T) {
	tbl := defaultTable()
	chunk1 := &rawbuf.RawCSVData{Bytes: []byte("a,b\n1,\"partial"), Flags: tbl}
	stats := &Stats{}
	res1 := Parse(chunk1, stats, true, false)
	if len(res1.Rows) != 1 {
		t.Fatalf("got %d rows in chunk 1, want 1", len(res1.Rows))
	}
	if res1.IncompleteStart != 4 {
		t.Fatalf("IncompleteStart = %d, want 4", res1.IncompleteStart)
	}

	rewound := append([]byte("1,\"partial"), []byte(" field\"\n")...)
	chunk2 := &rawbuf.RawCSVData{Bytes: rewound, Flags: tbl}
	res2 := Parse(chunk2, stats, false, true)
	if len(res2.Rows) != 1 {
		t.Fatalf("got %d rows in chunk 2, want 1", len(res2.Rows))
	}
	got := rowStrings(res2.Rows[0])
	if got[1] != "partial field" {
		t.Fatalf("field 1 = %q", got[1])
	}
}

func TestParse_NoQuoteClassifiesQuoteByteNotSpecial(t *testing.T) {
	tbl := flags.New(',', '"', false, nil)
	data := &rawbuf.RawCSVData{Bytes: []byte(`a,"b",c` + "\n"), Flags: tbl}
	res := Parse(data, &Stats{}, true, true)
	got := rowStrings(res.Rows[0])
	if got[1] != `"b"` {
		t.Fatalf("field 1 = %q, want literal quotes kept", got[1])
	}
}
