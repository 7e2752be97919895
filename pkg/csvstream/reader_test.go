package csvstream_test

import (
	"errors"
	"io"
	"testing"

	"github.com/shapestone/streamcsv/pkg/csvstream"
)

func mustReader(t *testing.T, data string, opts csvstream.ReaderOptions) *csvstream.Reader {
	t.Helper()
	r, err := csvstream.NewReaderFromString(data, opts)
	if err != nil {
		t.Fatalf("NewReaderFromString: %v", err)
	}
	return r
}

func TestReader_HeaderResolution(t *testing.T) {
	r := mustReader(t, "name,age\nalice,30\nbob,40\n", csvstream.DefaultReaderOptions())
	defer r.Close()

	if got := r.ColumnNames(); len(got) != 2 || got[0] != "name" || got[1] != "age" {
		t.Fatalf("ColumnNames() = %v", got)
	}

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	f, err := row.GetByName("name")
	if err != nil || f.String() != "alice" {
		t.Fatalf("GetByName(name) = (%q, %v)", f.String(), err)
	}

	row, err = r.Next()
	if err != nil {
		t.Fatalf("Next (2nd row): %v", err)
	}
	f, _ = row.GetByName("age")
	if f.String() != "40" {
		t.Fatalf("got %q, want 40", f.String())
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("final Next() = %v, want io.EOF", err)
	}
}

func TestReader_NoHeader(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	r := mustReader(t, "1,2\n3,4\n", opts)
	defer r.Close()

	if names := r.ColumnNames(); names != nil {
		t.Fatalf("ColumnNames() = %v, want nil", names)
	}

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row.Len() != 2 {
		t.Fatalf("row.Len() = %d, want 2", row.Len())
	}
	if _, err := row.GetByName("anything"); err == nil {
		t.Fatal("GetByName should fail with no header configured")
	}
}

func TestReader_QuotedAndEscapedFields(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	r := mustReader(t, `a,"b, with comma","she said ""hi"""`+"\n", opts)
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	f1, _ := row.Get(1)
	if f1.String() != "b, with comma" {
		t.Fatalf("field 1 = %q", f1.String())
	}
	f2, _ := row.Get(2)
	if f2.String() != `she said "hi"` {
		t.Fatalf("field 2 = %q", f2.String())
	}
}

func TestReader_VariableColumns_StrictErrors(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	r := mustReader(t, "1,2,3\n4,5\n", opts)
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("first row: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, csvstream.ErrFieldCount) {
		t.Fatalf("second row err = %v, want ErrFieldCount", err)
	}
}

func TestReader_VariableColumns_Keep(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.VariableColumns = csvstream.PolicyKeep
	r := mustReader(t, "1,2,3\n4,5\n", opts)
	defer r.Close()

	r.Next()
	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row.Len() != 2 {
		t.Fatalf("row.Len() = %d, want 2 (kept as-is)", row.Len())
	}
}

func TestReader_VariableColumns_IgnorePads(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.VariableColumns = csvstream.PolicyIgnore
	r := mustReader(t, "1,2,3\n4,5\n6,7,8,9\n", opts)
	defer r.Close()

	r.Next()

	short, err := r.Next()
	if err != nil {
		t.Fatalf("short row: %v", err)
	}
	if short.Len() != 3 {
		t.Fatalf("short.Len() = %d, want 3", short.Len())
	}
	f2, _ := short.Get(2)
	if f2.String() != "" {
		t.Fatalf("padded field = %q, want empty", f2.String())
	}

	long, err := r.Next()
	if err != nil {
		t.Fatalf("long row: %v", err)
	}
	if long.Len() != 3 {
		t.Fatalf("long.Len() = %d, want 3 (truncated)", long.Len())
	}
}

func TestReader_SessionIDStable(t *testing.T) {
	r := mustReader(t, "a,b\n1,2\n", csvstream.DefaultReaderOptions())
	defer r.Close()
	id1 := r.SessionID()
	r.Next()
	if r.SessionID() != id1 {
		t.Fatal("SessionID changed across reads")
	}
}

func TestReader_MalformedUTF8Recovers(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	r := mustReader(t, "a\xffb,c\n", opts)
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !r.HadUTF8Errors() || r.UTF8ErrorCount() != 1 {
		t.Fatalf("HadUTF8Errors=%v count=%d, want true/1", r.HadUTF8Errors(), r.UTF8ErrorCount())
	}
	f0, _ := row.Get(0)
	if f0.String() != "a\xffb" {
		t.Fatalf("field 0 = %q", f0.String())
	}
}

func TestReader_SmallChunkSizeForcesRewind(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.ChunkSize = 4 // force many small chunks, well under one row's width
	r := mustReader(t, "aaaa,bbbb\ncccc,dddd\neeee,ffff\n", opts)
	defer r.Close()

	var got [][2]string
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		f0, _ := row.Get(0)
		f1, _ := row.Get(1)
		got = append(got, [2]string{f0.String(), f1.String()})
	}
	want := [][2]string{{"aaaa", "bbbb"}, {"cccc", "dddd"}, {"eeee", "ffff"}}
	if len(got) != len(want) {
		t.Fatalf("got %v rows, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReader_ReadAll(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	r := mustReader(t, "1,2\n3,4\n", opts)
	defer r.Close()

	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != "2" || rows[1][1] != "4" {
		t.Fatalf("ReadAll() = %v", rows)
	}
}

func TestReader_WarningCallback_VariableColumns(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.VariableColumns = csvstream.PolicyKeep

	var warnings []string
	opts.ErrorRecovery.WarningCallback = func(line int, message string) {
		warnings = append(warnings, message)
	}

	r := mustReader(t, "1,2,3\n4,5\n", opts)
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("first row: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("second row: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestReader_WarningCallback_SilentWhenUnset(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.VariableColumns = csvstream.PolicyKeep
	r := mustReader(t, "1,2,3\n4,5\n", opts)
	defer r.Close()

	r.Next()
	if _, err := r.Next(); err != nil {
		t.Fatalf("second row: %v", err)
	}
}

func TestReader_NullValuesReachField(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.NullValues = []string{"NA"}
	r := mustReader(t, "1,NA,hello\n", opts)
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	f1, _ := row.Get(1)
	if !f1.IsNull(opts.NullValues) {
		t.Fatalf("field 1 = %q, want recognized as null via configured NullValues", f1.String())
	}
	if f1.IsStr() {
		t.Fatalf("field 1 IsStr() = true, want false: NullValues should reach IsStr via RawCSVData")
	}
	f2, _ := row.Get(2)
	if !f2.IsStr() {
		t.Fatalf("field 2 (%q) IsStr() = false, want true", f2.String())
	}
}

func TestReader_MaxFieldSizeErrors(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.ErrorRecovery.MaxFieldSize = 3
	r := mustReader(t, "ab,cdefg\n", opts)
	defer r.Close()

	if _, err := r.Next(); !errors.Is(err, csvstream.ErrFieldTooLarge) {
		t.Fatalf("Next() err = %v, want ErrFieldTooLarge", err)
	}
}

func TestReader_MaxRecordSizeErrors(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.ErrorRecovery.MaxRecordSize = 4
	r := mustReader(t, "ab,cd,ef\n", opts)
	defer r.Close()

	if _, err := r.Next(); !errors.Is(err, csvstream.ErrRecordTooLarge) {
		t.Fatalf("Next() err = %v, want ErrRecordTooLarge", err)
	}
}

func TestReader_OnBadLineSkipContinuesPastFieldCountMismatch(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.ErrorRecovery.OnBadLine = csvstream.BadLineModeSkip

	var calls int
	opts.ErrorRecovery.BadLineCallback = func(line int, content string, err error) bool {
		calls++
		return true
	}

	r := mustReader(t, "1,2,3\n4,5\n6,7,8\n", opts)
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("first row: %v", err)
	}
	if row.Len() != 3 {
		t.Fatalf("first row len = %d, want 3", row.Len())
	}
	row, err = r.Next()
	if err != nil {
		t.Fatalf("expected the short row to be skipped, not erroring: %v", err)
	}
	if row.Len() != 3 {
		t.Fatalf("second returned row len = %d, want 3 (short row skipped)", row.Len())
	}
	if calls != 1 {
		t.Fatalf("BadLineCallback called %d times, want 1", calls)
	}
}

func TestReader_OnBadLineSkipHonorsCallbackFalse(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.ErrorRecovery.OnBadLine = csvstream.BadLineModeSkip
	opts.ErrorRecovery.BadLineCallback = func(line int, content string, err error) bool {
		return false
	}

	r := mustReader(t, "1,2,3\n4,5\n", opts)
	defer r.Close()

	r.Next()
	if _, err := r.Next(); !errors.Is(err, csvstream.ErrFieldCount) {
		t.Fatalf("err = %v, want ErrFieldCount when BadLineCallback returns false", err)
	}
}

func TestReader_QuoteErrorDetection(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	r := mustReader(t, `"hello"x,b`+"\n", opts)
	defer r.Close()

	if _, err := r.Next(); !errors.Is(err, csvstream.ErrQuote) {
		t.Fatalf("Next() err = %v, want ErrQuote", err)
	}
}

func TestReader_QuoteErrorWarnModeRecovers(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = csvstream.NoHeader
	opts.ErrorRecovery.OnBadLine = csvstream.BadLineModeWarn

	var warnings []string
	opts.ErrorRecovery.WarningCallback = func(line int, message string) {
		warnings = append(warnings, message)
	}

	r := mustReader(t, `"hello"x,b`+"\n", opts)
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestReader_HeaderConverterAppliesToColumnNames(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.HeaderConverter = csvstream.SnakeCaseHeader
	r := mustReader(t, "First Name,Last Name\nalice,lee\n", opts)
	defer r.Close()

	got := r.ColumnNames()
	want := []string{"first_name", "last_name"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("ColumnNames() = %v, want %v", got, want)
	}

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f, err := row.GetByName("first_name"); err != nil || f.String() != "alice" {
		t.Fatalf("GetByName(first_name) = (%q, %v)", f.String(), err)
	}
}

func TestReader_HeaderMissingRow(t *testing.T) {
	opts := csvstream.DefaultReaderOptions()
	opts.Format.HeaderRowIndex = 5
	if _, err := csvstream.NewReaderFromString("a,b\n", opts); err == nil {
		t.Fatal("want error when input has fewer rows than HeaderRowIndex")
	}
}
