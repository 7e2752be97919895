// Command csvstream is a small CLI/benchmark harness over pkg/csvstream,
// analogous to the teacher's examples/ programs and
// entreya-csvquery's cmd/benchmark: it reads a file, drives the Reader
// iterator to completion, and reports row count, column names, elapsed
// time, and throughput.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shapestone/streamcsv/internal/fastparser/simd"
	"github.com/shapestone/streamcsv/internal/rawbuf"
	"github.com/shapestone/streamcsv/pkg/csvstream"
)

func main() {
	var (
		source     = flag.String("source", "plain", "input source: plain, mmap, or lz4")
		delimiter  = flag.String("delim", ",", "field delimiter")
		noHeader   = flag.Bool("no-header", false, "treat row 0 as data, not a header")
		quiet      = flag.Bool("quiet", false, "suppress per-row warnings")
		sniff      = flag.Bool("sniff", false, "detect delimiter and header presence from a sample (replaces -delim; -no-header still applies)")
		headerCase = flag.String("header-case", "", "rewrite header names: lower, upper, or snake")
		selectCols = flag.String("select", "", "comma-separated column names to print with -print")
		printN     = flag.Int("print", 0, "print the first N data rows (0 disables)")
		requireCol = flag.String("require", "", "comma-separated column names that must be present and non-empty on every row")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	features := simd.Detect()
	log.Printf("cpu features: avx2=%v sse4.2=%v", features.HasAVX2, features.HasSSE4_2)

	opts := csvstream.DefaultReaderOptions()
	if *sniff {
		sample, err := sniffSample(path)
		if err != nil {
			log.Fatalf("sniff %s: %v", path, err)
		}
		opts.Format = csvstream.Sniff(sample)
		log.Printf("sniffed: delimiter=%q header=%v", opts.Format.Delimiter, opts.Format.HeaderRowIndex != csvstream.NoHeader)
	}
	if len(*delimiter) != 1 {
		log.Fatalf("delimiter must be a single byte, got %q", *delimiter)
	}
	if !*sniff {
		opts.Format.Delimiter = rune((*delimiter)[0])
	}
	if *noHeader {
		opts.Format.HeaderRowIndex = csvstream.NoHeader
	}
	switch *headerCase {
	case "":
	case "lower":
		opts.HeaderConverter = csvstream.LowercaseHeader
	case "upper":
		opts.HeaderConverter = csvstream.UppercaseHeader
	case "snake":
		opts.HeaderConverter = csvstream.SnakeCaseHeader
	default:
		log.Fatalf("unknown -header-case %q: want lower, upper, or snake", *headerCase)
	}
	if !*quiet {
		opts.ErrorRecovery.WarningCallback = func(line int, message string) {
			log.Printf("line %d: %s", line, message)
		}
	}

	var sel *csvstream.ColumnSelector
	if *selectCols != "" {
		sel = &csvstream.ColumnSelector{UseCols: strings.Split(*selectCols, ",")}
	}

	var schema *csvstream.Schema
	if *requireCol != "" {
		schema = csvstream.NewSchema()
		schema.AllowExtraColumns = true
		for _, name := range strings.Split(*requireCol, ",") {
			schema.AddRequiredColumn(name, csvstream.ColumnTypeAny)
		}
	}

	if err := run(path, *source, opts, sel, schema, *printN); err != nil {
		log.Fatal(err)
	}
}

// sniffSample reads up to 64 KiB from path for csvstream.Sniff to analyze.
func sniffSample(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, 64*1024)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	return string(buf[:n]), nil
}

func run(path, source string, opts csvstream.ReaderOptions, sel *csvstream.ColumnSelector, schema *csvstream.Schema, printN int) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var r *csvstream.Reader
	switch source {
	case "plain":
		r, err = csvstream.NewReaderFromFile(path, opts)
	case "mmap":
		r, err = csvstream.NewReaderFromMmapFile(path, opts)
	case "lz4":
		r, err = csvstream.NewReaderFromLZ4File(path, opts)
	default:
		return fmt.Errorf("unknown -source %q: want plain, mmap, or lz4", source)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	fmt.Printf("session: %s\n", r.SessionID())
	cols := r.ColumnNames()
	if cols != nil {
		fmt.Printf("columns (%d): %v\n", len(cols), cols)
	} else {
		fmt.Println("columns: none (no-header mode)")
	}

	start := time.Now()
	rows := 0
	if schema != nil {
		result, err := csvstream.ValidateSchema(r, schema)
		if err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
		if !result.Valid {
			fmt.Println(result.AllErrors())
			return fmt.Errorf("%s: schema validation failed with %d error(s)", path, len(result.Errors))
		}
		fmt.Println("schema: all required columns present")
	} else {
		for {
			row, err := r.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("row %d: %w", rows+1, err)
			}
			rows++
			if printN > 0 && rows <= printN {
				printRow(row, cols, sel)
			}
		}
	}
	elapsed := time.Since(start)

	mbPerSec := float64(info.Size()) / (1024 * 1024) / elapsed.Seconds()
	fmt.Printf("rows:          %d\n", rows)
	fmt.Printf("bytes:         %d\n", info.Size())
	fmt.Printf("elapsed:       %v\n", elapsed)
	fmt.Printf("throughput:    %.2f MB/s\n", mbPerSec)
	if r.HadUTF8Errors() {
		fmt.Printf("utf8 recoveries: %d\n", r.UTF8ErrorCount())
	}
	if r.HadQuoteErrors() {
		fmt.Printf("quote recoveries: %d\n", r.QuoteErrorCount())
	}
	return nil
}

// printRow prints one row's fields, applying sel (if non-nil) to decide
// which columns to show; column names fall back to their index when cols is
// nil (no-header mode).
func printRow(row rawbuf.Row, cols []string, sel *csvstream.ColumnSelector) {
	var parts []string
	for i := 0; i < row.Len(); i++ {
		name := fmt.Sprintf("%d", i)
		if i < len(cols) {
			name = cols[i]
		}
		if sel != nil && !sel.ShouldInclude(name, i) {
			continue
		}
		f, _ := row.Get(i)
		parts = append(parts, fmt.Sprintf("%s=%s", name, f.String()))
	}
	fmt.Println(strings.Join(parts, " "))
}
