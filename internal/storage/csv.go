package storage

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

// Line ending modes for CSV output.
const (
	LineEndingAuto = "auto"
	LineEndingLF   = "lf"
	LineEndingCRLF = "crlf"
)

// utf8BOM lets spreadsheet software detect the encoding.
const utf8BOM = "\ufeff"

// Fixed leading columns of the output.
var fixedHeader = []string{"Code", "Location", "Registered", "Envelopes", "Valid"}

// CSVStorage writes a result table as a semicolon-delimited CSV file.
//
// The file is created by Store, so a run that fails before it has all its
// records never leaves an output file behind.
type CSVStorage struct {
	path    string
	useCRLF bool
	count   int
	logger  *slog.Logger
}

// NewCSVStorage creates a CSV writer for outputPath. lineEnding is one of
// "auto" (the platform convention), "lf" or "crlf".
func NewCSVStorage(outputPath, lineEnding string, logger *slog.Logger) *CSVStorage {
	return &CSVStorage{
		path:    outputPath,
		useCRLF: useCRLF(lineEnding),
		logger:  logger.With("component", "csv_storage"),
	}
}

func useCRLF(lineEnding string) bool {
	switch lineEnding {
	case LineEndingCRLF:
		return true
	case LineEndingLF:
		return false
	default:
		return runtime.GOOS == "windows"
	}
}

func (s *CSVStorage) Name() string { return "csv" }

// Path returns the output file path.
func (s *CSVStorage) Path() string { return s.path }

// Store writes the header and one row per record. Parties a municipality
// did not list are written as 0.
func (s *CSVStorage) Store(table *types.ResultTable) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return s.wrap(fmt.Errorf("create output dir: %w", err))
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return s.wrap(err)
	}

	if err := s.write(f, table); err != nil {
		f.Close()
		return s.wrap(err)
	}
	if err := f.Close(); err != nil {
		return s.wrap(err)
	}

	s.count = table.Len()
	s.logger.Info("CSV written", "path", s.path, "rows", s.count, "parties", len(table.Columns))
	return nil
}

func (s *CSVStorage) write(f *os.File, table *types.ResultTable) error {
	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	w.UseCRLF = s.useCRLF

	header := make([]string, 0, len(fixedHeader)+len(table.Columns))
	header = append(header, fixedHeader...)
	header = append(header, table.Columns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	row := make([]string, len(header))
	for i, rec := range table.Rows {
		row[0] = rec.Code
		row[1] = rec.Name
		row[2] = strconv.Itoa(rec.Registered)
		row[3] = strconv.Itoa(rec.Envelopes)
		row[4] = strconv.Itoa(rec.Valid)
		for j, party := range table.Columns {
			row[len(fixedHeader)+j] = strconv.Itoa(table.VoteCount(i, party))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row %d: %w", i+1, err)
		}
	}

	w.Flush()
	return w.Error()
}

func (s *CSVStorage) wrap(err error) error {
	return &types.StorageError{Backend: s.Name(), Path: s.path, Err: err}
}

// Close is a no-op; Store closes the file it writes.
func (s *CSVStorage) Close() error {
	return nil
}
