package storage

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleTable() *types.ResultTable {
	r := types.NewMunicipalityRecord("506761", "Alojzov")
	r.Registered, r.Envelopes, r.Valid = 370, 256, 254
	r.Votes["PartyA"] = 79
	r.Votes["PartyB"] = 1
	return &types.ResultTable{
		Rows:    []*types.MunicipalityRecord{r},
		Columns: []string{"PartyA", "PartyB"},
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func TestCSVStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVStorage(path, LineEndingLF, testLogger)

	if err := s.Store(sampleTable()); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := readOutput(t, path)
	want := "\ufeffCode;Location;Registered;Envelopes;Valid;PartyA;PartyB\n" +
		"506761;Alojzov;370;256;254;79;1\n"
	if got != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func TestCSVStorageZeroFill(t *testing.T) {
	a := types.NewMunicipalityRecord("1", "A")
	a.Votes["PartyA"] = 5
	b := types.NewMunicipalityRecord("2", "B")
	b.Votes["PartyB"] = 7
	table := &types.ResultTable{
		Rows:    []*types.MunicipalityRecord{a, b},
		Columns: []string{"PartyA", "PartyB"},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSVStorage(path, LineEndingLF, testLogger).Store(table); err != nil {
		t.Fatalf("store: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(readOutput(t, path), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[1] != "1;A;0;0;0;5;0" {
		t.Errorf("row 1: got %q", lines[1])
	}
	if lines[2] != "2;B;0;0;0;0;7" {
		t.Errorf("row 2: got %q", lines[2])
	}
}

func TestCSVStorageQuoting(t *testing.T) {
	r := types.NewMunicipalityRecord("1", `Horní; "Dolní"`)
	r.Votes[`Strana; "X"`] = 3
	table := &types.ResultTable{
		Rows:    []*types.MunicipalityRecord{r},
		Columns: []string{`Strana; "X"`},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSVStorage(path, LineEndingLF, testLogger).Store(table); err != nil {
		t.Fatalf("store: %v", err)
	}

	// Reading it back with the same dialect must recover the fields.
	data := strings.TrimPrefix(readOutput(t, path), "\ufeff")
	rd := csv.NewReader(strings.NewReader(data))
	rd.Comma = ';'
	rows, err := rd.ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if rows[0][5] != `Strana; "X"` {
		t.Errorf("party header not preserved: %q", rows[0][5])
	}
	if rows[1][1] != `Horní; "Dolní"` {
		t.Errorf("name not preserved: %q", rows[1][1])
	}
}

func TestCSVStorageCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSVStorage(path, LineEndingCRLF, testLogger).Store(sampleTable()); err != nil {
		t.Fatalf("store: %v", err)
	}
	got := readOutput(t, path)
	if strings.Count(got, "\r\n") != 2 {
		t.Errorf("expected CRLF line endings, got %q", got)
	}
}

func TestCSVStorageEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSVStorage(path, LineEndingLF, testLogger).Store(&types.ResultTable{}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if got := readOutput(t, path); got != "\ufeffCode;Location;Registered;Envelopes;Valid\n" {
		t.Errorf("expected header only, got %q", got)
	}
}

func TestCSVStorageCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	if err := NewCSVStorage(path, LineEndingLF, testLogger).Store(sampleTable()); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output not created: %v", err)
	}
}

func TestCSVStorageUnwritablePath(t *testing.T) {
	// A path below a regular file cannot be created.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(blocker, "out.csv")

	err := NewCSVStorage(path, LineEndingLF, testLogger).Store(sampleTable())
	var se *types.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Path != path {
		t.Errorf("error should name the file, got %q", se.Path)
	}
}

func TestCSVStorageNotCreatedUntilStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	NewCSVStorage(path, LineEndingLF, testLogger)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist before Store, stat err = %v", err)
	}
}
