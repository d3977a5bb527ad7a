package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/spigell/greenskills/internal/errors"
)

// Source describes where a table is read from. Sheet and SkipRows only apply
// to workbooks; the first row after the skipped ones is the header.
type Source struct {
	Path     string `mapstructure:"path"`
	Sheet    int    `mapstructure:"sheet"`
	SkipRows int    `mapstructure:"skip-rows"`
}

// Load reads a CSV or XLSX table depending on the file extension.
func Load(src Source) (*Table, error) {
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return ReadXLSX(src.Path, src.Sheet, src.SkipRows)
	default:
		return ReadCSV(src.Path)
	}
}

func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer file.Close()

	t, err := ReadCSVFrom(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ReadCSVFrom reads a CSV stream whose first record is the header. Blank
// records are skipped.
func ReadCSVFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.InvalidInput("empty csv", nil)
		}
		return nil, apperrors.InvalidInput("csv header", err)
	}

	t := New(normalizeHeader(trimBOM(header))...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.InvalidInput("csv record", err)
		}
		if blank(record) {
			continue
		}
		t.Append(record)
	}

	return t, nil
}

// WriteCSV writes the header and all rows, creating parent directories.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := t.WriteCSVTo(file); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

func (t *Table) WriteCSVTo(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// ReadXLSX reads the sheet with the given zero-based index.
func ReadXLSX(path string, sheet, skip int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet < 0 || sheet >= len(sheets) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s has %d sheets, sheet %d requested", path, len(sheets), sheet), nil)
	}

	rows, err := f.GetRows(sheets[sheet], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("reading sheet %q of %s", sheets[sheet], path), err)
	}

	if skip < 0 {
		skip = 0
	}
	if skip >= len(rows) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("sheet %q of %s has no header after skipping %d rows", sheets[sheet], path, skip), nil)
	}
	rows = rows[skip:]

	t := New(normalizeHeader(rows[0])...)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		t.Append(row)
	}

	return t, nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NotFound(path, err)
	}
	return apperrors.Internal("opening "+path, err)
}

func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
