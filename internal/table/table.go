// Package table is a small column-named, string-valued table used by every
// stage of the pipeline. Values are kept as read; typed access goes through
// Decode or the Float helper.
package table

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	apperrors "github.com/spigell/greenskills/internal/errors"
)

// Table is an ordered set of named columns with string cells. Every row has
// exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New returns an empty table with the given header.
func New(columns ...string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the column or -1.
func (t *Table) Index(column string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Require returns an invalid-input error naming the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return apperrors.InvalidInput(fmt.Sprintf("missing column %q", c), nil)
		}
	}
	return nil
}

// Value returns the cell or "" when the column does not exist.
func (t *Table) Value(row int, column string) string {
	i := t.Index(column)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, fit(row, len(t.Columns)))
}

// Column returns a copy of all values of the column.
func (t *Table) Column(name string) ([]string, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("missing column %q", name), nil)
	}
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values, nil
}

// AddColumn appends a column, or overwrites it when it already exists.
func (t *Table) AddColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return apperrors.Internal(fmt.Sprintf("column %q has %d values for %d rows", name, len(values), len(t.Rows)), nil)
	}

	if i := t.Index(name); i >= 0 {
		for r := range t.Rows {
			t.Rows[r][i] = values[r]
		}
		return nil
	}

	t.Columns = append(t.Columns, name)
	t.index[name] = len(t.Columns) - 1
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], values[r])
	}
	return nil
}

// DropColumns removes the named columns. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[int]bool)
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return
	}

	keep := make([]int, 0, len(t.Columns)-len(drop))
	for i := range t.Columns {
		if !drop[i] {
			keep = append(keep, i)
		}
	}

	t.Columns = pick(t.Columns, keep)
	for r, row := range t.Rows {
		t.Rows[r] = pick(row, keep)
	}
	t.reindex()
}

// Filter keeps the rows for which keep returns true and returns how many were dropped.
func (t *Table) Filter(keep func(row int) bool) int {
	kept := t.Rows[:0]
	dropped := 0
	for r, row := range t.Rows {
		if keep(r) {
			kept = append(kept, row)
			continue
		}
		dropped++
	}
	t.Rows = kept
	return dropped
}

// Records returns one map per row keyed by column name.
func (t *Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = row[i]
		}
		records = append(records, rec)
	}
	return records
}

// Decode fills out, a pointer to a slice of structs, from the rows. Struct
// fields are matched by their `csv` tag; cells are trimmed and weakly typed.
func (t *Table) Decode(out any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "csv",
		WeaklyTypedInput: true,
		DecodeHook:       trimHook,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return apperrors.Internal("building row decoder", err)
	}

	if err := decoder.Decode(t.Records()); err != nil {
		return apperrors.InvalidInput("decoding rows", err)
	}
	return nil
}

func trimHook(from reflect.Kind, to reflect.Kind, data any) (any, error) {
	if from != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	switch to {
	case reflect.Int, reflect.Int64, reflect.Float64:
		if s == "" || IsNA(s) {
			return "0", nil
		}
	}
	return s, nil
}

// IsNA reports whether a cell is missing in the sense of pandas' default NA values.
func IsNA(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "<NA>", "#N/A":
		return true
	}
	return false
}

// Float parses a numeric cell. Missing values and the suppression markers used
// by ONS tables ("*", "-") read as zero.
func Float(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if IsNA(s) || s == "*" || s == "-" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

// FormatFloat renders floats without trailing zeros.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func pick(values []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

// normalizeHeader names blank header cells "Unnamed: N" and suffixes
// duplicates with ".1", ".2", the way pandas readers do, so configuration can
// refer to columns by the names analysts already use.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		out[i] = h
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
