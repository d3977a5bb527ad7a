// Package occupations loads the SOC 2010 keyed tables that postings are joined
// with: the green category crosswalk and the green time share workbook.
package occupations

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/table"
)

// NormalizeSOC returns the canonical form of an occupation code. Codes read
// from float columns ("2136.0") are reduced to their integer form; missing
// values become "".
func NormalizeSOC(code string) string {
	code = strings.TrimSpace(code)
	if table.IsNA(code) {
		return ""
	}
	if f, err := strconv.ParseFloat(code, 64); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return code
}

// CrosswalkColumns names the columns of the green category crosswalk.
type CrosswalkColumns struct {
	Code     string `mapstructure:"code"`
	Title    string `mapstructure:"title"`
	Category string `mapstructure:"category"`
}

func DefaultCrosswalkColumns() CrosswalkColumns {
	return CrosswalkColumns{
		Code:     "SOC2010 4-digit",
		Title:    "SOC2010 Unit Group Titles",
		Category: "Green Category",
	}
}

type CrosswalkEntry struct {
	SOC      string
	Title    string
	Category green.Category
}

// Crosswalk maps occupation codes to green categories. Codes are unique.
type Crosswalk struct {
	Entries []CrosswalkEntry
	byCode  map[string]green.Category
}

// NewCrosswalk indexes entries by code. A repeated code would fan out the
// postings join, so it is rejected.
func NewCrosswalk(entries []CrosswalkEntry) (*Crosswalk, error) {
	c := &Crosswalk{
		Entries: entries,
		byCode:  make(map[string]green.Category, len(entries)),
	}
	for _, e := range entries {
		if _, ok := c.byCode[e.SOC]; ok {
			return nil, apperrors.Cardinality(fmt.Sprintf("occupation code %s appears more than once in the green category crosswalk", e.SOC), nil)
		}
		c.byCode[e.SOC] = e.Category
	}
	return c, nil
}

// Lookup returns the category of the code. ok is false when the code is absent.
func (c *Crosswalk) Lookup(soc string) (green.Category, bool) {
	cat, ok := c.byCode[NormalizeSOC(soc)]
	return cat, ok
}

func (c *Crosswalk) Len() int {
	return len(c.Entries)
}

// LoadGreenCategories reads the crosswalk from a CSV or workbook. Rows with a
// missing code are skipped.
func LoadGreenCategories(src table.Source, cols CrosswalkColumns) (*Crosswalk, error) {
	t, err := table.Load(src)
	if err != nil {
		return nil, fmt.Errorf("loading green categories: %w", err)
	}
	return CrosswalkFromTable(t, cols)
}

func CrosswalkFromTable(t *table.Table, cols CrosswalkColumns) (*Crosswalk, error) {
	if err := t.Require(cols.Code, cols.Category); err != nil {
		return nil, fmt.Errorf("green categories: %w", err)
	}

	entries := make([]CrosswalkEntry, 0, t.Len())
	for r := range t.Rows {
		soc := NormalizeSOC(t.Value(r, cols.Code))
		if soc == "" {
			continue
		}

		cat, err := green.Parse(t.Value(r, cols.Category))
		if err != nil {
			return nil, fmt.Errorf("green categories row %d (code %s): %w", r+1, soc, err)
		}

		entries = append(entries, CrosswalkEntry{
			SOC:      soc,
			Title:    strings.TrimSpace(t.Value(r, cols.Title)),
			Category: cat,
		})
	}

	return NewCrosswalk(entries)
}

// TimeShareColumns names the key columns of the green time share sheet.
// Every other column is carried into the merged dataset.
type TimeShareColumns struct {
	Code        string `mapstructure:"code"`
	Description string `mapstructure:"description"`
}

func DefaultTimeShareColumns() TimeShareColumns {
	return TimeShareColumns{
		Code:        "SOC 2010 code",
		Description: "SOC 2010 description",
	}
}

type TimeShare struct {
	SOC         string
	Description string
	// Values holds every non-key column, keyed by header (years).
	Values map[string]string
}

// Share returns the value of the year column as a float.
func (ts *TimeShare) Share(year string) (float64, error) {
	v, ok := ts.Values[year]
	if !ok {
		return 0, apperrors.InvalidInput(fmt.Sprintf("green time share has no column %q", year), nil)
	}
	f, err := table.Float(v)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("green time share %s for %s", year, ts.SOC), err)
	}
	return f, nil
}

type TimeShares struct {
	// Columns are the non-key headers in sheet order.
	Columns []string
	Items   []*TimeShare
	byCode  map[string]*TimeShare
}

func (ts *TimeShares) Lookup(soc string) (*TimeShare, bool) {
	s, ok := ts.byCode[NormalizeSOC(soc)]
	return s, ok
}

func (ts *TimeShares) Len() int {
	return len(ts.Items)
}


func LoadGreenTimeShare(src table.Source, cols TimeShareColumns) (*TimeShares, error) {
	t, err := table.Load(src)
	if err != nil {
		return nil, fmt.Errorf("loading green time share: %w", err)
	}
	return TimeSharesFromTable(t, cols)
}

// TimeSharesFromTable indexes the sheet by code. Rows without a code (notes,
// footers) are skipped; repeated codes are a cardinality error.
func TimeSharesFromTable(t *table.Table, cols TimeShareColumns) (*TimeShares, error) {
	if err := t.Require(cols.Code); err != nil {
		return nil, fmt.Errorf("green time share: %w", err)
	}

	result := &TimeShares{byCode: make(map[string]*TimeShare, t.Len())}
	for _, c := range t.Columns {
		if c != cols.Code && c != cols.Description {
			result.Columns = append(result.Columns, c)
		}
	}

	for r := range t.Rows {
		soc := NormalizeSOC(t.Value(r, cols.Code))
		if soc == "" {
			continue
		}
		if _, ok := result.byCode[soc]; ok {
			return nil, apperrors.Cardinality(fmt.Sprintf("occupation code %s appears more than once in the green time share table", soc), nil)
		}

		share := &TimeShare{
			SOC:         soc,
			Description: strings.TrimSpace(t.Value(r, cols.Description)),
			Values:      make(map[string]string, len(result.Columns)),
		}
		for _, c := range result.Columns {
			share.Values[c] = t.Value(r, c)
		}

		result.Items = append(result.Items, share)
		result.byCode[soc] = share
	}

	return result, nil
}
