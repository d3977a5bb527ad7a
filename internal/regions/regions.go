// Package regions reads job counts per occupation and NUTS region and
// computes the share of jobs in green occupations for every region.
package regions

import (
	"fmt"
	"strings"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/frame"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/table"
)

const (
	DefaultPrefix = "UK"
	// LabelColumn holds the workbook row labels.
	LabelColumn = "Unnamed: 0"
	// OccupationColumn holds cells such as "1115 'Chief executives and senior officials'".
	OccupationColumn = "Unnamed: 1"
	// ColumnSOC and ColumnOccupation are added by FromTable.
	ColumnSOC        = "SOC"
	ColumnOccupation = "Occupation"

	SharesFile = "green_share_by_region.csv"
	MapFile    = "green_share_by_region.png"

	ColumnID         = "NUTS_ID"
	ColumnName       = "NUTS_NAME"
	ColumnCounts     = "Counts"
	ColumnGreen      = "Green"
	ColumnGreenShare = "Green Share"
)

// Region is a NUTS region column of the jobs workbook. Headers look like
// "UKC11 Hartlepool and Stockton-on-Tees".
type Region struct {
	Column string
	ID     string
	Name   string
}

func ParseRegion(header string) Region {
	header = strings.TrimSpace(header)
	id, name, _ := strings.Cut(header, " ")
	return Region{
		Column: header,
		ID:     id,
		Name:   strings.TrimSpace(name),
	}
}

// Occupation is one row of the jobs workbook.
type Occupation struct {
	SOC      string
	Name     string
	Category green.Category
	Counts   []float64
}

type JobsByRegion struct {
	Regions     []Region
	Occupations []*Occupation
}

// LoadJobsByRegion reads the jobs workbook. Region columns are those whose
// header starts with prefix.
func LoadJobsByRegion(src table.Source, prefix string) (*JobsByRegion, error) {
	t, err := table.Load(src)
	if err != nil {
		return nil, fmt.Errorf("loading jobs by region: %w", err)
	}
	return FromTable(t, prefix)
}

// FromTable reads the jobs table. The table is modified in place: the row
// label column is dropped, rows without an occupation are filtered out and
// the parsed code and name are added as columns.
func FromTable(t *table.Table, prefix string) (*JobsByRegion, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := t.Require(OccupationColumn); err != nil {
		return nil, fmt.Errorf("jobs by region: %w", err)
	}

	t.DropColumns(LabelColumn)
	t.Filter(func(r int) bool {
		return !table.IsNA(strings.TrimSpace(t.Value(r, OccupationColumn)))
	})

	j := &JobsByRegion{}
	for _, col := range t.Columns {
		if strings.HasPrefix(col, prefix) {
			j.Regions = append(j.Regions, ParseRegion(col))
		}
	}
	if len(j.Regions) == 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("jobs by region: no columns start with %q", prefix), nil)
	}

	cells, err := t.Column(OccupationColumn)
	if err != nil {
		return nil, fmt.Errorf("jobs by region: %w", err)
	}
	socs := make([]string, len(cells))
	names := make([]string, len(cells))
	for r, cell := range cells {
		socs[r], names[r], err = ParseOccupation(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("jobs by region row %d: %w", r+1, err)
		}
	}
	if err := t.AddColumn(ColumnSOC, socs); err != nil {
		return nil, err
	}
	if err := t.AddColumn(ColumnOccupation, names); err != nil {
		return nil, err
	}

	for r := range t.Rows {
		j.Occupations = append(j.Occupations, &Occupation{
			SOC:    t.Value(r, ColumnSOC),
			Name:   t.Value(r, ColumnOccupation),
			Counts: make([]float64, len(j.Regions)),
		})
	}
	for i, region := range j.Regions {
		values, err := t.Column(region.Column)
		if err != nil {
			return nil, fmt.Errorf("jobs by region: %w", err)
		}
		for r, v := range values {
			f, err := table.Float(v)
			if err != nil {
				return nil, apperrors.InvalidInput(fmt.Sprintf("jobs by region row %d, column %s", r+1, region.Column), err)
			}
			j.Occupations[r].Counts[i] = f
		}
	}

	return j, nil
}

// ParseOccupation splits an occupation cell into its code and the quoted name.
func ParseOccupation(cell string) (string, string, error) {
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return "", "", apperrors.InvalidInput("empty occupation cell", nil)
	}

	soc := occupations.NormalizeSOC(fields[0])
	if soc == "" {
		return "", "", apperrors.InvalidInput(fmt.Sprintf("occupation cell %q has no code", cell), nil)
	}
	for _, c := range soc {
		if c < '0' || c > '9' {
			return "", "", apperrors.InvalidInput(fmt.Sprintf("occupation cell %q does not start with a code", cell), nil)
		}
	}

	rest := strings.TrimSpace(strings.TrimPrefix(cell, fields[0]))
	if parts := strings.Split(rest, "'"); len(parts) >= 3 {
		return soc, parts[1], nil
	}
	return soc, rest, nil
}

// Label sets the green category of every occupation found in the crosswalk and
// returns how many were found. The others stay unlabeled.
func (j *JobsByRegion) Label(crosswalk *occupations.Crosswalk) int {
	found := 0
	for _, o := range j.Occupations {
		cat, ok := crosswalk.Lookup(o.SOC)
		if !ok {
			continue
		}
		o.Category = cat
		found++
	}
	return found
}

// Share holds the job counts of one region.
type Share struct {
	Region     Region
	Total      float64
	ByCategory map[green.Category]float64
}

func (s *Share) Green() float64 {
	total := 0.0
	for _, c := range green.GreenCategories {
		total += s.ByCategory[c]
	}
	return total
}

func (s *Share) GreenShare() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.Green() / s.Total
}

func (s *Share) CategoryShare(cat green.Category) float64 {
	if s.Total == 0 {
		return 0
	}
	return s.ByCategory[cat] / s.Total
}

// Shares sums every region column over all occupations and over each green category.
func (j *JobsByRegion) Shares() ([]*Share, error) {
	keys := make([]string, len(j.Occupations))
	columns := make([][]float64, len(j.Regions))
	for i := range columns {
		columns[i] = make([]float64, len(j.Occupations))
	}
	for r, o := range j.Occupations {
		keys[r] = string(o.Category.OrNotGreen())
		for i, v := range o.Counts {
			columns[i][r] = v
		}
	}

	sums, order, err := frame.SumBy(keys, columns)
	if err != nil {
		return nil, fmt.Errorf("summing jobs by region: %w", err)
	}

	shares := make([]*Share, len(j.Regions))
	for i, region := range j.Regions {
		s := &Share{Region: region, ByCategory: make(map[green.Category]float64)}
		for _, key := range order {
			v := sums[key][i]
			s.Total += v
			if cat := green.Category(key); cat.IsGreen() {
				s.ByCategory[cat] = v
			}
		}
		shares[i] = s
	}
	return shares, nil
}

var shareCategories = []green.Category{green.Enhanced, green.IncreasedDemand, green.NewEmerging}

func categoryShareColumn(cat green.Category) string {
	return cat.String() + " Share"
}

func SharesTable(shares []*Share) *table.Table {
	header := []string{ColumnID, ColumnName, ColumnCounts, ColumnGreen, ColumnGreenShare}
	for _, c := range shareCategories {
		header = append(header, categoryShareColumn(c))
	}

	t := table.New(header...)
	for _, s := range shares {
		row := []string{
			s.Region.ID,
			s.Region.Name,
			table.FormatFloat(s.Total),
			table.FormatFloat(s.Green()),
			table.FormatFloat(s.GreenShare()),
		}
		for _, c := range shareCategories {
			row = append(row, table.FormatFloat(s.CategoryShare(c)))
		}
		t.Append(row)
	}
	return t
}
