package postings

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/pylist"
	"github.com/spigell/greenskills/internal/table"
)

const (
	PostingIDField       = "ID"
	PostingSOCField      = "SOC"
	PostingCategoryField = "GreenCategory"

	// GreenCategoryColumn and PercentageColumn are added by Merge.
	GreenCategoryColumn = "Green Category"
	PercentageColumn    = "percentage"

	DefaultSOCColumn = "SOC_4"
)

// DefaultSkillColumns are the Lightcast list columns, one per skill type.
var DefaultSkillColumns = []string{
	"SPECIALIZED_SKILLS_NAME",
	"COMMON_SKILLS_NAME",
	"SOFTWARE_SKILLS_NAME",
}

// Columns names the key columns of a postings file. An empty ID means the
// first column, which is how Lightcast exports carry the posting index.
type Columns struct {
	ID  string `mapstructure:"id"`
	SOC string `mapstructure:"soc"`
}

type Postings struct {
	// Columns is the output column order: source columns followed by the
	// columns added by Merge.
	Columns []string
	Items   []*Posting
	// DroppedNA counts source rows dropped for a missing identifier.
	DroppedNA int

	idColumn  string
	socColumn string
}

type Posting struct {
	ID            int               `json:"id"`
	SOC           string            `json:"soc,omitempty"`
	GreenCategory green.Category    `json:"green_category,omitempty"`
	Percentage    float64           `json:"percentage,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`

	skills map[string][]string
}

// Load reads a postings CSV, dropping rows whose identifier is missing.
func Load(path string, cols Columns) (*Postings, error) {
	t, err := table.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}
	return FromTable(t, cols)
}

// FromTable builds postings from a table. Merged datasets written by Table
// are read back with their green category and percentage.
func FromTable(t *table.Table, cols Columns) (*Postings, error) {
	if len(t.Columns) == 0 {
		return nil, apperrors.InvalidInput("postings table has no columns", nil)
	}

	idColumn := cols.ID
	if idColumn == "" {
		idColumn = t.Columns[0]
	}
	socColumn := cols.SOC
	if socColumn == "" {
		socColumn = DefaultSOCColumn
	}
	if err := t.Require(idColumn, socColumn); err != nil {
		return nil, fmt.Errorf("postings: %w", err)
	}

	p := &Postings{
		Columns:   append([]string(nil), t.Columns...),
		Items:     make([]*Posting, 0, t.Len()),
		idColumn:  idColumn,
		socColumn: socColumn,
	}

	for r, row := range t.Rows {
		raw := t.Value(r, idColumn)
		if table.IsNA(raw) {
			p.DroppedNA++
			continue
		}

		id, err := parseID(raw)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("postings row %d: identifier %q", r+1, raw), err)
		}

		fields := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			fields[c] = row[i]
		}

		posting := &Posting{
			ID:     id,
			SOC:    occupations.NormalizeSOC(fields[socColumn]),
			Fields: fields,
		}

		if label, ok := fields[GreenCategoryColumn]; ok {
			cat, err := green.Parse(label)
			if err != nil {
				return nil, fmt.Errorf("postings row %d: %w", r+1, err)
			}
			posting.GreenCategory = cat
		}

		if v, ok := fields[PercentageColumn]; ok {
			f, err := table.Float(v)
			if err != nil {
				return nil, apperrors.InvalidInput(fmt.Sprintf("postings row %d: percentage %q", r+1, v), err)
			}
			posting.Percentage = f
		}

		p.Items = append(p.Items, posting)
	}

	return p, nil
}

// parseID accepts integral floats since pandas writes an index with missing
// values as a float column.
func parseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("identifier is not an integer")
	}
	return int(f), nil
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) SOCColumn() string {
	return p.socColumn
}

func (p *Postings) FindByID(id int) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Postings) IDs() []int {
	ids := make([]int, 0, len(p.Items))
	for _, posting := range p.Items {
		ids = append(ids, posting.ID)
	}
	return ids
}

func (po *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return strconv.Itoa(po.ID)
	case PostingSOCField:
		return po.SOC
	case PostingCategoryField:
		return string(po.GreenCategory)
	default:
		return ""
	}
}

// Skills returns the trimmed skill names of a list column. Parsed lists are
// cached on the posting.
func (po *Posting) Skills(column string) ([]string, error) {
	if list, ok := po.skills[column]; ok {
		return list, nil
	}

	raw, ok := po.Fields[column]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("posting %d has no column %q", po.ID, column), nil)
	}

	list, err := pylist.ParseTrimmed(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("posting %d column %s", po.ID, column), err)
	}

	if po.skills == nil {
		po.skills = make(map[string][]string)
	}
	po.skills[column] = list
	return list, nil
}

// Exclude removes postings whose field matches one of targets and returns the
// removed identifiers. Order of the remaining postings is preserved.
func (p *Postings) Exclude(name string, targets []string) []int {
	drop := make(map[string]bool, len(targets))
	for _, t := range targets {
		drop[t] = true
	}

	var excluded []int
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if drop[posting.GetStringField(name)] {
			excluded = append(excluded, posting.ID)
			continue
		}
		kept = append(kept, posting)
	}
	p.Items = kept
	return excluded
}

// ExcludeFunc removes postings for which fn returns true.
func (p *Postings) ExcludeFunc(fn func(*Posting) bool) []int {
	var excluded []int
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if fn(posting) {
			excluded = append(excluded, posting.ID)
			continue
		}
		kept = append(kept, posting)
	}
	p.Items = kept
	return excluded
}

func (p *Postings) addColumn(name string) {
	for _, c := range p.Columns {
		if c == name {
			return
		}
	}
	p.Columns = append(p.Columns, name)
}

// Table renders the postings with all columns, including those set by Merge.
func (p *Postings) Table() *table.Table {
	t := table.New(p.Columns...)
	for _, posting := range p.Items {
		row := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			row[i] = posting.Fields[c]
		}
		t.Append(row)
	}
	return t
}

// CountByCategory counts postings per green category, unlabeled ones as Not Green.
func (p *Postings) CountByCategory() green.Counts {
	var counts green.Counts
	for _, posting := range p.Items {
		counts.Add(posting.GreenCategory, 1)
	}
	return counts
}

// ReportByOccupation groups posting identifiers by occupation.
func (p *Postings) ReportByOccupation() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := fmt.Sprintf("%s (%s)", posting.SOC, posting.GreenCategory.OrNotGreen())
		report[key] = append(report[key], map[string]string{
			"id":         strconv.Itoa(posting.ID),
			"percentage": table.FormatFloat(posting.Percentage),
		})
	}
	for key := range report {
		sort.Slice(report[key], func(i, j int) bool {
			a, _ := strconv.Atoi(report[key][i]["id"])
			b, _ := strconv.Atoi(report[key][j]["id"])
			return a < b
		})
	}
	return report
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}
