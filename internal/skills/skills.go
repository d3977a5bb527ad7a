// Package skills extracts the skill key from posting skill lists and
// annotates every skill with the green categories of the postings that ask
// for it.
package skills

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/postings"
	"github.com/spigell/greenskills/internal/pylist"
	"github.com/spigell/greenskills/internal/table"
)

const (
	ColumnName        = "skill_name"
	ColumnOccurrences = "occurrences"
	ColumnType        = "category"

	ColumnSkillType   = "skill_type"
	ColumnCategory    = "Category"
	ColumnSubcategory = "Subcategory"
	ColumnCounts      = "Counts"
)

// Skill is one distinct skill name read from one posting list column. Type is
// the name of that column (specialized, common or software skills).
type Skill struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Category    string       `json:"category,omitempty"`
	Subcategory string       `json:"subcategory,omitempty"`
	Occurrences int          `json:"occurrences"`
	Counts      green.Counts `json:"counts"`
}

// ExtractColumn counts the skill names of a column of list literals. The
// result has one row per distinct trimmed name, sorted by name.
func ExtractColumn(values []string, skillType string) ([]*Skill, error) {
	counts := make(map[string]int)
	for i, v := range values {
		list, err := pylist.ParseTrimmed(v)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s row %d", skillType, i+1), err)
		}
		for _, name := range list {
			counts[name]++
		}
	}
	return fromCounts(counts, skillType), nil
}

// Extract builds the skill key over the given list columns of the postings,
// concatenating the per-column results in column order.
func Extract(p *postings.Postings, columns []string) ([]*Skill, error) {
	var result []*Skill
	for _, column := range columns {
		values := make([]string, 0, p.Len())
		for _, posting := range p.Items {
			v, ok := posting.Fields[column]
			if !ok {
				return nil, apperrors.InvalidInput(fmt.Sprintf("posting %d has no column %q", posting.ID, column), nil)
			}
			values = append(values, v)
		}

		key, err := ExtractColumn(values, column)
		if err != nil {
			return nil, fmt.Errorf("postings: %w", err)
		}
		result = append(result, key...)
	}
	return result, nil
}

func fromCounts(counts map[string]int, skillType string) []*Skill {
	result := make([]*Skill, 0, len(counts))
	for name, n := range counts {
		result = append(result, &Skill{Name: name, Type: skillType, Occurrences: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Types returns the distinct skill types in first-seen order.
func Types(skills []*Skill) []string {
	seen := make(map[string]bool)
	var types []string
	for _, s := range skills {
		if !seen[s.Type] {
			seen[s.Type] = true
			types = append(types, s.Type)
		}
	}
	return types
}

// KeyTable renders the skill key: name, occurrences and skill type.
func KeyTable(skills []*Skill) *table.Table {
	t := table.New(ColumnName, ColumnOccurrences, ColumnType)
	for _, s := range skills {
		t.Append([]string{s.Name, strconv.Itoa(s.Occurrences), s.Type})
	}
	return t
}

// KeyFromTable reads a skill key written by KeyTable.
func KeyFromTable(t *table.Table) ([]*Skill, error) {
	var rows []struct {
		Name        string `csv:"skill_name"`
		Occurrences int    `csv:"occurrences"`
		Type        string `csv:"category"`
	}
	if err := t.Require(ColumnName, ColumnOccurrences, ColumnType); err != nil {
		return nil, fmt.Errorf("skill key: %w", err)
	}
	if err := t.Decode(&rows); err != nil {
		return nil, fmt.Errorf("skill key: %w", err)
	}

	result := make([]*Skill, 0, len(rows))
	for _, r := range rows {
		result = append(result, &Skill{Name: r.Name, Type: r.Type, Occurrences: r.Occurrences})
	}
	return result, nil
}

// Header is the column order of annotated skill tables.
func Header() []string {
	header := []string{ColumnName, ColumnSkillType, ColumnCategory, ColumnSubcategory, ColumnCounts}
	for _, c := range green.Categories {
		header = append(header, c.String())
	}
	return header
}

// AnnotatedTable renders skills with their taxonomy and green counts.
func AnnotatedTable(skills []*Skill) *table.Table {
	t := table.New(Header()...)
	for _, s := range skills {
		row := []string{s.Name, s.Type, s.Category, s.Subcategory, strconv.Itoa(s.Occurrences)}
		for _, n := range s.Counts {
			row = append(row, strconv.Itoa(n))
		}
		t.Append(row)
	}
	return t
}

// AnnotatedFromTable reads a table written by AnnotatedTable. Count columns
// that are absent read as zero, so a file holding only the three green
// columns still loads.
func AnnotatedFromTable(t *table.Table) ([]*Skill, error) {
	if err := t.Require(ColumnName, ColumnCounts); err != nil {
		return nil, fmt.Errorf("annotated skills: %w", err)
	}

	result := make([]*Skill, 0, t.Len())
	for r := range t.Rows {
		s := &Skill{
			Name:        t.Value(r, ColumnName),
			Type:        t.Value(r, ColumnSkillType),
			Category:    t.Value(r, ColumnCategory),
			Subcategory: t.Value(r, ColumnSubcategory),
		}

		n, err := intCell(t.Value(r, ColumnCounts))
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("annotated skills row %d: %s", r+1, ColumnCounts), err)
		}
		s.Occurrences = n

		for i, c := range green.Categories {
			n, err := intCell(t.Value(r, c.String()))
			if err != nil {
				return nil, apperrors.InvalidInput(fmt.Sprintf("annotated skills row %d: %s", r+1, c), err)
			}
			s.Counts[i] = n
		}

		result = append(result, s)
	}
	return result, nil
}

func intCell(v string) (int, error) {
	f, err := table.Float(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("count %q is not a whole number", v)
	}
	return int(f), nil
}

// Mismatch is a skill whose green counts do not add up to its occurrences.
type Mismatch struct {
	Name        string
	Type        string
	Occurrences int
	Counted     int
}

// CheckTotals returns every skill whose per-category counts do not sum to its
// occurrence count.
func CheckTotals(skills []*Skill) []Mismatch {
	var result []Mismatch
	for _, s := range skills {
		if total := s.Counts.Total(); total != s.Occurrences {
			result = append(result, Mismatch{Name: s.Name, Type: s.Type, Occurrences: s.Occurrences, Counted: total})
		}
	}
	return result
}

// DumpToTmpFile writes skills as indented JSON to a new temporary file and
// returns its name.
func DumpToTmpFile(skills []*Skill) (string, error) {
	file, err := os.CreateTemp("", "skills_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(skills); err != nil {
		return "", err
	}
	return file.Name(), nil
}
