// Package report aggregates annotated skills by category and subcategory.
package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/greenskills/internal/frame"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/skills"
	"github.com/spigell/greenskills/internal/table"
)

const (
	ColumnGreen         = "Green"
	ColumnNotGreen      = "Not Green"
	ColumnGreenFraction = "Green Fraction"
	ColumnGreenPercent  = "Green %"

	CategoriesFile    = "skills_by_cat_green_frac.csv"
	SubcategoriesFile = "subcategories_by_green_percentage.csv"
)

// greenColumns is the column order the category and subcategory reports use.
var greenColumns = []green.Category{green.Enhanced, green.IncreasedDemand, green.NewEmerging}

// Group is the sum of skill counts over one category or subcategory.
type Group struct {
	Name   string
	Counts int
	// ByCategory sums the stored per-category counts of the member skills.
	ByCategory green.Counts
}

// Green is the sum of the three green categories.
func (g *Group) Green() int {
	total := 0
	for _, c := range green.GreenCategories {
		total += g.ByCategory.Get(c)
	}
	return total
}

// NotGreen is derived from the occurrence total, not from the stored Not
// Green column, so that files without that column still report it.
func (g *Group) NotGreen() int {
	return g.Counts - g.Green()
}

func (g *Group) GreenFraction() float64 {
	if g.Counts == 0 {
		return 0
	}
	return float64(g.Green()) / float64(g.Counts)
}

func (g *Group) GreenPercent() float64 {
	return 100 * g.GreenFraction()
}

// Share is the fraction of the group's occurrences in cat.
func (g *Group) Share(cat green.Category) float64 {
	if g.Counts == 0 {
		return 0
	}
	return float64(g.ByCategory.Get(cat)) / float64(g.Counts)
}

// GroupBy sums skills by the key, keeping groups in first-seen order. Empty
// keys are reported as Uncategorized.
func GroupBy(list []*skills.Skill, key func(*skills.Skill) string) ([]*Group, error) {
	keys := make([]string, len(list))
	columns := make([][]float64, 1+len(green.Categories))
	for i := range columns {
		columns[i] = make([]float64, len(list))
	}

	for r, s := range list {
		name := strings.TrimSpace(key(s))
		if name == "" {
			name = skills.Uncategorized
		}
		keys[r] = name
		columns[0][r] = float64(s.Occurrences)
		for i, n := range s.Counts {
			columns[i+1][r] = float64(n)
		}
	}

	sums, order, err := frame.SumBy(keys, columns)
	if err != nil {
		return nil, fmt.Errorf("grouping skills: %w", err)
	}

	groups := make([]*Group, 0, len(order))
	for _, name := range order {
		v := sums[name]
		g := &Group{Name: name, Counts: int(math.Round(v[0]))}
		for i := range green.Categories {
			g.ByCategory[i] = int(math.Round(v[i+1]))
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// sortByGreen orders groups by green fraction, descending. Equal fractions
// are ordered by name so output is stable.
func sortByGreen(groups []*Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		fi, fj := groups[i].GreenFraction(), groups[j].GreenFraction()
		if fi != fj {
			return fi > fj
		}
		return groups[i].Name < groups[j].Name
	})
}

// ByCategory groups skills by category, sorted by green fraction.
func ByCategory(list []*skills.Skill) ([]*Group, error) {
	groups, err := GroupBy(list, func(s *skills.Skill) string { return s.Category })
	if err != nil {
		return nil, err
	}
	sortByGreen(groups)
	return groups, nil
}

// BySubcategory groups skills by subcategory, sorted by green percentage.
func BySubcategory(list []*skills.Skill) ([]*Group, error) {
	groups, err := GroupBy(list, func(s *skills.Skill) string { return s.Subcategory })
	if err != nil {
		return nil, err
	}
	sortByGreen(groups)
	return groups, nil
}

func CategoryTable(groups []*Group) *table.Table {
	header := []string{skills.ColumnCategory, skills.ColumnCounts}
	for _, c := range greenColumns {
		header = append(header, c.String())
	}
	header = append(header, ColumnGreen, ColumnNotGreen, ColumnGreenFraction)

	t := table.New(header...)
	for _, g := range groups {
		row := []string{g.Name, strconv.Itoa(g.Counts)}
		for _, c := range greenColumns {
			row = append(row, strconv.Itoa(g.ByCategory.Get(c)))
		}
		row = append(row,
			strconv.Itoa(g.Green()),
			strconv.Itoa(g.NotGreen()),
			table.FormatFloat(g.GreenFraction()),
		)
		t.Append(row)
	}
	return t
}

func SubcategoryTable(groups []*Group) *table.Table {
	header := []string{skills.ColumnSubcategory, skills.ColumnCounts}
	for _, c := range greenColumns {
		header = append(header, c.String())
	}
	header = append(header, ColumnGreen, ColumnGreenPercent)

	t := table.New(header...)
	for _, g := range groups {
		row := []string{g.Name, strconv.Itoa(g.Counts)}
		for _, c := range greenColumns {
			row = append(row, strconv.Itoa(g.ByCategory.Get(c)))
		}
		row = append(row, strconv.Itoa(g.Green()), table.FormatFloat(g.GreenPercent()))
		t.Append(row)
	}
	return t
}

// Leader is one entry of a "most X" ranking.
type Leader struct {
	Name  string
	Value float64
}

// LeaderColumns are the rankings Leaders computes, in output order.
func LeaderColumns() []string {
	columns := make([]string, 0, len(greenColumns)+3)
	for _, c := range greenColumns {
		columns = append(columns, c.String())
	}
	return append(columns, ColumnGreen, ColumnNotGreen, ColumnGreenFraction)
}

// Leaders returns, for every ranking column, the n groups with the largest value.
func Leaders(groups []*Group, n int) map[string][]Leader {
	value := func(g *Group, column string) float64 {
		switch column {
		case ColumnGreen:
			return float64(g.Green())
		case ColumnNotGreen:
			return float64(g.NotGreen())
		case ColumnGreenFraction:
			return g.GreenFraction()
		default:
			return float64(g.ByCategory.Get(green.Category(column)))
		}
	}

	result := make(map[string][]Leader)
	for _, column := range LeaderColumns() {
		ranked := make([]Leader, 0, len(groups))
		for _, g := range groups {
			ranked = append(ranked, Leader{Name: g.Name, Value: value(g, column)})
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value > ranked[j].Value })
		if len(ranked) > n {
			ranked = ranked[:n]
		}
		result[column] = ranked
	}
	return result
}

// ChartSelection picks the n greenest groups followed by those of the n
// largest groups that are not already selected. groups must be sorted by
// green fraction.
func ChartSelection(groups []*Group, n int) []*Group {
	selected := make([]*Group, 0, 2*n)
	seen := make(map[string]bool)
	for i, g := range groups {
		if i >= n {
			break
		}
		selected = append(selected, g)
		seen[g.Name] = true
	}

	biggest := append([]*Group(nil), groups...)
	sort.SliceStable(biggest, func(i, j int) bool { return biggest[i].Counts > biggest[j].Counts })
	for i, g := range biggest {
		if i >= n {
			break
		}
		if !seen[g.Name] {
			selected = append(selected, g)
			seen[g.Name] = true
		}
	}
	return selected
}
