package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/skills"
	"github.com/spigell/greenskills/internal/table"
)

// counts are in Enhanced, New and Emerging, Increased Demand, Not Green order.
func annotated() []*skills.Skill {
	return []*skills.Skill{
		{Name: "Python", Category: "IT", Subcategory: "Programming", Occurrences: 10, Counts: green.Counts{2, 1, 3, 4}},
		{Name: "Excel", Category: "IT", Subcategory: "Office", Occurrences: 10, Counts: green.Counts{0, 0, 0, 10}},
		{Name: "Solar", Category: "Energy", Subcategory: "Renewables", Occurrences: 4, Counts: green.Counts{3, 0, 1, 0}},
		{Name: "Leadership", Occurrences: 100, Counts: green.Counts{0, 0, 10, 90}},
	}
}

func byCategory(t *testing.T) []*Group {
	t.Helper()
	groups, err := ByCategory(annotated())
	require.NoError(t, err)
	return groups
}

func bySubcategory(t *testing.T) []*Group {
	t.Helper()
	groups, err := BySubcategory(annotated())
	require.NoError(t, err)
	return groups
}

func names(groups []*Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Name)
	}
	return out
}

func TestByCategory(t *testing.T) {
	t.Parallel()

	groups := byCategory(t)
	require.Equal(t, []string{"Energy", "IT", skills.Uncategorized}, names(groups))

	it := groups[1]
	assert.Equal(t, 20, it.Counts)
	assert.Equal(t, 6, it.Green())
	assert.Equal(t, 14, it.NotGreen())
	assert.InDelta(t, 0.3, it.GreenFraction(), 1e-9)
	assert.InDelta(t, 0.15, it.Share(green.IncreasedDemand), 1e-9)

	got := CategoryTable(groups)
	want := []string{"IT", "20", "2", "3", "1", "6", "14", "0.3"}
	if diff := cmp.Diff(want, got.Rows[1]); diff != "" {
		t.Errorf("category row mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ColumnGreenFraction, got.Columns[len(got.Columns)-1])
}

func TestBySubcategory(t *testing.T) {
	t.Parallel()

	groups := bySubcategory(t)
	require.Equal(t, []string{"Renewables", "Programming", skills.Uncategorized, "Office"}, names(groups))

	got := SubcategoryTable(groups)
	assert.Equal(t, []string{"Programming", "10", "2", "3", "1", "6", "60"}, got.Rows[1])
	assert.Equal(t, "0", got.Value(3, ColumnGreenPercent))
}

func TestGroupByKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	groups, err := GroupBy(annotated(), func(s *skills.Skill) string { return s.Category })
	require.NoError(t, err)
	require.Equal(t, []string{"IT", "Energy", skills.Uncategorized}, names(groups))
	assert.Equal(t, green.Counts{2, 1, 3, 14}, groups[0].ByCategory)
	assert.Equal(t, 100, groups[2].Counts)

	empty, err := GroupBy(nil, func(s *skills.Skill) string { return s.Category })
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestZeroCountsGroup(t *testing.T) {
	t.Parallel()

	g := &Group{Name: "empty"}
	assert.Zero(t, g.GreenFraction())
	assert.Zero(t, g.Share(green.Enhanced))
}

func TestLeaders(t *testing.T) {
	t.Parallel()

	leaders := Leaders(byCategory(t), 2)
	require.Len(t, leaders, len(LeaderColumns()))

	assert.Equal(t, []Leader{{Name: skills.Uncategorized, Value: 90}, {Name: "IT", Value: 14}}, leaders[ColumnNotGreen])
	assert.Equal(t, []Leader{{Name: "Energy", Value: 3}, {Name: "IT", Value: 2}}, leaders[green.Enhanced.String()])
	assert.Equal(t, "Energy", leaders[ColumnGreenFraction][0].Name)
}

func TestChartSelection(t *testing.T) {
	t.Parallel()

	groups := byCategory(t)

	assert.Equal(t, []string{"Energy", skills.Uncategorized}, names(ChartSelection(groups, 1)))
	assert.Equal(t, []string{"Energy", "IT", skills.Uncategorized}, names(ChartSelection(groups, 2)))
	assert.Empty(t, ChartSelection(nil, 5))
}

func TestWrapLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Energy &\nUtilities", WrapLabel("Energy and Utilities"))
	assert.Equal(t, "Sales,\nMarketing", WrapLabel("Sales, Marketing"))
}

func TestCategoryChart(t *testing.T) {
	t.Parallel()

	_, err := CategoryChart(nil)
	require.Error(t, err)

	p, err := CategoryChart(ChartSelection(byCategory(t), 5))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "charts", CategoriesChartFile)
	require.NoError(t, SaveChart(p, path, 8*vg.Inch, 4*vg.Inch))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteWorkbook(t *testing.T) {
	t.Parallel()

	groups := byCategory(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, WriteWorkbook(path,
		Sheet{Name: "categories", Table: CategoryTable(groups)},
		Sheet{Name: "subcategories", Table: SubcategoryTable(bySubcategory(t))},
	))

	got, err := table.ReadXLSX(path, 0, 0)
	require.NoError(t, err)
	want := CategoryTable(groups)
	if diff := cmp.Diff(want.Rows, got.Rows); diff != "" {
		t.Errorf("categories sheet mismatch (-want +got):\n%s", diff)
	}

	second, err := table.ReadXLSX(path, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Len())

	require.Error(t, WriteWorkbook(path))
}

func TestSheetName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Len(t, sheetName("a sheet name that is far too long for a workbook"), maxSheetName)
}
