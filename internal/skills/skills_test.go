package skills

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/postings"
	"github.com/spigell/greenskills/internal/table"
)

const (
	specialized = "SPECIALIZED_SKILLS_NAME"
	software    = "SOFTWARE_SKILLS_NAME"
)

func newPostings(t *testing.T, rows ...[]string) *postings.Postings {
	t.Helper()
	tbl := table.New("id", "SOC_4", specialized, software, postings.GreenCategoryColumn)
	for _, r := range rows {
		tbl.Append(r)
	}
	p, err := postings.FromTable(tbl, postings.Columns{})
	require.NoError(t, err)
	return p
}

func samplePostings(t *testing.T) *postings.Postings {
	return newPostings(t,
		[]string{"1", "2136", "['Python', 'Data Analysis']", "['Python']", "Green Increased Demand"},
		[]string{"2", "2136", "['Python']", "[]", "Green Increased Demand"},
		[]string{"3", "1115", "[' Python ', 'Leadership']", "['Excel']", ""},
		[]string{"4", "5241", "['Solar Installation', 'Leadership']", "[]", "Green Enhanced Skills"},
		[]string{"5", "2425", "['Data Analysis', 'Data Analysis']", "['Excel', 'Python']", "Green New and Emerging"},
	)
}

func find(skills []*Skill, skillType, name string) *Skill {
	for _, s := range skills {
		if s.Type == skillType && s.Name == name {
			return s
		}
	}
	return nil
}

func TestExtractColumn(t *testing.T) {
	t.Parallel()

	got, err := ExtractColumn([]string{"['SQL', 'Python']", "['Python ']", "[]"}, specialized)
	require.NoError(t, err)

	want := []*Skill{
		{Name: "Python", Type: specialized, Occurrences: 2},
		{Name: "SQL", Type: specialized, Occurrences: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected skills (-want +got):\n%s", diff)
	}

	_, err = ExtractColumn([]string{"['SQL'", "[]"}, specialized)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestExtract(t *testing.T) {
	t.Parallel()

	p := samplePostings(t)

	got, err := Extract(p, []string{specialized, software})
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.Type[:4]+":"+s.Name)
	}
	assert.Equal(t, []string{
		"SPEC:Data Analysis", "SPEC:Leadership", "SPEC:Python", "SPEC:Solar Installation",
		"SOFT:Excel", "SOFT:Python",
	}, names)

	assert.Equal(t, 3, find(got, specialized, "Data Analysis").Occurrences)
	assert.Equal(t, 3, find(got, specialized, "Python").Occurrences)
	assert.Equal(t, 2, find(got, software, "Python").Occurrences)
	assert.Equal(t, []string{specialized, software}, Types(got))
}

func TestExtractMatchesColumnExtraction(t *testing.T) {
	t.Parallel()

	p := samplePostings(t)
	got, err := Extract(p, []string{software})
	require.NoError(t, err)

	values := make([]string, 0, p.Len())
	for _, posting := range p.Items {
		values = append(values, posting.Fields[software])
	}
	want, err := ExtractColumn(values, software)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected skills (-want +got):\n%s", diff)
	}

	_, err = Extract(p, []string{"COMMON_SKILLS_NAME"})
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))

	broken := newPostings(t, []string{"1", "2136", "['Python'", "[]", ""})
	_, err = Extract(broken, []string{specialized})
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Extract(samplePostings(t), []string{specialized, software})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Extract(samplePostings(t), []string{specialized, software})
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("extraction changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestAnnotateExample(t *testing.T) {
	t.Parallel()

	p := newPostings(t,
		[]string{"1", "2136", "['Python']", "[]", "Green Increased Demand"},
		[]string{"2", "2136", "['Python', 'SQL']", "[]", "Green Increased Demand"},
		[]string{"3", "1115", "['Python']", "[]", ""},
	)

	skills, err := Extract(p, []string{specialized})
	require.NoError(t, err)

	require.NoError(t, (&Annotator{}).Annotate(skills, p))

	python := find(skills, specialized, "Python")
	require.NotNil(t, python)
	assert.Equal(t, 0, python.Counts.Get(green.Enhanced))
	assert.Equal(t, 0, python.Counts.Get(green.NewEmerging))
	assert.Equal(t, 2, python.Counts.Get(green.IncreasedDemand))
	assert.Equal(t, 1, python.Counts.Get(green.NotGreen))
}

func TestAnnotateTotalsMatchOccurrences(t *testing.T) {
	t.Parallel()

	p := samplePostings(t)
	skills, err := Extract(p, []string{specialized, software})
	require.NoError(t, err)

	require.NoError(t, (&Annotator{}).Annotate(skills, p))
	assert.Empty(t, CheckTotals(skills))

	analysis := find(skills, specialized, "Data Analysis")
	assert.Equal(t, green.Counts{0, 2, 1, 0}, analysis.Counts)

	skills[0].Occurrences++
	mismatches := CheckTotals(skills)
	require.Len(t, mismatches, 1)
	assert.Equal(t, skills[0].Name, mismatches[0].Name)
}

func TestAnnotateNaiveMatchesIndexed(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	p := samplePostings(t)

	indexed, err := Extract(p, []string{specialized, software})
	require.NoError(t, err)
	require.NoError(t, (&Annotator{}).Annotate(indexed, p))

	naive, err := Extract(p, []string{specialized, software})
	require.NoError(t, err)
	require.NoError(t, (&Annotator{Naive: true, Logger: zap.New(core)}).Annotate(naive, p))

	if diff := cmp.Diff(indexed, naive); diff != "" {
		t.Fatalf("naive and indexed annotation differ (-indexed +naive):\n%s", diff)
	}
	assert.Equal(t, len(naive), observed.FilterMessage("matching skill").Len())
	assert.Equal(t, 1, observed.FilterMessage("annotated skills").Len())
}

func TestAnnotateUnknownSkillColumn(t *testing.T) {
	t.Parallel()

	p := samplePostings(t)
	skills := []*Skill{{Name: "Python", Type: "COMMON_SKILLS_NAME", Occurrences: 1}}

	err := (&Annotator{}).Annotate(skills, p)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestKeyTable(t *testing.T) {
	t.Parallel()

	skills := []*Skill{{Name: "Python", Type: specialized, Occurrences: 3}}

	tbl := KeyTable(skills)
	assert.Equal(t, []string{"skill_name", "occurrences", "category"}, tbl.Columns)

	back, err := KeyFromTable(tbl)
	require.NoError(t, err)
	assert.Equal(t, skills, back)

	_, err = KeyFromTable(table.New(ColumnName))
	assert.Error(t, err)
}

func TestAnnotatedFromTable(t *testing.T) {
	t.Parallel()

	tbl := table.New(ColumnName, ColumnCategory, ColumnSubcategory, ColumnCounts,
		"Green Enhanced Skills", "Green Increased Demand", "Green New and Emerging")
	tbl.Append([]string{"Solar Installation", "Energy", "Renewables", "5", "3", "1", "0"})

	got, err := AnnotatedFromTable(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Occurrences)
	assert.Equal(t, green.Counts{3, 0, 1, 0}, got[0].Counts)
	assert.Equal(t, "Renewables", got[0].Subcategory)

	written := AnnotatedTable(got)
	assert.Equal(t, Header(), written.Columns)
	assert.Equal(t, "0", written.Value(0, "Not Green"))

	bad := table.New(ColumnName, ColumnCounts)
	bad.Append([]string{"Python", "many"})
	_, err = AnnotatedFromTable(bad)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestAnnotatedFromTableRejectsFractionalCounts(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"2.5", "0.1", "inf"} {
		tbl := table.New(ColumnName, ColumnCounts, "Green Enhanced Skills")
		tbl.Append([]string{"Python", "3", v})

		_, err := AnnotatedFromTable(tbl)
		require.Error(t, err, v)
		assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput), v)
	}

	tbl := table.New(ColumnName, ColumnCounts)
	tbl.Append([]string{"Python", "3.0"})
	got, err := AnnotatedFromTable(tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, got[0].Occurrences)
}

func TestTaxonomy(t *testing.T) {
	t.Parallel()

	tbl := table.New("skill_name", "category", "subcategory")
	tbl.Append([]string{"Python", "Information Technology", "Scripting Languages"})
	tbl.Append([]string{"Python", "Duplicate", "Duplicate"})
	tbl.Append([]string{"Solar Installation", "Energy and Utilities", "Solar Energy"})

	tax, err := TaxonomyFromTable(tbl)
	require.NoError(t, err)
	assert.Len(t, tax, 2)

	skills := []*Skill{{Name: "Python"}, {Name: "Solar Installation"}, {Name: "Knitting"}}
	assert.Equal(t, 1, tax.Apply(skills))
	assert.Equal(t, "Information Technology", skills[0].Category)
	assert.Equal(t, "Solar Energy", skills[1].Subcategory)
	assert.Equal(t, Uncategorized, skills[2].Category)

	_, err = TaxonomyFromTable(table.New("name"))
	assert.Error(t, err)
}

func TestDumpToTmpFile(t *testing.T) {
	t.Parallel()

	name, err := DumpToTmpFile([]*Skill{{Name: "Python", Type: specialized, Occurrences: 2, Counts: green.Counts{0, 0, 2, 0}}})
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(name) })

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Python"`)
	assert.Contains(t, string(data), `"occurrences": 2`)
}
