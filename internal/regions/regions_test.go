package regions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/table"
)

func jobsTable() *table.Table {
	t := table.New("Unnamed: 0", OccupationColumn, "UKC11 Hartlepool and Stockton-on-Tees", "UKI31 Camden and City of London", "Total")
	t.Append([]string{"", "1115 'Chief executives and senior officials'", "10", "40", "50"})
	t.Append([]string{"", "2136 'Programmers and software development professionals'", "*", "60", "60"})
	t.Append([]string{"", "5241 'Electricians and electrical fitters'", "30", "-", "30"})
	t.Append([]string{"", "", "", "", ""})
	return t
}

func crosswalk(t *testing.T) *occupations.Crosswalk {
	t.Helper()
	cw, err := occupations.NewCrosswalk([]occupations.CrosswalkEntry{
		{SOC: "2136", Category: green.IncreasedDemand},
		{SOC: "5241", Category: green.Enhanced},
		{SOC: "9999", Category: green.NewEmerging},
	})
	require.NoError(t, err)
	return cw
}

func TestParseRegion(t *testing.T) {
	t.Parallel()

	got := ParseRegion(" UKC11 Hartlepool and Stockton-on-Tees ")
	assert.Equal(t, Region{Column: "UKC11 Hartlepool and Stockton-on-Tees", ID: "UKC11", Name: "Hartlepool and Stockton-on-Tees"}, got)
	assert.Equal(t, Region{Column: "UKC11", ID: "UKC11"}, ParseRegion("UKC11"))
}

func TestParseOccupation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell    string
		soc     string
		name    string
		wantErr bool
	}{
		{cell: "1115 'Chief executives and senior officials'", soc: "1115", name: "Chief executives and senior officials"},
		{cell: "2136.0 'Programmers'", soc: "2136", name: "Programmers"},
		{cell: "3111 Laboratory technicians", soc: "3111", name: "Laboratory technicians"},
		{cell: "Total 'all'", wantErr: true},
		{cell: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			soc, name, err := ParseOccupation(tt.cell)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.soc, soc)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestFromTable(t *testing.T) {
	t.Parallel()

	j, err := FromTable(jobsTable(), "")
	require.NoError(t, err)

	require.Len(t, j.Regions, 2)
	assert.Equal(t, "UKI31", j.Regions[1].ID)
	require.Len(t, j.Occupations, 3)
	assert.Equal(t, []float64{0, 60}, j.Occupations[1].Counts)
	assert.Equal(t, []float64{30, 0}, j.Occupations[2].Counts)

	_, err = FromTable(jobsTable(), "DE")
	require.Error(t, err)

	bad := jobsTable()
	bad.Rows[0][2] = "many"
	_, err = FromTable(bad, DefaultPrefix)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestFromTableReshapesTable(t *testing.T) {
	t.Parallel()

	tbl := jobsTable()
	_, err := FromTable(tbl, DefaultPrefix)
	require.NoError(t, err)

	assert.False(t, tbl.Has(LabelColumn))
	assert.Equal(t, 3, tbl.Len())
	socs, err := tbl.Column(ColumnSOC)
	require.NoError(t, err)
	assert.Equal(t, []string{"1115", "2136", "5241"}, socs)
	assert.Equal(t, "Electricians and electrical fitters", tbl.Value(2, ColumnOccupation))
}

func TestSharesWithoutOccupations(t *testing.T) {
	t.Parallel()

	j := &JobsByRegion{Regions: []Region{ParseRegion("UKC11 Hartlepool")}}
	shares, err := j.Shares()
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Zero(t, shares[0].Total)
	assert.Zero(t, shares[0].GreenShare())
}

func TestShares(t *testing.T) {
	t.Parallel()

	j, err := FromTable(jobsTable(), DefaultPrefix)
	require.NoError(t, err)
	assert.Equal(t, 2, j.Label(crosswalk(t)))
	assert.Equal(t, green.Unlabeled, j.Occupations[0].Category)

	shares, err := j.Shares()
	require.NoError(t, err)
	require.Len(t, shares, 2)

	hartlepool := shares[0]
	assert.InDelta(t, 40, hartlepool.Total, 1e-9)
	assert.InDelta(t, 30, hartlepool.Green(), 1e-9)
	assert.InDelta(t, 0.75, hartlepool.GreenShare(), 1e-9)
	assert.InDelta(t, 0.75, hartlepool.CategoryShare(green.Enhanced), 1e-9)
	assert.Zero(t, hartlepool.CategoryShare(green.IncreasedDemand))

	camden := shares[1]
	assert.InDelta(t, 0.6, camden.CategoryShare(green.IncreasedDemand), 1e-9)

	got := SharesTable(shares)
	assert.Equal(t, []string{"UKI31", "Camden and City of London", "100", "60", "0.6", "0", "0.6", "0"}, got.Rows[1])

	empty := &Share{ByCategory: map[green.Category]float64{}}
	assert.Zero(t, empty.GreenShare())
}

func TestShade(t *testing.T) {
	t.Parallel()

	assert.Equal(t, lightest, Shade(-1))
	assert.Equal(t, lightest, Shade(0))
	assert.Equal(t, darkest, Shade(MaxScale))
	assert.Equal(t, darkest, Shade(80))
	mid := Shade(MaxScale / 2)
	assert.Less(t, mid.G, lightest.G)
	assert.Greater(t, mid.G, darkest.G)
}

type testShape struct {
	country, id, name string
	level             int
	ring              []shp.Point
}

func square(x, y float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y}}
}

func writeShapefile(t *testing.T, shapes []testShape) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nuts.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("CNTR_CODE", 2),
		shp.NumberField("LEVL_CODE", 1),
		shp.StringField("NUTS_ID", 5),
		shp.StringField("NUTS_NAME", 60),
	}))

	for _, s := range shapes {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{s.ring}))
		n := int(w.Write(&poly))
		require.NoError(t, w.WriteAttribute(n, 0, s.country))
		require.NoError(t, w.WriteAttribute(n, 1, s.level))
		require.NoError(t, w.WriteAttribute(n, 2, s.id))
		require.NoError(t, w.WriteAttribute(n, 3, s.name))
	}
	w.Close()

	// The writer names the attribute file "<base>dbf"; the reader wants "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}

	return path
}

func sampleShapes(t *testing.T) string {
	return writeShapefile(t, []testShape{
		{country: "UK", level: 3, id: "UKC11", name: "Hartlepool and Stockton-on-Tees", ring: square(0, 0)},
		{country: "UK", level: 3, id: "UKX99", name: "CAMDEN AND CITY OF LONDON", ring: square(1, 0)},
		{country: "UK", level: 3, id: "UKM50", name: "Aberdeen City", ring: square(0, 1)},
		{country: "UK", level: 2, id: "UKC1", name: "Tees Valley", ring: square(0, 0)},
		{country: "DE", level: 3, id: "DE300", name: "Berlin", ring: square(5, 5)},
	})
}

func TestLoadShapes(t *testing.T) {
	t.Parallel()

	shapes, err := LoadShapes(sampleShapes(t), DefaultShapeFilter())
	require.NoError(t, err)
	require.Len(t, shapes, 3)
	assert.Equal(t, "UKC11", shapes[0].ID)
	require.Len(t, shapes[0].Rings, 1)
	assert.Len(t, shapes[0].Rings[0], 5)
	assert.Equal(t, "Hartlepool and Stockton-on-Tees", shapes[0].Name)
	assert.Equal(t, "UKM50", shapes[2].ID)
	assert.Equal(t, "Aberdeen City", shapes[2].Name)
	assert.Equal(t, "Aberdeen City", trimAttribute(" Aberdeen City\x00\x00\x00"))

	all, err := LoadShapes(sampleShapes(t), ShapeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = LoadShapes(filepath.Join(t.TempDir(), "missing.shp"), DefaultShapeFilter())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeNotFound))
}

func TestJoinAndSaveMaps(t *testing.T) {
	t.Parallel()

	j, err := FromTable(jobsTable(), DefaultPrefix)
	require.NoError(t, err)
	j.Label(crosswalk(t))
	shares, err := j.Shares()
	require.NoError(t, err)

	shapes, err := LoadShapes(sampleShapes(t), DefaultShapeFilter())
	require.NoError(t, err)

	joined := Join(shapes, shares)
	assert.Same(t, shares[0], joined[shapes[0]])
	assert.Same(t, shares[1], joined[shapes[1]])
	assert.Nil(t, joined[shapes[2]])

	path := filepath.Join(t.TempDir(), "maps", MapFile)
	require.NoError(t, SaveMaps(path, shapes, shares, 12*vg.Inch, 5*vg.Inch))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.Error(t, SaveMaps(path, nil, shares, 12*vg.Inch, 5*vg.Inch))
}
