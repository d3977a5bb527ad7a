package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/greenskills/internal/green"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const CategoriesChartFile = "skills_by_cat_green_frac.png"

// Palette holds the colour of every green category in charts.
var Palette = map[green.Category]color.Color{
	green.Enhanced:        color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	green.NewEmerging:     color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	green.IncreasedDemand: color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	green.NotGreen:        color.RGBA{R: 0xbe, G: 0xbe, B: 0xbe, A: 0xff},
}

// WrapLabel breaks long category names at list separators so axis labels stay narrow.
func WrapLabel(name string) string {
	name = strings.ReplaceAll(name, ", ", ",\n")
	return strings.ReplaceAll(name, " and ", " &\n")
}

// CategoryChart stacks the share of every green category for each group, in percent.
func CategoryChart(groups []*Group) (*plot.Plot, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("no categories to plot")
	}

	p := plot.New()
	p.Title.Text = "Share of skill mentions in green occupations"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = "Skill mentions (%)"

	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = WrapLabel(g.Name)
	}

	var below *plotter.BarChart
	top := 0.0
	for _, cat := range green.GreenCategories {
		values := make(plotter.Values, len(groups))
		for i, g := range groups {
			values[i] = 100 * g.Share(cat)
		}

		bars, err := plotter.NewBarChart(values, vg.Points(30))
		if err != nil {
			return nil, fmt.Errorf("building bars for %s: %w", cat, err)
		}
		bars.Color = Palette[cat]
		bars.LineStyle.Width = vg.Length(0)
		if below != nil {
			bars.StackOn(below)
		}

		p.Add(bars)
		p.Legend.Add(cat.String(), bars)
		below = bars
	}

	for _, g := range groups {
		top = math.Max(top, 100*g.GreenFraction())
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0
	p.Y.Max = math.Max(top*1.15, 1)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	return p, nil
}

// SaveChart writes p as an image; the format follows the file extension.
func SaveChart(p *plot.Plot, path string, width, height vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}
