package regions

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/spigell/greenskills/internal/green"
)

// MaxScale is the share, in percent, drawn with the darkest colour.
const MaxScale = 20.0

var (
	noData    = color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
	lightest  = color.RGBA{R: 0xf7, G: 0xfc, B: 0xf5, A: 0xff}
	darkest   = color.RGBA{R: 0x00, G: 0x44, B: 0x1b, A: 0xff}
	outline   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	mapPanels = []green.Category{green.Enhanced, green.IncreasedDemand, green.NewEmerging}
)

// Shade maps a percentage on the 0 to MaxScale range to a shade of green.
// Values outside the range are clamped.
func Shade(percent float64) color.RGBA {
	f := percent / MaxScale
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + f*(float64(b)-float64(a)) + 0.5)
	}
	return color.RGBA{
		R: mix(lightest.R, darkest.R),
		G: mix(lightest.G, darkest.G),
		B: mix(lightest.B, darkest.B),
		A: 0xff,
	}
}

// CategoryMap draws one region map coloured by the share of jobs in cat.
func CategoryMap(shapes []*Shape, joined map[*Shape]*Share, cat green.Category) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = cat.String()
	p.Title.TextStyle.Font.Size = vg.Points(20)
	p.HideAxes()

	for _, sh := range shapes {
		rings := make([]plotter.XYer, 0, len(sh.Rings))
		for _, ring := range sh.Rings {
			xys := make(plotter.XYs, len(ring))
			for i, pt := range ring {
				xys[i].X = pt.X
				xys[i].Y = pt.Y
			}
			rings = append(rings, xys)
		}

		poly, err := plotter.NewPolygon(rings...)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", sh.ID, err)
		}
		poly.Color = noData
		if s := joined[sh]; s != nil {
			poly.Color = Shade(100 * s.CategoryShare(cat))
		}
		poly.LineStyle.Color = outline
		poly.LineStyle.Width = vg.Points(0.3)
		p.Add(poly)
	}

	return p, nil
}

// SaveMaps renders one panel per green category side by side into a PNG.
func SaveMaps(path string, shapes []*Shape, shares []*Share, width, height vg.Length) error {
	if len(shapes) == 0 {
		return fmt.Errorf("no region shapes to draw")
	}

	joined := Join(shapes, shares)
	plots := make([][]*plot.Plot, 1)
	plots[0] = make([]*plot.Plot, len(mapPanels))
	for i, cat := range mapPanels {
		p, err := CategoryMap(shapes, joined, cat)
		if err != nil {
			return err
		}
		plots[0][i] = p
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(mapPanels),
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating map directory: %w", err)
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating map %s: %w", path, err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("writing map %s: %w", path, err)
	}
	return w.Close()
}
