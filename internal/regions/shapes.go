package regions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/table"
)

// ShapeFilter selects the NUTS shapes to draw.
type ShapeFilter struct {
	Country string `mapstructure:"country"`
	Level   int    `mapstructure:"level"`
}

func DefaultShapeFilter() ShapeFilter {
	return ShapeFilter{Country: "UK", Level: 3}
}

// Shape is the outline of one NUTS region. Every ring is a closed list of points.
type Shape struct {
	ID    string
	Name  string
	Rings [][]shp.Point
}

// LoadShapes reads polygons with their CNTR_CODE, LEVL_CODE, NUTS_ID and
// NUTS_NAME attributes from an ESRI shapefile.
func LoadShapes(path string, filter ShapeFilter) ([]*Shape, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound(path, err)
		}
		return nil, apperrors.Internal("opening "+path, err)
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, apperrors.Internal("opening shapefile "+path, err)
	}
	defer r.Close()

	fields := make(map[string]int)
	for i, f := range r.Fields() {
		fields[strings.ToUpper(trimAttribute(f.String()))] = i
	}
	for _, name := range []string{"CNTR_CODE", "LEVL_CODE", "NUTS_ID", "NUTS_NAME"} {
		if _, ok := fields[name]; !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("shapefile %s has no %s attribute", path, name), nil)
		}
	}

	var shapes []*Shape
	for r.Next() {
		n, geometry := r.Shape()
		attr := func(name string) string {
			return trimAttribute(r.ReadAttribute(n, fields[name]))
		}

		if filter.Country != "" && attr("CNTR_CODE") != filter.Country {
			continue
		}
		if filter.Level > 0 {
			level, err := table.Float(attr("LEVL_CODE"))
			if err != nil || int(level) != filter.Level {
				continue
			}
		}

		rings := polygonRings(geometry)
		if len(rings) == 0 {
			continue
		}
		shapes = append(shapes, &Shape{
			ID:    attr("NUTS_ID"),
			Name:  attr("NUTS_NAME"),
			Rings: rings,
		})
	}
	if err := r.Err(); err != nil {
		return nil, apperrors.InvalidInput("reading shapefile "+path, err)
	}

	return shapes, nil
}

// trimAttribute strips the space and NUL padding of DBF values.
func trimAttribute(v string) string {
	return strings.Trim(v, " \x00")
}

func polygonRings(geometry shp.Shape) [][]shp.Point {
	switch g := geometry.(type) {
	case *shp.Polygon:
		return splitParts(g.Parts, g.Points)
	case *shp.PolygonZ:
		return splitParts(g.Parts, g.Points)
	case *shp.PolygonM:
		return splitParts(g.Parts, g.Points)
	default:
		return nil
	}
}

func splitParts(parts []int32, points []shp.Point) [][]shp.Point {
	rings := make([][]shp.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		rings = append(rings, points[start:end])
	}
	return rings
}

// Join pairs every shape with the share of its region. Regions are matched by
// NUTS id, then by name ignoring case. Shapes without a region get nil.
func Join(shapes []*Shape, shares []*Share) map[*Shape]*Share {
	byID := make(map[string]*Share, len(shares))
	byName := make(map[string]*Share, len(shares))
	for _, s := range shares {
		byID[s.Region.ID] = s
		byName[strings.ToLower(s.Region.Name)] = s
	}

	joined := make(map[*Shape]*Share, len(shapes))
	for _, sh := range shapes {
		s, ok := byID[sh.ID]
		if !ok {
			s = byName[strings.ToLower(sh.Name)]
		}
		joined[sh] = s
	}
	return joined
}
