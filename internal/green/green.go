// Package green holds the fixed set of green economy category labels that
// occupations are classified into.
package green

import (
	"fmt"
	"strings"

	apperrors "github.com/spigell/greenskills/internal/errors"
)

type Category string

const (
	// Unlabeled is the zero value: the occupation had no crosswalk entry.
	Unlabeled       Category = ""
	Enhanced        Category = "Green Enhanced Skills"
	NewEmerging     Category = "Green New and Emerging"
	IncreasedDemand Category = "Green Increased Demand"
	NotGreen        Category = "Not Green"
)

// Categories is the order of the per-skill count vector.
var Categories = []Category{Enhanced, NewEmerging, IncreasedDemand, NotGreen}

// GreenCategories are the labels that count as green.
var GreenCategories = []Category{Enhanced, NewEmerging, IncreasedDemand}

func (c Category) String() string {
	return string(c)
}

// IsGreen reports whether c is one of the three green labels.
func (c Category) IsGreen() bool {
	switch c {
	case Enhanced, NewEmerging, IncreasedDemand:
		return true
	}
	return false
}

// OrNotGreen maps a missing label to NotGreen.
func (c Category) OrNotGreen() Category {
	if c == Unlabeled {
		return NotGreen
	}
	return c
}

// Index returns the position of c in Categories, treating Unlabeled as NotGreen.
func (c Category) Index() int {
	for i, cat := range Categories {
		if cat == c.OrNotGreen() {
			return i
		}
	}
	return -1
}

var aliases = map[string]Category{
	"":                       Unlabeled,
	"nan":                    Unlabeled,
	"none":                   NotGreen,
	"n/a":                    NotGreen,
	"not green":              NotGreen,
	"green enhanced skills":  Enhanced,
	"enhanced skills":        Enhanced,
	"enhanced":               Enhanced,
	"green new and emerging": NewEmerging,
	"green new & emerging":   NewEmerging,
	"new and emerging":       NewEmerging,
	"new & emerging":         NewEmerging,
	"green increased demand": IncreasedDemand,
	"increased demand":       IncreasedDemand,
}

// Parse normalizes a crosswalk label. Unknown labels are invalid input so a
// typo in the crosswalk cannot silently drop counts.
func Parse(label string) (Category, error) {
	key := strings.ToLower(strings.Join(strings.Fields(label), " "))
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return Unlabeled, apperrors.InvalidInput(fmt.Sprintf("unknown green category %q", label), nil)
}

// Counts is a per-category count vector in the order of Categories.
type Counts [4]int

func (c *Counts) Add(cat Category, n int) {
	c[cat.Index()] += n
}

func (c Counts) Get(cat Category) int {
	return c[cat.Index()]
}

// Total is the sum over all four categories.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Green is the sum over the three green categories.
func (c Counts) Green() int {
	return c.Total() - c.Get(NotGreen)
}
