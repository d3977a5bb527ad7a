package skills

import (
	"fmt"

	"github.com/spigell/greenskills/internal/table"
)

// Uncategorized labels skills the taxonomy does not know.
const Uncategorized = "Uncategorized"

type TaxonomyEntry struct {
	Name        string `csv:"skill_name"`
	Category    string `csv:"category"`
	Subcategory string `csv:"subcategory"`
}

// Taxonomy maps skill names to their Lightcast category and subcategory.
type Taxonomy map[string]TaxonomyEntry

func LoadTaxonomy(src table.Source) (Taxonomy, error) {
	t, err := table.Load(src)
	if err != nil {
		return nil, fmt.Errorf("loading skill taxonomy: %w", err)
	}
	return TaxonomyFromTable(t)
}

// TaxonomyFromTable keeps the first entry of a repeated name.
func TaxonomyFromTable(t *table.Table) (Taxonomy, error) {
	if err := t.Require("skill_name", "category", "subcategory"); err != nil {
		return nil, fmt.Errorf("skill taxonomy: %w", err)
	}

	var entries []TaxonomyEntry
	if err := t.Decode(&entries); err != nil {
		return nil, fmt.Errorf("skill taxonomy: %w", err)
	}

	tax := make(Taxonomy, len(entries))
	for _, e := range entries {
		if _, ok := tax[e.Name]; !ok && e.Name != "" {
			tax[e.Name] = e
		}
	}
	return tax, nil
}

// Apply sets Category and Subcategory on every skill and returns how many
// were not found.
func (tax Taxonomy) Apply(skills []*Skill) int {
	missing := 0
	for _, s := range skills {
		e, ok := tax[s.Name]
		if !ok {
			s.Category, s.Subcategory = Uncategorized, Uncategorized
			missing++
			continue
		}
		s.Category, s.Subcategory = e.Category, e.Subcategory
	}
	return missing
}
