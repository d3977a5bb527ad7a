package postings

import (
	"fmt"

	apperrors "github.com/spigell/greenskills/internal/errors"
	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/table"
)

// DefaultShareYear is the time share column copied into the percentage column.
const DefaultShareYear = "2019"

// MergeStats describes how many postings each join kept.
type MergeStats struct {
	Initial      int
	MissingSOC   int
	UnmatchedSOC int
	Labeled      int
	Left         int
}

// Merge joins postings with the green time share table (inner join on the
// occupation code) and the green category crosswalk (left join). Either table
// may be nil to skip its join. Both tables are unique on the code, so the
// result never has more rows than the input.
func Merge(p *Postings, shares *occupations.TimeShares, crosswalk *occupations.Crosswalk, year string) (MergeStats, error) {
	stats := MergeStats{Initial: p.Len()}
	if year == "" {
		year = DefaultShareYear
	}

	stats.MissingSOC = len(p.ExcludeFunc(func(po *Posting) bool { return po.SOC == "" }))

	if shares != nil {
		stats.UnmatchedSOC = len(p.ExcludeFunc(func(po *Posting) bool {
			_, ok := shares.Lookup(po.SOC)
			return !ok
		}))

		for _, c := range shares.Columns {
			p.addColumn(c)
		}
		p.addColumn(PercentageColumn)

		for _, po := range p.Items {
			share, _ := shares.Lookup(po.SOC)
			for _, c := range shares.Columns {
				po.Fields[c] = share.Values[c]
			}

			pct, err := share.Share(year)
			if err != nil {
				return stats, fmt.Errorf("merging posting %d: %w", po.ID, err)
			}
			po.Percentage = pct
			po.Fields[PercentageColumn] = table.FormatFloat(pct)
		}
	}

	if crosswalk != nil {
		p.addColumn(GreenCategoryColumn)
		for _, po := range p.Items {
			cat, ok := crosswalk.Lookup(po.SOC)
			if ok && cat != "" {
				stats.Labeled++
			}
			po.GreenCategory = cat
			po.Fields[GreenCategoryColumn] = string(cat)
		}
	}

	stats.Left = p.Len()
	if stats.Left > stats.Initial {
		return stats, apperrors.Cardinality(fmt.Sprintf("merge produced %d rows from %d postings", stats.Left, stats.Initial), nil)
	}

	return stats, nil
}
