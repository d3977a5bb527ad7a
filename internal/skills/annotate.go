package skills

import (
	"time"

	"go.uber.org/zap"

	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/postings"
)

// Annotator fills the per-category counts of skills from the postings that
// list them.
type Annotator struct {
	Logger *zap.Logger
	// Naive switches to the skill-by-listing scan. Results are identical; it
	// exists to cross-check the index.
	Naive bool
}

// Annotate sets Counts on every skill. A posting contributes one count per
// occurrence of the skill name in the list column of the skill's type, to
// its green category, or to Not Green when it has none.
func (a *Annotator) Annotate(skills []*Skill, p *postings.Postings) error {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()

	var err error
	if a.Naive {
		err = annotateNaive(skills, p, logger)
	} else {
		err = annotateIndexed(skills, p)
	}
	if err != nil {
		return err
	}

	logger.Info("annotated skills",
		zap.Int("skills", len(skills)),
		zap.Int("postings", p.Len()),
		zap.Bool("naive", a.Naive),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

type skillKey struct {
	skillType string
	name      string
}

func annotateIndexed(skills []*Skill, p *postings.Postings) error {
	index := make(map[skillKey]*green.Counts)
	for _, skillType := range Types(skills) {
		for _, posting := range p.Items {
			list, err := posting.Skills(skillType)
			if err != nil {
				return err
			}
			for _, name := range list {
				key := skillKey{skillType: skillType, name: name}
				counts, ok := index[key]
				if !ok {
					counts = &green.Counts{}
					index[key] = counts
				}
				counts.Add(posting.GreenCategory, 1)
			}
		}
	}

	for _, s := range skills {
		s.Counts = green.Counts{}
		if counts, ok := index[skillKey{skillType: s.Type, name: s.Name}]; ok {
			s.Counts = *counts
		}
	}
	return nil
}

func annotateNaive(skills []*Skill, p *postings.Postings, logger *zap.Logger) error {
	for _, s := range skills {
		logger.Debug("matching skill", zap.String("skill", s.Name), zap.String("type", s.Type))

		s.Counts = green.Counts{}
		for _, posting := range p.Items {
			list, err := posting.Skills(s.Type)
			if err != nil {
				return err
			}
			s.Counts.Add(posting.GreenCategory, occurrences(list, s.Name))
		}
	}
	return nil
}

func occurrences(list []string, name string) int {
	n := 0
	for _, item := range list {
		if item == name {
			n++
		}
	}
	return n
}
