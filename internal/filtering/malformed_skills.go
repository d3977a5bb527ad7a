package filtering

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/greenskills/internal/postings"
)

const malformedReason = "malformed skill list"

type malformedSkillsFilter struct {
	disabled    bool
	reason      string
	columns     []string
	excludeFile string
}

// NewMalformedSkills creates a filter that removes postings whose skill lists
// cannot be parsed. It is disabled unless requested; without it a malformed
// list aborts the run.
func NewMalformedSkills(enabled bool) Filter {
	f := &malformedSkillsFilter{}
	if !enabled {
		f.Disable("malformed skill lists abort the run")
	}
	return f
}

func (f *malformedSkillsFilter) Name() string { return "malformed_skills" }

func (f *malformedSkillsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *malformedSkillsFilter) IsEnabled() bool { return !f.disabled }

func (f *malformedSkillsFilter) Validate(cfg *Config) error {
	if cfg == nil || len(cfg.SkillColumns) == 0 {
		return fmt.Errorf("skill columns are required when malformed skill lists are dropped")
	}
	f.columns = append([]string(nil), cfg.SkillColumns...)
	f.excludeFile = strings.TrimSpace(cfg.ExcludeFile)
	return nil
}

func (f *malformedSkillsFilter) Apply(_ context.Context, deps Deps, p *postings.Postings) (*postings.Postings, Step, error) {
	initial := p.Len()

	malformed := &postings.Postings{}
	removed := p.ExcludeFunc(func(po *postings.Posting) bool {
		for _, column := range f.columns {
			if _, err := po.Skills(column); err != nil {
				if deps.Logger != nil {
					deps.Logger.Debug("dropping posting", zap.Int("posting_id", po.ID), zap.Error(err))
				}
				malformed.Items = append(malformed.Items, po)
				return true
			}
		}
		return false
	})

	if f.excludeFile != "" && len(removed) > 0 {
		if err := appendToExcludeFile(f.excludeFile, malformed); err != nil {
			return p, Step{}, err
		}
		if deps.Logger != nil {
			deps.Logger.Info("appended malformed postings to exclude file",
				zap.String("path", f.excludeFile),
				zap.Int("count", len(removed)),
			)
		}
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func appendToExcludeFile(path string, malformed *postings.Postings) error {
	excluded, err := postings.GetExcludedPostingsFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		excluded = &postings.ExcludedPostings{}
	} else if err != nil {
		return fmt.Errorf("reading exclude file: %w", err)
	}

	excluded.Append(malformed.ToExcluded(malformedReason))
	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("writing exclude file: %w", err)
	}
	return nil
}

func (f *malformedSkillsFilter) Status() Status {
	details := map[string]string{}
	if len(f.columns) > 0 {
		details["columns"] = strings.Join(f.columns, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
