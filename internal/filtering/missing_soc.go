package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/greenskills/internal/postings"
)

type missingSOCFilter struct {
	disabled bool
	reason   string
}

// NewMissingSOC creates a filter that removes postings without an occupation code.
func NewMissingSOC() Filter {
	return &missingSOCFilter{}
}

func (f *missingSOCFilter) Name() string { return "missing_soc" }

func (f *missingSOCFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *missingSOCFilter) IsEnabled() bool { return !f.disabled }

func (f *missingSOCFilter) Validate(*Config) error { return nil }

func (f *missingSOCFilter) Apply(_ context.Context, deps Deps, p *postings.Postings) (*postings.Postings, Step, error) {
	initial := p.Len()
	excluded := p.Exclude(postings.PostingSOCField, []string{""})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding postings without occupation code",
			zap.Ints("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *missingSOCFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
