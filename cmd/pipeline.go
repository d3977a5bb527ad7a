package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spigell/greenskills/internal/cache"
	"github.com/spigell/greenskills/internal/filtering"
	"github.com/spigell/greenskills/internal/logger"
	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/postings"
	"github.com/spigell/greenskills/internal/skills"
	"github.com/spigell/greenskills/internal/table"
	"github.com/spigell/greenskills/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	mergedFile    = "merged_postings.csv"
	skillKeyFile  = "skill_key.csv"
	annotatedFile = "annotated_skills.csv"
)

// start builds the logger and the config shared by every command. The
// returned context is cancelled on interrupt.
func start(command string) (context.Context, context.CancelFunc, *Config, *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	base, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	l := logger.WithFields(base, zap.String(logger.FieldRunID, uuid.NewString()))

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Inputs == nil || config.Columns == nil {
		l.Fatal("config is required")
	}

	l.Info("starting the greenskills", zap.String("command", command), zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return ctx, stop, config, l
}

func cachePath(config *Config, file string) string {
	return filepath.Join(config.Output, file)
}

// mergePostings loads the postings, filters them and joins the occupation tables.
func mergePostings(ctx context.Context, config *Config, l *zap.Logger) (*postings.Postings, error) {
	p, err := postings.Load(config.Inputs.Postings, config.Columns.Postings)
	if err != nil {
		return nil, err
	}
	logger.WithDataset(l, "postings", config.Inputs.Postings).Info("postings loaded",
		zap.Int("count", p.Len()),
		zap.Int("dropped_na_ids", p.DroppedNA),
	)

	filters := prepareFilters(config, l)
	for _, status := range filters.Describe() {
		l.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	p, err = filters.RunFilters(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("filtering postings: %w", err)
	}

	shares, err := occupations.LoadGreenTimeShare(config.Inputs.GreenTimeShare, config.Columns.GreenTimeShare)
	if err != nil {
		return nil, err
	}
	logger.WithDataset(l, "green time share", config.Inputs.GreenTimeShare.Path).Info("occupations loaded", zap.Int("count", shares.Len()))

	crosswalk, err := occupations.LoadGreenCategories(config.Inputs.GreenCategories, config.Columns.Crosswalk)
	if err != nil {
		return nil, err
	}
	logger.WithDataset(l, "green categories", config.Inputs.GreenCategories.Path).Info("occupations loaded", zap.Int("count", crosswalk.Len()))

	stats, err := postings.Merge(p, shares, crosswalk, config.Columns.ShareYear)
	if err != nil {
		return nil, fmt.Errorf("merging postings: %w", err)
	}
	l.Info("postings merged",
		zap.Int("initial", stats.Initial),
		zap.Int("missing_soc", stats.MissingSOC),
		zap.Int("unmatched_soc", stats.UnmatchedSOC),
		zap.Int("labeled", stats.Labeled),
		zap.Int("left", stats.Left),
	)

	return p, nil
}

func prepareFilters(config *Config, l *zap.Logger) *filtering.Filtering {
	cfg := &filtering.Config{SkillColumns: config.Columns.Skills}
	dropMalformed := false
	var disabled []string
	if config.Filters != nil {
		cfg.ExcludeFile = config.Filters.ExcludeFile
		dropMalformed = config.Filters.DropMalformedSkills
		disabled = config.Filters.Disabled
	}

	steps := []filtering.Filter{
		filtering.NewMissingSOC(),
		filtering.NewExcludeFile(),
		filtering.NewMalformedSkills(dropMalformed),
	}
	for _, name := range disabled {
		filtering.DisableByName(steps, name, "disabled in config")
	}

	return filtering.New(cfg, steps, l)
}

// loadMerged returns the merged postings, reusing the merged file when it exists.
func loadMerged(ctx context.Context, config *Config, refresh bool, l *zap.Logger) (*postings.Postings, error) {
	file := &cache.File{Path: cachePath(config, mergedFile), Logger: l}
	t, _, err := file.Load(refresh, func() (*table.Table, error) {
		p, err := mergePostings(ctx, config, l)
		if err != nil {
			return nil, err
		}
		return p.Table(), nil
	})
	if err != nil {
		return nil, err
	}

	return postings.FromTable(t, config.Columns.Postings)
}

// loadSkillKey returns the skill key of the merged postings, reusing
// skill_key.csv unless refresh is set.
func loadSkillKey(config *Config, p *postings.Postings, refresh bool, l *zap.Logger) ([]*skills.Skill, error) {
	file := &cache.File{Path: cachePath(config, skillKeyFile), Logger: l}
	t, _, err := file.Load(refresh, func() (*table.Table, error) {
		key, err := skills.Extract(p, config.Columns.Skills)
		if err != nil {
			return nil, fmt.Errorf("extracting skills: %w", err)
		}
		return skills.KeyTable(key), nil
	})
	if err != nil {
		return nil, err
	}

	key, err := skills.KeyFromTable(t)
	if err != nil {
		return nil, err
	}
	l.Info("skill key loaded",
		zap.Int("count", len(key)),
		zap.String("types", utils.JoinForLog(skills.Types(key), 200)),
	)
	return key, nil
}

// applyTaxonomy sets skill categories when a taxonomy is configured.
func applyTaxonomy(config *Config, key []*skills.Skill, l *zap.Logger) error {
	if config.Inputs.Taxonomy == "" {
		return nil
	}

	tax, err := skills.LoadTaxonomy(table.Source{Path: config.Inputs.Taxonomy})
	if err != nil {
		return err
	}
	missing := tax.Apply(key)
	logger.WithDataset(l, "taxonomy", config.Inputs.Taxonomy).Info("taxonomy applied",
		zap.Int("entries", len(tax)),
		zap.Int("uncategorized", missing),
	)
	return nil
}

// loadAnnotated returns the annotated skills, reusing annotated_skills.csv
// unless refresh is set.
func loadAnnotated(ctx context.Context, config *Config, refresh bool, l *zap.Logger) ([]*skills.Skill, error) {
	file := &cache.File{Path: cachePath(config, annotatedFile), Logger: l}
	t, hit, err := file.Load(refresh, func() (*table.Table, error) {
		p, err := loadMerged(ctx, config, false, l)
		if err != nil {
			return nil, err
		}
		key, err := loadSkillKey(config, p, false, l)
		if err != nil {
			return nil, err
		}
		if err := applyTaxonomy(config, key, l); err != nil {
			return nil, err
		}

		annotator := &skills.Annotator{Logger: l, Naive: config.Naive}
		if err := annotator.Annotate(key, p); err != nil {
			return nil, fmt.Errorf("annotating skills: %w", err)
		}
		return skills.AnnotatedTable(key), nil
	})
	if err != nil {
		return nil, err
	}

	annotated, err := skills.AnnotatedFromTable(t)
	if err != nil {
		return nil, err
	}

	if mismatches := skills.CheckTotals(annotated); len(mismatches) > 0 {
		l.Warn("green counts do not add up to occurrences",
			zap.Int("skills", len(mismatches)),
			zap.String("first", mismatches[0].Name),
			zap.Bool("cached", hit),
		)
	}
	return annotated, nil
}
