package cmd

import (
	"context"
	"path/filepath"

	"github.com/spigell/greenskills/internal/logger"
	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/regions"
	"github.com/spigell/greenskills/internal/report"
	"github.com/spigell/greenskills/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate annotated skills and regional job counts",
}

var reportCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Green share of skill mentions per skill category, with a chart",
	Run: func(cmd *cobra.Command, _ []string) {
		reportCategories(cmd)
	},
}

var reportSubcategoriesCmd = &cobra.Command{
	Use:   "subcategories",
	Short: "Green percentage of skill mentions per skill subcategory",
	Run: func(cmd *cobra.Command, _ []string) {
		reportSubcategories(cmd)
	},
}

var reportRegionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Share of jobs in green occupations per NUTS region, with maps",
	Run: func(cmd *cobra.Command, _ []string) {
		reportRegions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportCategoriesCmd, reportSubcategoriesCmd, reportRegionsCmd)
}

func topN(config *Config) int {
	if config.Report == nil || config.Report.Top <= 0 {
		return 5
	}
	return config.Report.Top
}

func reportCategories(cmd *cobra.Command) {
	ctx, stop, config, l := start(cmd.CommandPath())
	defer stop()

	annotated, err := loadAnnotated(ctx, config, false, l)
	if err != nil {
		l.Fatal("loading annotated skills", zap.Error(err))
	}

	groups, err := report.ByCategory(annotated)
	if err != nil {
		l.Fatal("grouping skills by category", zap.Error(err))
	}
	writeReport(ctx, config, "skills_by_category.xlsx", l, report.Sheet{Name: "skills_by_category", Table: report.CategoryTable(groups)}, report.CategoriesFile)

	n := topN(config)
	leaders := report.Leaders(groups, n)
	for _, column := range report.LeaderColumns() {
		names := make([]string, 0, n)
		for _, leader := range leaders[column] {
			names = append(names, leader.Name)
		}
		l.Info("most "+column, zap.String("categories", utils.JoinForLog(names, 300)))
	}

	p, err := report.CategoryChart(report.ChartSelection(groups, n))
	if err != nil {
		l.Fatal("building the category chart", zap.Error(err))
	}
	path := filepath.Join(config.Output, report.CategoriesChartFile)
	if err := report.SaveChart(p, path, 14*vg.Inch, 8*vg.Inch); err != nil {
		l.Fatal("saving the category chart", zap.Error(err))
	}
	l.Info("chart written", zap.String(logger.FieldPath, path))
}

func reportSubcategories(cmd *cobra.Command) {
	ctx, stop, config, l := start(cmd.CommandPath())
	defer stop()

	annotated, err := loadAnnotated(ctx, config, false, l)
	if err != nil {
		l.Fatal("loading annotated skills", zap.Error(err))
	}

	groups, err := report.BySubcategory(annotated)
	if err != nil {
		l.Fatal("grouping skills by subcategory", zap.Error(err))
	}
	writeReport(ctx, config, "subcategories.xlsx", l, report.Sheet{Name: "subcategories", Table: report.SubcategoryTable(groups)}, report.SubcategoriesFile)

	if len(groups) > 0 {
		l.Info("greenest subcategory", zap.String("subcategory", groups[0].Name), zap.Float64("green_percent", groups[0].GreenPercent()))
	}
}

func reportRegions(cmd *cobra.Command) {
	ctx, stop, config, l := start(cmd.CommandPath())
	defer stop()

	prefix := regions.DefaultPrefix
	filter := regions.DefaultShapeFilter()
	if config.Regions != nil {
		prefix = config.Regions.Prefix
		filter = config.Regions.Shapes
	}

	jobs, err := regions.LoadJobsByRegion(config.Inputs.JobsByRegion, prefix)
	if err != nil {
		l.Fatal("loading jobs by region", zap.Error(err))
	}
	logger.WithDataset(l, "jobs by region", config.Inputs.JobsByRegion.Path).Info("jobs loaded",
		zap.Int("occupations", len(jobs.Occupations)),
		zap.Int("regions", len(jobs.Regions)),
	)

	crosswalk, err := occupations.LoadGreenCategories(config.Inputs.GreenCategories, config.Columns.Crosswalk)
	if err != nil {
		l.Fatal("loading green categories", zap.Error(err))
	}
	labeled := jobs.Label(crosswalk)
	l.Info("occupations labeled", zap.Int("labeled", labeled), zap.Int("total", len(jobs.Occupations)))

	shares, err := jobs.Shares()
	if err != nil {
		l.Fatal("summing jobs by region", zap.Error(err))
	}
	writeReport(ctx, config, "green_share_by_region.xlsx", l, report.Sheet{Name: "green_share_by_region", Table: regions.SharesTable(shares)}, regions.SharesFile)

	if config.Inputs.Shapes == "" {
		l.Info("skipping maps", zap.String("reason", "inputs.shapes is not set"))
		return
	}

	shapes, err := regions.LoadShapes(config.Inputs.Shapes, filter)
	if err != nil {
		l.Fatal("loading region shapes", zap.Error(err))
	}
	logger.WithDataset(l, "shapes", config.Inputs.Shapes).Info("shapes loaded", zap.Int("count", len(shapes)))

	path := filepath.Join(config.Output, regions.MapFile)
	if err := regions.SaveMaps(path, shapes, shares, 18*vg.Inch, 8*vg.Inch); err != nil {
		l.Fatal("saving region maps", zap.Error(err))
	}
	l.Info("maps written", zap.String(logger.FieldPath, path))
}

// writeReport writes one table through the configured outputs and exits on failure.
func writeReport(ctx context.Context, config *Config, workbook string, l *zap.Logger, sheet report.Sheet, file string) {
	out, err := openOutputs(ctx, config, workbook, l)
	if err != nil {
		l.Fatal("opening outputs", zap.Error(err))
	}
	if err := out.write(sheet.Name, file, sheet.Table); err != nil {
		l.Fatal("writing "+sheet.Name, zap.Error(err))
	}
	if err := out.close(); err != nil {
		l.Fatal("closing outputs", zap.Error(err))
	}
}
