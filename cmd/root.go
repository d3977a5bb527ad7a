package cmd

import (
	"log"

	"github.com/spigell/greenskills/internal/occupations"
	"github.com/spigell/greenskills/internal/postings"
	"github.com/spigell/greenskills/internal/regions"
	"github.com/spigell/greenskills/internal/table"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "greenskills"
)

type Config struct {
	// Output is the directory derived files are written to and read back from.
	Output  string         `mapstructure:"output"`
	Inputs  *InputsConfig  `mapstructure:"inputs"`
	Columns *ColumnsConfig `mapstructure:"columns"`
	Filters *FiltersConfig `mapstructure:"filters"`
	Regions *RegionsConfig `mapstructure:"regions"`
	Report  *ReportConfig  `mapstructure:"report"`
	SQLite  string         `mapstructure:"sqlite"`
	XLSX    bool           `mapstructure:"xlsx"`
	Naive   bool           `mapstructure:"naive"`
}

type InputsConfig struct {
	Postings        string       `mapstructure:"postings"`
	GreenTimeShare  table.Source `mapstructure:"green-time-share"`
	GreenCategories table.Source `mapstructure:"green-categories"`
	JobsByRegion    table.Source `mapstructure:"jobs-by-region"`
	Taxonomy        string       `mapstructure:"taxonomy"`
	Shapes          string       `mapstructure:"shapes"`
}

type ColumnsConfig struct {
	Postings       postings.Columns             `mapstructure:"postings"`
	Skills         []string                     `mapstructure:"skills"`
	GreenTimeShare occupations.TimeShareColumns `mapstructure:"green-time-share"`
	Crosswalk      occupations.CrosswalkColumns `mapstructure:"green-categories"`
	ShareYear      string                       `mapstructure:"share-year"`
}

type FiltersConfig struct {
	ExcludeFile         string `mapstructure:"exclude-file"`
	DropMalformedSkills bool   `mapstructure:"drop-malformed-skills"`
	// Disabled names filters to skip, e.g. missing_soc or exclude_file.
	Disabled []string `mapstructure:"disabled"`
}

type RegionsConfig struct {
	Prefix string              `mapstructure:"prefix"`
	Shapes regions.ShapeFilter `mapstructure:"shapes"`
}

type ReportConfig struct {
	Top int `mapstructure:"top"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "greenskills annotates job posting skills with green occupation categories and reports on them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is greenskills.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("sqlite", "", "also export written tables to this SQLite file")
	rootCmd.PersistentFlags().Bool("xlsx", false, "also write tables as an XLSX workbook")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("sqlite", rootCmd.PersistentFlags().Lookup("sqlite"))
	viper.BindPFlag("xlsx", rootCmd.PersistentFlags().Lookup("xlsx"))
}

func setDefaults() {
	viper.SetDefault("output", "_data")

	viper.SetDefault("inputs.postings", "_data/Lightcast, UK Postings Sample.csv")
	viper.SetDefault("inputs.green-time-share.path", "greentimesharesoc.xlsx")
	viper.SetDefault("inputs.green-time-share.sheet", 3)
	viper.SetDefault("inputs.green-time-share.skip-rows", 2)
	viper.SetDefault("inputs.green-categories.path", "_data/green_categories.csv")
	viper.SetDefault("inputs.jobs-by-region.path", "_data/4digitoccupationbyvariousfactorsjd19.xlsx")
	viper.SetDefault("inputs.jobs-by-region.sheet", 4)
	viper.SetDefault("inputs.jobs-by-region.skip-rows", 8)
	viper.SetDefault("inputs.shapes", "_data/hex_scaled_uk.shp/hex_scaled_uk.shp")

	viper.SetDefault("columns.postings.soc", postings.DefaultSOCColumn)
	viper.SetDefault("columns.skills", postings.DefaultSkillColumns)
	ts := occupations.DefaultTimeShareColumns()
	viper.SetDefault("columns.green-time-share.code", ts.Code)
	viper.SetDefault("columns.green-time-share.description", ts.Description)
	cw := occupations.DefaultCrosswalkColumns()
	viper.SetDefault("columns.green-categories.code", cw.Code)
	viper.SetDefault("columns.green-categories.title", cw.Title)
	viper.SetDefault("columns.green-categories.category", cw.Category)
	viper.SetDefault("columns.share-year", postings.DefaultShareYear)

	viper.SetDefault("filters.drop-malformed-skills", false)

	viper.SetDefault("regions.prefix", regions.DefaultPrefix)
	shapes := regions.DefaultShapeFilter()
	viper.SetDefault("regions.shapes.country", shapes.Country)
	viper.SetDefault("regions.shapes.level", shapes.Level)

	viper.SetDefault("report.top", 5)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults cover every key, so a missing config file is fine. A broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
