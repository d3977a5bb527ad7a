package cmd

import (
	"github.com/spigell/greenskills/internal/skills"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Build the skill key from the merged postings",
	Run: func(cmd *cobra.Command, _ []string) {
		skillKey(cmd)
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)

	skillsCmd.Flags().BoolP("load-new", "n", false, "rebuild the skill key even if the key file exists")
}

func skillKey(cmd *cobra.Command) {
	ctx, stop, config, logger := start(cmd.CommandPath())
	defer stop()

	p, err := loadMerged(ctx, config, false, logger)
	if err != nil {
		logger.Fatal("loading merged postings", zap.Error(err))
	}

	refresh, _ := cmd.Flags().GetBool("load-new")
	key, err := loadSkillKey(config, p, refresh, logger)
	if err != nil {
		logger.Fatal("building the skill key", zap.Error(err))
	}

	out, err := openOutputs(ctx, config, "skill_key.xlsx", logger)
	if err != nil {
		logger.Fatal("opening outputs", zap.Error(err))
	}
	if err := out.write("skill_key", skillKeyFile, skills.KeyTable(key)); err != nil {
		logger.Fatal("writing the skill key", zap.Error(err))
	}
	if err := out.close(); err != nil {
		logger.Fatal("closing outputs", zap.Error(err))
	}
}
