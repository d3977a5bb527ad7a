package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/greenskills/internal/report"
	"github.com/spigell/greenskills/internal/skills"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptWrite            = "Write outputs"
	PromptReportByCategory = "Report by category"
	PromptSkillsToFile     = "Dump skills to file"
	PromptExit             = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptWrite, PromptReportByCategory, PromptSkillsToFile, PromptExit},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Count every skill against the green categories of the postings that list it",
	Run: func(cmd *cobra.Command, _ []string) {
		annotate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().BoolP("load-new", "n", false, "recompute annotated skills even if the annotated file exists")
	annotateCmd.Flags().BoolP("interactive", "i", false, "ask what to do with the annotated skills")
	annotateCmd.Flags().Bool("naive", false, "match skills by scanning every posting for every skill")

	viper.BindPFlag("naive", annotateCmd.Flags().Lookup("naive"))
}

func annotate(cmd *cobra.Command) {
	ctx, stop, config, logger := start(cmd.CommandPath())
	defer stop()

	refresh, _ := cmd.Flags().GetBool("load-new")
	annotated, err := loadAnnotated(ctx, config, refresh, logger)
	if err != nil {
		logger.Fatal("annotating skills", zap.Error(err))
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		if err := writeAnnotated(ctx, config, annotated, logger); err != nil {
			logger.Fatal("writing annotated skills", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of skills", zap.Int("count", len(annotated)))

		if err := handleAction(ctx, action, config, annotated, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, config *Config, annotated []*skills.Skill, logger *zap.Logger) error {
	switch action {
	case PromptWrite:
		return writeAnnotated(ctx, config, annotated, logger)
	case PromptReportByCategory:
		groups, err := report.ByCategory(annotated)
		if err != nil {
			return fmt.Errorf("report by category: %w", err)
		}
		pretty, _ := json.MarshalIndent(report.CategoryTable(groups).Records(), "", "  ")
		logger.Info(string(pretty), zap.Int("skills count", len(annotated)))
		return nil
	case PromptSkillsToFile:
		filename, err := skills.DumpToTmpFile(annotated)
		if err != nil {
			return fmt.Errorf("dump skills to file: %w", err)
		}
		logger.Info("dumping skills to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func writeAnnotated(ctx context.Context, config *Config, annotated []*skills.Skill, logger *zap.Logger) error {
	out, err := openOutputs(ctx, config, "annotated_skills.xlsx", logger)
	if err != nil {
		return err
	}
	if err := out.write("annotated_skills", annotatedFile, skills.AnnotatedTable(annotated)); err != nil {
		return err
	}
	return out.close()
}
