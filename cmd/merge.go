package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/greenskills/internal/green"
	"github.com/spigell/greenskills/internal/postings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptReportByOccupation = "Report by occupation"
	PromptPostingsToFile     = "Dump postings to file"
)

var mergePrompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptWrite, PromptReportByOccupation, PromptPostingsToFile, PromptExit},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Filter the postings and join them with the occupation tables",
	Run: func(cmd *cobra.Command, _ []string) {
		merge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().BoolP("interactive", "i", false, "ask what to do with the merged postings")
}

func merge(cmd *cobra.Command) {
	ctx, stop, config, logger := start(cmd.CommandPath())
	defer stop()

	p, err := mergePostings(ctx, config, logger)
	if err != nil {
		logger.Fatal("merging postings", zap.Error(err))
	}

	counts := p.CountByCategory()
	fields := make([]zap.Field, 0, len(green.Categories))
	for _, c := range green.Categories {
		fields = append(fields, zap.Int(c.String(), counts.Get(c)))
	}
	logger.Info("postings by green category", fields...)

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		if err := writeMerged(ctx, config, p, logger); err != nil {
			logger.Fatal("writing merged postings", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := mergePrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of postings", zap.Int("count", p.Len()))

		if err := handleMergeAction(ctx, action, config, p, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleMergeAction(ctx context.Context, action string, config *Config, p *postings.Postings, logger *zap.Logger) error {
	switch action {
	case PromptWrite:
		return writeMerged(ctx, config, p, logger)
	case PromptReportByOccupation:
		pretty, _ := json.MarshalIndent(p.ReportByOccupation(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings count", p.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := p.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump postings to file: %w", err)
		}
		logger.Info("dumping postings to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func writeMerged(ctx context.Context, config *Config, p *postings.Postings, logger *zap.Logger) error {
	out, err := openOutputs(ctx, config, "merged_postings.xlsx", logger)
	if err != nil {
		return err
	}
	if err := out.write("merged_postings", mergedFile, p.Table()); err != nil {
		return err
	}
	return out.close()
}
