package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/enrichment"
)

var classifyCmd = &cobra.Command{
	Use:   "classify NAME",
	Short: "Classify a conference into a research field",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titles, _ := cmd.Flags().GetStringArray("title")
		tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		cls, err := tk.classifier.Classify(strings.Join(args, " "), titles)
		if err != nil {
			return err
		}
		return printJSON(cmd, cls)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a conference from its classification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		primary, _ := cmd.Flags().GetString("primary")
		confidence, _ := cmd.Flags().GetFloat64("confidence")
		secondary, _ := cmd.Flags().GetStringSlice("secondary")
		if confidence < 0 || confidence > 1 {
			return fmt.Errorf("confidence must be between 0 and 1, got %v", confidence)
		}

		tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		cls := &domain.Classification{
			Primary:    primary,
			Secondary:  secondary,
			Confidence: confidence,
		}
		return printJSON(cmd, tk.ranker.Rank(cmd.Context(), cls, nil))
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich FILE.json",
	Short: "Run the enrichment pipeline on a submission file and print the payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read submission: %w", err)
		}
		var sub domain.Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			return fmt.Errorf("parse submission: %w", err)
		}
		if len(sub.Papers) == 0 {
			return fmt.Errorf("submission %q has no papers", args[0])
		}

		tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		rank := tk.cfg.Enrichment.RankAtSubmission
		if cmd.Flags().Changed("rank") {
			rank, _ = cmd.Flags().GetBool("rank")
		}

		orchestrator := enrichment.New(tk.scholar, tk.classifier, tk.ranker, enrichment.Config{
			RankAtSubmission: rank,
		}, tk.logger, nil)
		payload, err := orchestrator.Enrich(cmd.Context(), &sub)
		if err != nil {
			return err
		}
		return printJSON(cmd, payload)
	},
}

func init() {
	classifyCmd.Flags().StringArray("title", nil, "paper title to include in the analysis (repeatable)")

	rankCmd.Flags().String("primary", "", "primary research field")
	rankCmd.Flags().Float64("confidence", 0, "classification confidence in [0, 1]")
	rankCmd.Flags().StringSlice("secondary", nil, "secondary research fields (comma-separated)")
	_ = rankCmd.MarkFlagRequired("primary")

	enrichCmd.Flags().Bool("rank", false, "rank the conference during enrichment (default from config)")

	rootCmd.AddCommand(classifyCmd, rankCmd, enrichCmd)
}
