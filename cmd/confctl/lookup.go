package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var resolveAuthorCmd = &cobra.Command{
	Use:   "resolve-author NAME",
	Short: "Resolve a free-text author name against Semantic Scholar",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		author, err := tk.scholar.ResolveAuthor(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, author)
	},
}

var papersCmd = &cobra.Command{
	Use:   "papers VENUE",
	Short: "List papers published at a venue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		return printJSON(cmd, tk.scholar.SearchPapersByVenue(cmd.Context(), strings.Join(args, " "), limit))
	},
}

var conferenceInfoCmd = &cobra.Command{
	Use:   "conference-info NAME",
	Short: "Aggregate venue statistics for a conference",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		info, err := tk.scholar.GetConferenceInfo(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

func init() {
	papersCmd.Flags().Int("limit", 10, "maximum number of papers to return")

	rootCmd.AddCommand(resolveAuthorCmd, papersCmd, conferenceInfoCmd)
}
