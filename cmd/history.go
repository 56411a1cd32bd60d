package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/reviewmate/internal/models"
	"github.com/joescharf/reviewmate/internal/output"
	"github.com/joescharf/reviewmate/internal/store"
)

var (
	historyUser  string
	historyLimit int
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"hist"},
	Short:   "List saved reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListRun()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyShowRun(args[0])
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved review",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyDeleteRun(args[0])
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyUser, "user", models.LocalUserID, "Owner of the reviews")
	historyCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultListLimit, "Maximum number of reviews")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "List reviews of every user")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	var reviews []*models.Review
	if historyAll {
		reviews, err = s.ListReviews(ctx, historyLimit)
	} else {
		reviews, err = s.ListReviewsByUser(ctx, historyUser, historyLimit)
	}
	if err != nil {
		return err
	}

	if len(reviews) == 0 {
		ui.Info("No reviews found")
		return nil
	}

	table := ui.Table([]string{"ID", "User", "Created", "Language", "Category", "Severity", "Rating", "MI"})
	for _, r := range reviews {
		table.Append([]string{
			r.ID,
			r.UserID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Language,
			r.Category,
			output.SeverityColor(r.Severity),
			output.RatingColor(string(r.Metrics.QualityRating)),
			output.MaintainabilityColor(r.Metrics.MaintainabilityIndex),
		})
	}
	return table.Render()
}

func historyShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	r, err := s.GetReview(commandContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("review not found: %s", id)
	}
	if err != nil {
		return err
	}

	m := r.Metrics
	ui.Field("ID", r.ID)
	ui.Field("User", r.UserID)
	ui.Field("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	ui.Field("Language", r.Language)
	ui.Field("Framework", r.Framework)
	ui.Field("Category", r.Category)
	ui.Field("Severity", output.SeverityColor(r.Severity))
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"LOC", "Complexity", "Cognitive", "Issues", "Rating", "MI"})
	table.Append([]string{
		strconv.Itoa(m.LinesOfCode),
		strconv.Itoa(m.ComplexityScore),
		strconv.Itoa(m.CognitiveComplexity),
		strconv.Itoa(m.IssuesFound),
		output.RatingColor(string(m.QualityRating)),
		output.MaintainabilityColor(m.MaintainabilityIndex),
	})
	if err := table.Render(); err != nil {
		return err
	}

	ui.Section("Explanation")
	fmt.Fprintln(ui.Out, r.Explanation)
	ui.Section("Original code")
	fmt.Fprintln(ui.Out, r.OriginalCode)
	ui.Section("Improved code")
	fmt.Fprintln(ui.Out, r.ImprovedCode)
	return nil
}

func historyDeleteRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete review %s", id)
		return nil
	}

	err = s.DeleteReview(commandContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("review not found: %s", id)
	}
	if err != nil {
		return err
	}

	ui.Success("Deleted review %s", id)
	return nil
}
