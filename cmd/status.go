package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/reviewmate/internal/llm"
	"github.com/joescharf/reviewmate/internal/models"
	"github.com/joescharf/reviewmate/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, reviewer and review history status",
	Long: `Show whether the background API server is running, which AI provider
is configured, and a per-user summary of saved reviews.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// userSummary aggregates one user's saved reviews.
type userSummary struct {
	User       string
	Reviews    int
	AvgMI      int
	Ratings    map[models.QualityRating]int
	LastReview time.Time
}

func statusRun() error {
	if pid, running := pidFile().IsRunning(); running {
		ui.Success("API server: running (pid %d, port %d)", pid, viper.GetInt("port"))
	} else {
		ui.Info("API server: not running")
	}

	provider := viper.GetString("llm.provider")
	switch {
	case provider == llm.ProviderDummy:
		ui.Info("Reviewer: %s", provider)
	case reviewerKeyConfigured(provider):
		ui.Success("Reviewer: %s", provider)
	default:
		ui.Warning("Reviewer: %s (no API key; reviews return the original code)", provider)
	}

	ui.Info("Database: %s", viper.GetString("db_path"))
	fmt.Fprintln(ui.Out)

	s, err := getStore()
	if err != nil {
		return err
	}
	reviews, err := s.ListReviews(commandContext(), 0)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		ui.Info("No reviews saved. Use 'reviewmate review --save <file>' to add one.")
		return nil
	}

	table := ui.Table([]string{"User", "Reviews", "Avg MI", "A", "B", "C", "D", "Last Review"})
	for _, u := range summarizeReviews(reviews) {
		table.Append([]string{
			u.User,
			strconv.Itoa(u.Reviews),
			output.MaintainabilityColor(u.AvgMI),
			strconv.Itoa(u.Ratings[models.QualityA]),
			strconv.Itoa(u.Ratings[models.QualityB]),
			strconv.Itoa(u.Ratings[models.QualityC]),
			strconv.Itoa(u.Ratings[models.QualityD]),
			timeAgo(u.LastReview),
		})
	}
	return table.Render()
}

func reviewerKeyConfigured(provider string) bool {
	if viper.GetString("llm.api_key") != "" {
		return true
	}
	env, ok := providerKeyEnv[provider]
	return ok && os.Getenv(env) != ""
}

// summarizeReviews groups reviews by user, busiest user first.
func summarizeReviews(reviews []*models.Review) []userSummary {
	byUser := make(map[string]*userSummary)
	totals := make(map[string]int)
	for _, r := range reviews {
		u, ok := byUser[r.UserID]
		if !ok {
			u = &userSummary{User: r.UserID, Ratings: make(map[models.QualityRating]int)}
			byUser[r.UserID] = u
		}
		u.Reviews++
		u.Ratings[r.Metrics.QualityRating]++
		totals[r.UserID] += r.Metrics.MaintainabilityIndex
		if r.CreatedAt.After(u.LastReview) {
			u.LastReview = r.CreatedAt
		}
	}

	out := make([]userSummary, 0, len(byUser))
	for id, u := range byUser {
		u.AvgMI = (totals[id] + u.Reviews/2) / u.Reviews
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reviews != out[j].Reviews {
			return out[i].Reviews > out[j].Reviews
		}
		return out[i].User < out[j].User
	})
	return out
}

// timeAgo renders t relative to now in coarse units.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
