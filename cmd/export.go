package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/reviewmate/internal/models"
)

var (
	exportFormat string
	exportUser   string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved reviews as JSON, CSV, or Markdown",
	Long:  "Export saved reviews, newest first, for every user or for one --user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&exportUser, "user", "", "Only export reviews of this user")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func exportRun() error {
	switch exportFormat {
	case "json", "csv", "markdown":
	default:
		return fmt.Errorf("unknown format: %s (use: json, csv, markdown)", exportFormat)
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	all, err := s.ListReviews(ctx, 0)
	if err != nil {
		return err
	}
	reviews := make([]*models.Review, 0, len(all))
	for _, r := range all {
		if exportUser == "" || r.UserID == exportUser {
			reviews = append(reviews, r)
		}
	}

	w := ui.Out
	if exportOutput != "" {
		if dryRun {
			ui.DryRunMsg("Would write %d reviews to %s", len(reviews), exportOutput)
			return nil
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		err = exportJSON(w, reviews)
	case "csv":
		err = exportCSV(w, reviews)
	case "markdown":
		err = exportMarkdown(w, reviews)
	}
	if err != nil {
		return err
	}

	if exportOutput != "" {
		ui.Success("Exported %d reviews to %s", len(reviews), exportOutput)
	}
	return nil
}

func exportJSON(w io.Writer, reviews []*models.Review) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reviews)
}

func exportCSV(w io.Writer, reviews []*models.Review) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"ID", "User", "Language", "Framework", "Category", "Severity",
		"LOC", "Complexity", "Cognitive", "Issues", "Rating", "MI", "Created"})
	for _, r := range reviews {
		m := r.Metrics
		cw.Write([]string{
			r.ID, r.UserID, r.Language, r.Framework, r.Category, r.Severity,
			strconv.Itoa(m.LinesOfCode),
			strconv.Itoa(m.ComplexityScore),
			strconv.Itoa(m.CognitiveComplexity),
			strconv.Itoa(m.IssuesFound),
			string(m.QualityRating),
			strconv.Itoa(m.MaintainabilityIndex),
			r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	cw.Flush()
	return cw.Error()
}

func exportMarkdown(w io.Writer, reviews []*models.Review) error {
	fmt.Fprintln(w, "# Reviews")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Created | User | Language | Category | Severity | Rating | MI |")
	fmt.Fprintln(w, "|---------|------|----------|----------|----------|--------|----|")
	for _, r := range reviews {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %d |\n",
			r.CreatedAt.UTC().Format("2006-01-02"),
			mdEscape(r.UserID), mdEscape(r.Language), mdEscape(r.Category), mdEscape(r.Severity),
			r.Metrics.QualityRating, r.Metrics.MaintainabilityIndex)
	}
	return nil
}

// mdEscape keeps a value from breaking a Markdown table row.
func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
