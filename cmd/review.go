package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/reviewmate/internal/llm"
	"github.com/joescharf/reviewmate/internal/metrics"
	"github.com/joescharf/reviewmate/internal/models"
	"github.com/joescharf/reviewmate/internal/output"
)

var (
	reviewLanguage string
	reviewSave     bool
	reviewUser     string
	reviewJSON     bool
	reviewWrite    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <file>",
	Short: "Run an AI review of a file",
	Long: `Send a file to the AI reviewer and print the improved code, the
explanation and the metrics of the original code. Use "-" to read stdin.

--save stores the review in history; --write replaces the file with the
improved code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(args[0], os.Stdin)
	},
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewLanguage, "language", "l", "", "Language hint (default: from extension, else detected)")
	reviewCmd.Flags().BoolVar(&reviewSave, "save", false, "Save the review to history")
	reviewCmd.Flags().StringVar(&reviewUser, "user", models.LocalUserID, "Owner of the saved review")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Output JSON")
	reviewCmd.Flags().BoolVarP(&reviewWrite, "write", "w", false, "Overwrite the file with the improved code")
	rootCmd.AddCommand(reviewCmd)
}

// reviewOutput is the JSON shape printed by --json.
type reviewOutput struct {
	*llm.Result
	Metrics models.CodeMetrics `json:"metrics"`
	ID      string             `json:"_id,omitempty"`
}

func reviewRun(path string, stdin io.Reader) error {
	code, err := readSource(path, stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%s is empty", path)
	}
	if reviewWrite && path == stdinName {
		return fmt.Errorf("--write needs a file, not stdin")
	}

	hint := reviewLanguage
	if hint == "" {
		hint = metrics.LanguageFromPath(path)
	}
	hint = llm.NormalizeLanguage(strings.ToLower(hint))

	ctx := commandContext()
	reviewer, err := newReviewer(ctx)
	if err != nil {
		return err
	}

	ui.VerboseLog("Reviewing %s (language: %s)", path, firstSet(hint, "auto"))
	result := reviewer.ReviewCode(ctx, code, hint)

	metricsLang := hint
	if metricsLang == "" {
		metricsLang = llm.NormalizeLanguage(result.DetectedLanguage)
	}
	out := reviewOutput{Result: result, Metrics: metrics.Compute(code, metricsLang)}

	if reviewSave {
		id, err := saveReview(code, result, out.Metrics)
		if err != nil {
			return err
		}
		out.ID = id
	}

	if reviewWrite {
		if err := writeImproved(path, code, result.ImprovedCode); err != nil {
			return err
		}
	}

	if reviewJSON {
		return ui.JSON(out)
	}
	printReview(out)
	return nil
}

func saveReview(code string, result *llm.Result, m models.CodeMetrics) (string, error) {
	if dryRun {
		ui.DryRunMsg("Would save review for user %s", reviewUser)
		return "", nil
	}

	s, err := getStore()
	if err != nil {
		return "", err
	}
	rev := &models.Review{
		UserID:       reviewUser,
		OriginalCode: code,
		ImprovedCode: result.ImprovedCode,
		Explanation:  result.Explanation,
		Category:     string(result.Category),
		Severity:     string(result.Severity),
		Language:     result.DetectedLanguage,
		Framework:    result.Framework,
		Metrics:      m,
	}
	if err := s.CreateReview(commandContext(), rev); err != nil {
		return "", fmt.Errorf("save review: %w", err)
	}
	ui.VerboseLog("Saved review %s", rev.ID)
	return rev.ID, nil
}

func writeImproved(path, original, improved string) error {
	if improved == original {
		ui.Info("No changes to write")
		return nil
	}
	if dryRun {
		ui.DryRunMsg("Would write improved code to %s", path)
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(improved), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	ui.Success("Wrote improved code to %s", path)
	return nil
}

func printReview(out reviewOutput) {
	r := out.Result
	m := out.Metrics

	fmt.Fprintf(ui.Out, "%s  %s  %s",
		output.Cyan(string(r.Category)),
		output.SeverityColor(string(r.Severity)),
		r.DetectedLanguage)
	if r.Framework != "" {
		fmt.Fprintf(ui.Out, " (%s)", r.Framework)
	}
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out)

	fmt.Fprintln(ui.Out, r.Explanation)
	if len(r.Improvements) > 0 {
		fmt.Fprintln(ui.Out)
		for _, imp := range r.Improvements {
			fmt.Fprintf(ui.Out, "  - %s\n", imp)
		}
	}

	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "Metrics: LOC %d  complexity %d  cognitive %d  issues %d  rating %s  MI %s\n",
		m.LinesOfCode, m.ComplexityScore, m.CognitiveComplexity, m.IssuesFound,
		output.RatingColor(string(m.QualityRating)),
		output.MaintainabilityColor(m.MaintainabilityIndex))

	if !reviewWrite {
		ui.Section("Improved code")
		fmt.Fprintln(ui.Out, r.ImprovedCode)
	}

	if out.ID != "" {
		fmt.Fprintln(ui.Out)
		ui.Success("Saved as %s", out.ID)
	}
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
