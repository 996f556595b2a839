package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

var assessCmd = &cobra.Command{
	Use:   "assess [file]",
	Short: "Classify a file and run the quality gate",
	Long: `Detects the file type and scores the file against the quality gate
without extracting any text.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Run a single file through the intake pipeline",
	Long: `Runs detection, the quality gate, optional enhancement and extraction
for one file and prints the processing result.

Examples:
  intake process scan.png --lang eng+mal
  intake process blurry.jpg --force
  intake process report.pdf --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

// Flags for assess and process.
var (
	processForce       bool
	processSkipEnhance bool
	processLang        string
	processJSON        bool
	assessJSON         bool
)

func init() {
	processCmd.Flags().BoolVar(&processForce, "force", false, "Extract even when the quality gate rejects the file")
	processCmd.Flags().BoolVar(&processSkipEnhance, "skip-enhance", false, "Do not enhance low quality images")
	processCmd.Flags().StringVar(&processLang, "lang", "", "OCR language hint (e.g. eng, mal, eng+mal)")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "Print the result as JSON")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "Print the assessment as JSON")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(processCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	if intakeService == nil {
		return errors.New("intake service not configured")
	}

	detection, assessment, err := intakeService.Assess(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("assess failed: %w", err)
	}

	if assessJSON {
		return writeJSON(cmd, struct {
			Detection *domain.DetectionResult   `json:"detection"`
			Quality   *domain.QualityAssessment `json:"quality"`
		}{detection, assessment})
	}

	printDetection(cmd, detection)
	printAssessment(cmd, assessment)
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	if intakeService == nil {
		return errors.New("intake service not configured")
	}

	req := domain.IntakeRequest{
		FilePath: args[0],
		Options: domain.IntakeOptions{
			SkipEnhancement: processSkipEnhance,
			ForceProcess:    processForce,
			Language:        domain.Language(processLang),
		},
	}
	res, err := intakeService.Process(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	if processJSON {
		if err := writeJSON(cmd, res); err != nil {
			return err
		}
	} else {
		printResult(cmd, res, true)
	}

	if res.Stage == domain.StageFailed {
		return fmt.Errorf("processing failed: %s", strings.Join(res.Errors, "; "))
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDetection(cmd *cobra.Command, d *domain.DetectionResult) {
	if d == nil {
		return
	}
	cmd.Printf("Type:       %s (%s, confidence %.2f)\n", d.FileType, d.MIMEType, d.Confidence)
}

func printAssessment(cmd *cobra.Command, q *domain.QualityAssessment) {
	if q == nil {
		return
	}
	cmd.Printf("Quality:    %.2f -> %s\n", q.OverallScore, q.Decision)
	if q.ImageQualityScore != nil {
		cmd.Printf("  Image:    %.2f\n", *q.ImageQualityScore)
	}
	if q.TextDensity != nil {
		cmd.Printf("  Density:  %.2f\n", *q.TextDensity)
	}
	if len(q.Metrics) > 0 {
		keys := make([]string, 0, len(q.Metrics))
		for k := range q.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("  %-9s %.3f\n", k+":", q.Metrics[k])
		}
	}
	for _, issue := range q.Issues {
		cmd.Printf("  issue: %s\n", issue)
	}
	for _, rec := range q.Recommendations {
		cmd.Printf("  hint:  %s\n", rec)
	}
}

// printResult prints a processing record. withText adds a text preview.
func printResult(cmd *cobra.Command, r *domain.ProcessingResult, withText bool) {
	cmd.Printf("File:       %s\n", r.FileID)
	cmd.Printf("Stage:      %s\n", r.Stage)
	printDetection(cmd, r.Detection)
	printAssessment(cmd, r.Quality)
	cmd.Printf("Confidence: %.2f\n", r.ConfidenceScore)
	if r.HumanReviewRequired {
		cmd.Println("Review:     required")
	}
	if r.EnhancedPath != "" {
		cmd.Printf("Enhanced:   %s\n", r.EnhancedPath)
	}
	if len(r.Chunks) > 0 {
		cmd.Printf("Chunks:     %d\n", len(r.Chunks))
	}
	for _, e := range r.Errors {
		cmd.Printf("  error: %s\n", e)
	}
	if withText && r.ExtractedText != "" {
		cmd.Println()
		cmd.Println(truncate(r.ExtractedText, 500))
	}
}
