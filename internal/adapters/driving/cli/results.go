package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Browse processing results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list [source-id]",
	Short: "List recent processing results",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResultsList,
}

var resultsShowCmd = &cobra.Command{
	Use:   "show [file-id]",
	Short: "Show one processing result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if resultService == nil {
			return errors.New("result service not configured")
		}
		res, err := resultService.Get(commandContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("result not found: %w", err)
		}
		printResult(cmd, res, true)
		return nil
	},
}

var resultsOpenCmd = &cobra.Command{
	Use:   "open [file-id]",
	Short: "Open the processed file in the default application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if resultService == nil {
			return errors.New("result service not configured")
		}
		if err := resultService.Open(commandContext(cmd), args[0]); err != nil {
			return fmt.Errorf("failed to open: %w", err)
		}
		return nil
	},
}

// Flags for results list.
var (
	resultsReview bool
	resultsLimit  int
)

func init() {
	resultsListCmd.Flags().BoolVar(&resultsReview, "review", false, "Only results flagged for human review")
	resultsListCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 20, "Maximum number of results")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsOpenCmd)
	rootCmd.AddCommand(resultsCmd)
}

func runResultsList(cmd *cobra.Command, args []string) error {
	if resultService == nil {
		return errors.New("result service not configured")
	}

	sourceID := ""
	if len(args) == 1 {
		sourceID = args[0]
	}

	ctx := commandContext(cmd)
	var (
		results []domain.ProcessingResult
		err     error
	)
	if resultsReview {
		results, err = resultService.ReviewQueue(ctx, sourceID, resultsLimit)
	} else {
		results, err = resultService.List(ctx, sourceID, resultsLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No results.")
		return nil
	}

	for i := range results {
		r := &results[i]
		flag := ""
		if r.HumanReviewRequired {
			flag = " [review]"
		}
		fileType := domain.FileTypeUnknown
		if r.Detection != nil {
			fileType = r.Detection.FileType
		}
		cmd.Printf("%s  %-10s %-10s %.2f%s  %s\n",
			r.CompletedAt.Format(time.DateTime), r.Stage, fileType, r.ConfidenceScore, flag, r.FileID)
	}
	return nil
}
