package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"certverify/internal/config"
	"certverify/internal/logger"
	"certverify/pkg/models"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [image-file]",
	Short: "Verify a single certificate image",
	Long: `Process one certificate image: render the tamper heatmap against the
configured reference template and extract the six semantic fields.

The heatmap is written under the configured overlay directory. A missing
reference template is not an error; the score is withheld and a placeholder
overlay is emitted.`,
	Example: `  # Verify a scanned certificate
  certverify verify scan.png

  # JSON output to a file
  certverify verify scan.png --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	verifyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("verify-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	imagePath := args[0]
	if _, err := os.Stat(imagePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", imagePath)
		}
		return fmt.Errorf("error accessing image file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, _ := newVerifyService(cmd.Context(), cfg, log)

	result, err := svc.Verify(cmd.Context(), imagePath)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	var outputData []byte
	if jsonOutput {
		outputData, err = json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = append(outputData, '\n')
	} else {
		outputData = []byte(formatResult(result.Record, result.Score, result.ScoreValid, result.OverlayPath))
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Verification results written to file")
		return nil
	}

	_, err = os.Stdout.Write(outputData)
	return err
}

func formatResult(record models.Record, score float64, scoreValid bool, overlayPath string) string {
	var output strings.Builder

	output.WriteString("=== Verification Results ===\n")
	if scoreValid {
		output.WriteString(fmt.Sprintf("Global similarity score: %.4f\n", score))
	} else {
		output.WriteString("Global similarity score: unavailable (placeholder heatmap emitted)\n")
	}
	output.WriteString(fmt.Sprintf("Heatmap: %s\n\n", overlayPath))

	names := models.FieldNames()
	for i, value := range record.Row() {
		output.WriteString(fmt.Sprintf("%-25s: %s\n", names[i], value))
	}
	return output.String()
}
