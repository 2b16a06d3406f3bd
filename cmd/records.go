package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"certverify/internal/config"
	"certverify/internal/record"
	"certverify/pkg/models"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List processed certificate records",
	Long:  `Read the append-only record log and print every processed record.`,
	Example: `  # Print records as a table
  certverify records

  # Print records as JSON
  certverify records --json`,
	Args: cobra.NoArgs,
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRecords(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	records, err := record.NewCSVSink(cfg.RecordLog).ReadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read record log: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No records processed yet.")
		return nil
	}

	names := models.FieldNames()
	for i, rec := range records {
		fmt.Printf("--- Record %d ---\n", i+1)
		for j, value := range rec.Row() {
			fmt.Printf("%-25s: %s\n", names[j], value)
		}
	}
	fmt.Printf("\n%d record(s) in %s\n", len(records), cfg.RecordLog)
	return nil
}
