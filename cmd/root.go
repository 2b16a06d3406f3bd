package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"certverify/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "certverify",
	Short: "Certificate verification service and CLI",
	Long: `certverify checks scanned certificate images for structural tampering
and extracts their semantic fields.

A candidate image is compared against a genuine reference template with a
windowed structural-similarity metric; regions that deviate are rendered as
a heatmap overlay. Independently, an OCR text locator feeds a heuristic
field extractor that produces a fixed six-field record (institution, holder
name, course, grade, roll number, certificate ID).

Run it as a one-shot CLI (certverify verify) or as an HTTP service
(certverify serve).`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("certverify executed")

		fmt.Println("Welcome to certverify!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
