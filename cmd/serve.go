package cmd

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"certverify/internal/config"
	"certverify/internal/extract"
	"certverify/internal/logger"
	"certverify/internal/ocr"
	"certverify/internal/record"
	"certverify/internal/verify"

	httpserver "certverify/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the certificate verification HTTP service",
	Long: `Start the HTTP service exposing certificate verification.

The text-location engine is initialized once at startup and shared across
requests. If initialization fails (e.g. missing Tesseract runtime or cloud
credentials) the service still starts in a degraded mode where every
extraction returns an all-sentinel record.`,
	Example: `  # Serve on the configured port (default 8080)
  certverify serve

  # Use the Google Vision backend
  LOCATOR_BACKEND=vision certverify serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, csvSink := newVerifyService(cmd.Context(), cfg, log)

	srv := httpserver.New(svc, csvSink, cfg.UploadDir, cfg.OverlayDir)
	return srv.ListenAndServe(":" + cfg.Port)
}

// newVerifyService wires the verification service from configuration. The
// heavyweight pieces (text-location engine, sheet client) are constructed
// here, once, and shared read-only by every request.
func newVerifyService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*verify.Service, *record.CSVSink) {
	locator, err := ocr.NewLocator(ctx, cfg.LocatorBackend, cfg.LocatorLangs)
	if err != nil {
		log.Warn().
			Err(err).
			Str("backend", cfg.LocatorBackend).
			Msg("Text-location engine failed to initialize, extraction will return sentinel records")
		locator = ocr.NewDisabledLocator(err)
	} else {
		log.Info().Str("backend", locator.Name()).Msg("Text-location engine ready")
	}

	csvSink := record.NewCSVSink(cfg.RecordLog)

	var sink record.Sink = csvSink
	if cfg.SheetURL != "" {
		sheetsSink, err := record.NewSheetsSink(ctx, cfg.SheetURL, cfg.SheetWorksheet)
		if err != nil {
			log.Warn().Err(err).Msg("Sheets sink unavailable, keeping CSV log only")
		} else {
			sink = record.MultiSink(csvSink, sheetsSink)
		}
	}

	var completer extract.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = extract.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		log.Info().Str("model", cfg.OpenAIModel).Msg("Field completion enabled")
	}

	return verify.NewService(locator, sink, completer, verify.Options{
		ReferenceTemplate: cfg.ReferenceTemplate,
		OverlayDir:        cfg.OverlayDir,
		LocateTimeout:     cfg.LocatorTimeout,
	}), csvSink
}
