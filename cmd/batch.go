package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/ocrgate/internal/batch"
	"github.com/lehigh-university-libraries/ocrgate/internal/config"
	"github.com/lehigh-university-libraries/ocrgate/internal/ocr"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var (
		output      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Run OCR over local image files",
		Long: `Runs every file through the same validation, resizing and recognition steps
as the HTTP endpoint and records each file as processed or error.

The output format follows the --output extension: .yaml, .json or .parquet.
A failing file does not stop the rest of the batch.`,
		Example: `  # OCR a few scans into results.yaml
  ocrgate batch scans/*.jpg

  # Four files at a time, columnar output
  ocrgate batch scans/*.png --concurrency 4 --output out/results.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.LogSummary()

			ocrService := ocr.NewServiceFromConfig(cmd.Context(), cfg)
			defer func() {
				if err := ocrService.Close(); err != nil {
					slog.Warn("Failed to close OCR recognizer", "err", err)
				}
			}()
			if err := ocrService.Available(); err != nil {
				return err
			}

			runner := batch.NewRunner(ocrService, concurrency)
			results := runner.Run(cmd.Context(), args)

			report := batch.NewReport(cfg.Provider, concurrency, results)
			if err := batch.Write(output, report); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d/%d files, results saved to %s\n",
				report.Config.Processed, report.Config.Files, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "results.yaml", "Output file (.yaml, .json or .parquet)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Number of files to process in parallel")

	return cmd
}
