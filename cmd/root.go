package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/ocrgate/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ocrgate",
		Short: "Image text extraction gateway backed by a managed OCR service",
		Long: `ocrgate validates uploaded images, downsizes oversized ones and forwards
them to a document text detection service, returning the recognized text,
language and per-token bounding boxes as JSON.

OCR_PROVIDER selects the backend: vision (Google Cloud Vision, the default),
gemini, ollama or openai.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env files if present (ignore errors); earlier files win
			_ = godotenv.Load(".env.local")
			_ = godotenv.Load()

			level := config.LogLevel()
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}
