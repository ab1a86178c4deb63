package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/ocrgate/internal/config"
	"github.com/lehigh-university-libraries/ocrgate/internal/handlers"
	"github.com/lehigh-university-libraries/ocrgate/internal/ocr"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the OCR HTTP endpoint",
		Long: `Starts the OCR endpoint on the specified port.

POST an image to /api/ocr either as the multipart form field "file" or as a raw
application/octet-stream body. The recognizer is initialized once at startup;
if that fails the server still starts and answers every OCR request with an
"OCR service is not available" error.`,
		Example: `  # Start server on the port from $PORT (default 8888)
  ocrgate serve

  # Start server on custom port
  ocrgate serve --port 3000

  # Send an image
  curl -F file=@page.jpg http://localhost:8888/api/ocr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			cfg.LogSummary()

			ocrService := ocr.NewServiceFromConfig(cmd.Context(), cfg)
			defer func() {
				if err := ocrService.Close(); err != nil {
					slog.Warn("Failed to close OCR recognizer", "err", err)
				}
			}()
			handler := handlers.New(ocrService)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/ocr", handler.HandleOCR)
			mux.HandleFunc("/healthcheck", handler.HandleHealthcheck)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("OCR endpoint available", "addr", addr, "url", "http://localhost"+addr+"/api/ocr")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides $PORT)")

	return cmd
}
