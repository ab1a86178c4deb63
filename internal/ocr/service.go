package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/ocrgate/internal/config"
	"github.com/lehigh-university-libraries/ocrgate/internal/gemini"
	"github.com/lehigh-university-libraries/ocrgate/internal/imaging"
	"github.com/lehigh-university-libraries/ocrgate/internal/models"
	"github.com/lehigh-university-libraries/ocrgate/internal/ollama"
	"github.com/lehigh-university-libraries/ocrgate/internal/openai"
	"github.com/lehigh-university-libraries/ocrgate/internal/providers"
	"github.com/lehigh-university-libraries/ocrgate/internal/upload"
	"github.com/lehigh-university-libraries/ocrgate/internal/vision"
)

// ErrUnavailable is returned for every request when the recognizer could not
// be constructed at startup
var ErrUnavailable = errors.New("OCR service is not available")

// ServiceError wraps a failed recognizer call
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Service forwards normalized images to a recognizer
type Service struct {
	recognizer providers.Recognizer
	initErr    error
	timeout    time.Duration
}

// NewService wraps a recognizer built once at startup. A non-nil initErr
// marks the service unavailable for its whole lifetime.
func NewService(recognizer providers.Recognizer, initErr error, timeout time.Duration) *Service {
	if initErr == nil && recognizer == nil {
		initErr = errors.New("no recognizer configured")
	}
	return &Service{
		recognizer: recognizer,
		initErr:    initErr,
		timeout:    timeout,
	}
}

// NewServiceFromConfig constructs the configured recognizer and wraps it.
// Construction failures are logged and kept; they are not retried.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config) *Service {
	recognizer, err := NewRecognizer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize OCR recognizer", "provider", cfg.Provider, "err", err)
	} else {
		slog.Info("OCR recognizer initialized successfully", "provider", recognizer.Name())
	}
	return NewService(recognizer, err, cfg.Timeout)
}

// NewRecognizer builds the recognizer named by cfg.Provider
func NewRecognizer(ctx context.Context, cfg *config.Config) (providers.Recognizer, error) {
	switch cfg.Provider {
	case "vision", "":
		v, err := vision.New(ctx, vision.Credentials{
			ClientEmail:     cfg.ClientEmail,
			PrivateKey:      cfg.PrivateKey,
			ProjectID:       cfg.ProjectID,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	case "gemini":
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "ollama":
		o, err := ollama.New(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		return o, nil
	case "openai":
		o, err := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", cfg.Provider)
	}
}

// Close releases the recognizer's client when it holds one
func (s *Service) Close() error {
	if closer, ok := s.recognizer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Available reports the startup error, if any
func (s *Service) Available() error {
	if s.initErr != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, s.initErr)
	}
	return nil
}

// Extract runs document text detection on image exactly once.
func (s *Service) Extract(ctx context.Context, image []byte) (*models.RecognitionResult, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Info("Starting OCR recognition", "provider", s.recognizer.Name(), "bytes", len(image))

	resp, err := s.recognizer.DetectDocumentText(ctx, image)
	if err != nil {
		return nil, &ServiceError{Provider: s.recognizer.Name(), Err: err}
	}

	result := MapResponse(resp)
	slog.Info("OCR recognition complete",
		"provider", s.recognizer.Name(),
		"duration", time.Since(start),
		"language", result.DetectedLanguage,
		"tokens", len(result.BoundingBoxes),
	)
	return result, nil
}

// Recognize validates an uploaded image, downsizes it if needed and extracts
// its text. Validation failures are returned before the recognizer is touched.
func (s *Service) Recognize(ctx context.Context, img *models.UploadedImage) (*models.RecognitionResult, error) {
	if err := upload.Validate(img); err != nil {
		return nil, err
	}
	if err := s.Available(); err != nil {
		return nil, err
	}

	data, err := imaging.Normalize(img.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess image: %w", err)
	}

	return s.Extract(ctx, data)
}
