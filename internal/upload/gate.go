package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/ocrgate/internal/models"
)

// MaxFileSize is the largest upload accepted, in bytes
const MaxFileSize = 10 * 1024 * 1024

// DefaultRawType is assumed for raw bodies whose bytes don't identify them
const DefaultRawType = "image/jpeg"

// room for multipart boundaries and part headers on top of MaxFileSize
const multipartSlack = 1 << 20

// AllowedTypes lists the media types forwarded for recognition
var AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

func oversized() error {
	return &models.ValidationError{Kind: models.OversizedFile, Message: "File size exceeds 10MB limit"}
}

func missingFile() error {
	return &models.ValidationError{Kind: models.MissingFile, Message: "File is required"}
}

// Parse reads exactly one image out of r, either from the multipart form
// field "file" or from a raw application/octet-stream body, and validates it.
// All returned errors are *models.ValidationError.
func Parse(w http.ResponseWriter, r *http.Request) (*models.UploadedImage, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	var (
		img *models.UploadedImage
		err error
	)
	switch {
	case strings.Contains(contentType, "multipart/form-data"):
		img, err = parseMultipart(w, r)
	case mediaType == "application/octet-stream":
		img, err = parseRaw(r)
	default:
		return nil, &models.ValidationError{
			Kind:    models.UnsupportedContentEncoding,
			Message: fmt.Sprintf("Unsupported Content-Type: %s. Use multipart/form-data or application/octet-stream.", contentType),
		}
	}
	if err != nil {
		return nil, err
	}

	slog.Info("File received", "name", img.Filename, "size", img.Size, "type", img.ContentType)

	if err := Validate(img); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks the declared size and media type of an image.
func Validate(img *models.UploadedImage) error {
	if img.Size > MaxFileSize {
		return oversized()
	}
	if !IsAllowed(img.ContentType) {
		return &models.ValidationError{Kind: models.UnsupportedType, Message: "Invalid file type"}
	}
	return nil
}

// IsAllowed reports whether contentType, ignoring parameters, is an accepted image type.
func IsAllowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(AllowedTypes, mediaType)
}

// SniffType identifies an image from its leading bytes. It returns the
// sniffed type when it is allowed and fallback otherwise.
func SniffType(data []byte, fallback string) string {
	if sniffed := http.DetectContentType(data); IsAllowed(sniffed) {
		return sniffed
	}
	return fallback
}

func parseMultipart(w http.ResponseWriter, r *http.Request) (*models.UploadedImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+multipartSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isTooLarge(err) {
			return nil, oversized()
		}
		return nil, &models.ValidationError{
			Kind:    models.UnsupportedContentEncoding,
			Message: "Failed to parse multipart form: " + err.Error(),
		}
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Unable to remove multipart temp files", "err", err)
		}
	}()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		return nil, missingFile()
	}
	if len(headers) > 1 {
		return nil, &models.ValidationError{
			Kind:    models.UnsupportedContentEncoding,
			Message: "Only one file may be uploaded per request",
		}
	}
	header := headers[0]

	// reject on the declared size before reading anything
	if header.Size > MaxFileSize {
		return nil, oversized()
	}

	file, err := header.Open()
	if err != nil {
		return nil, &models.ValidationError{Kind: models.MissingFile, Message: "Failed to read file: " + err.Error()}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &models.ValidationError{Kind: models.MissingFile, Message: "Failed to read file: " + err.Error()}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = SniffType(data, "")
	}

	return &models.UploadedImage{
		Data:        data,
		ContentType: contentType,
		Size:        header.Size,
		Filename:    header.Filename,
	}, nil
}

func parseRaw(r *http.Request) (*models.UploadedImage, error) {
	if r.ContentLength > MaxFileSize {
		return nil, oversized()
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxFileSize+1))
	if err != nil {
		return nil, &models.ValidationError{
			Kind:    models.UnsupportedContentEncoding,
			Message: "Failed to read request body: " + err.Error(),
		}
	}
	if len(data) == 0 {
		return nil, missingFile()
	}

	return &models.UploadedImage{
		Data:        data,
		ContentType: SniffType(data, DefaultRawType),
		Size:        int64(len(data)),
		Filename:    "upload.jpg",
	}, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
