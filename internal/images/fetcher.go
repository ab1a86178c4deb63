package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/ocrgate/internal/models"
	"github.com/lehigh-university-libraries/ocrgate/internal/upload"
)

// Fetcher retrieves remote images for batch runs
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsRemote reports whether source should be fetched rather than read from disk
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch downloads an image. At most one byte past the upload limit is read,
// so oversized images still fail validation without being held in memory.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (*models.UploadedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	if resp.ContentLength > upload.MaxFileSize {
		return &models.UploadedImage{
			Filename:    filenameFromURL(imageURL),
			Size:        resp.ContentLength,
			ContentType: headerType(resp),
		}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, upload.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	slog.Debug("Fetched image", "url", imageURL, "bytes", len(data))

	return &models.UploadedImage{
		Data:        data,
		ContentType: upload.SniffType(data, headerType(resp)),
		Size:        int64(len(data)),
		Filename:    filenameFromURL(imageURL),
	}, nil
}

func headerType(resp *http.Response) string {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

func filenameFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "image.jpg"
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return "image.jpg"
	}
	return name
}
