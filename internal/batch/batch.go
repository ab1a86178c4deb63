package batch

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/lehigh-university-libraries/ocrgate/internal/images"
	"github.com/lehigh-university-libraries/ocrgate/internal/models"
	"github.com/lehigh-university-libraries/ocrgate/internal/upload"
)

// State is the outcome of processing one file
type State string

const (
	StateProcessed State = "processed"
	StateError     State = "error"
)

// Processor recognizes text in a single uploaded image
type Processor interface {
	Recognize(ctx context.Context, img *models.UploadedImage) (*models.RecognitionResult, error)
}

// FileResult is the outcome for one input file
type FileResult struct {
	Path   string                    `json:"path" yaml:"path"`
	State  State                     `json:"state" yaml:"state"`
	Result *models.RecognitionResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string                    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Runner pushes files through a Processor with bounded parallelism
type Runner struct {
	processor   Processor
	fetcher     *images.Fetcher
	concurrency int
}

func NewRunner(processor Processor, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		processor:   processor,
		fetcher:     images.NewFetcher(),
		concurrency: concurrency,
	}
}

// Run processes every source and returns results in input order. Sources
// are local paths or http(s) URLs. A failing file never stops the others.
func (r *Runner) Run(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.concurrency)

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing file", "path", path, "progress", fmt.Sprintf("%d/%d", idx+1, len(paths)))
			results[idx] = r.processFile(ctx, path)
		}(i, path)
	}

	wg.Wait()
	return results
}

func (r *Runner) processFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	if err := ctx.Err(); err != nil {
		res.State = StateError
		res.Error = err.Error()
		return res
	}

	var img *models.UploadedImage
	var err error
	if images.IsRemote(path) {
		img, err = r.fetcher.Fetch(ctx, path)
	} else {
		img, err = LoadImage(path)
	}
	if err != nil {
		res.State = StateError
		res.Error = err.Error()
		return res
	}

	result, err := r.processor.Recognize(ctx, img)
	if err != nil {
		slog.Warn("File failed", "path", path, "err", err)
		res.State = StateError
		res.Error = err.Error()
		return res
	}

	res.State = StateProcessed
	res.Result = result
	return res
}

// LoadImage reads an image file the way the upload gate would see it. Files
// over the size limit are not read; validation rejects them on Size alone.
func LoadImage(path string) (*models.UploadedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	img := &models.UploadedImage{
		Filename: filepath.Base(path),
		Size:     info.Size(),
	}
	if info.Size() > upload.MaxFileSize {
		img.ContentType = mime.TypeByExtension(filepath.Ext(path))
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	img.Data = data
	img.ContentType = upload.SniffType(data, mime.TypeByExtension(filepath.Ext(path)))
	return img, nil
}

// Summary counts results per state
func Summary(results []FileResult) map[State]int {
	counts := make(map[State]int)
	for _, r := range results {
		counts[r.State]++
	}
	return counts
}
