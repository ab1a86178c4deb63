package batch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// RunConfig is the header section of a YAML or JSON report
type RunConfig struct {
	Provider    string `yaml:"provider" json:"provider"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
	Files       int    `yaml:"files" json:"files"`
	Processed   int    `yaml:"processed" json:"processed"`
	Failed      int    `yaml:"failed" json:"failed"`
	Timestamp   string `yaml:"timestamp" json:"timestamp"`
}

// Report is the complete batch output
type Report struct {
	Config  RunConfig    `yaml:"config" json:"config"`
	Results []FileResult `yaml:"results" json:"results"`
}

// ParquetRow is one flattened result row
type ParquetRow struct {
	Path             string         `parquet:"path"`
	State            string         `parquet:"state"`
	Text             string         `parquet:"text"`
	Confidence       float64        `parquet:"confidence"`
	DetectedLanguage string         `parquet:"detected_language"`
	Tokens           []ParquetToken `parquet:"tokens,list"`
	Error            string         `parquet:"error"`
}

// ParquetToken stores a polygon as x0,y0,x1,y1,...
type ParquetToken struct {
	Text    string  `parquet:"text"`
	Polygon []int64 `parquet:"polygon,list"`
}

// NewReport wraps results with run metadata
func NewReport(provider string, concurrency int, results []FileResult) Report {
	counts := Summary(results)
	return Report{
		Config: RunConfig{
			Provider:    provider,
			Concurrency: concurrency,
			Files:       len(results),
			Processed:   counts[StateProcessed],
			Failed:      counts[StateError],
			Timestamp:   time.Now().Format("2006-01-02_15-04-05"),
		},
		Results: results,
	}
}

// Write saves the report, picking the format from the file extension
func Write(path string, report Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = writeYAML(path, report)
	case ".json":
		err = writeJSON(path, report)
	case ".parquet":
		err = writeParquet(path, report.Results)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: .yaml, .json, .parquet)", ext)
	}
	if err != nil {
		return err
	}

	slog.Info("Batch results saved", "path", path, "files", report.Config.Files, "failed", report.Config.Failed)
	return nil
}

func writeYAML(path string, report Report) error {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

func writeJSON(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

func writeParquet(path string, results []FileResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[ParquetRow](file)
	if _, err := writer.Write(ToRows(results)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ToRows flattens results for columnar output
func ToRows(results []FileResult) []ParquetRow {
	rows := make([]ParquetRow, 0, len(results))
	for _, r := range results {
		row := ParquetRow{
			Path:  r.Path,
			State: string(r.State),
			Error: r.Error,
		}
		if r.Result != nil {
			row.Text = r.Result.Text
			row.Confidence = r.Result.Confidence
			row.DetectedLanguage = r.Result.DetectedLanguage
			for _, box := range r.Result.BoundingBoxes {
				token := ParquetToken{Text: box.Text, Polygon: make([]int64, 0, len(box.BoundingBox)*2)}
				for _, v := range box.BoundingBox {
					token.Polygon = append(token.Polygon, v.X, v.Y)
				}
				row.Tokens = append(row.Tokens, token)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
