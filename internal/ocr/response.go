package ocr

import (
	"github.com/lehigh-university-libraries/ocrgate/internal/models"
	"github.com/lehigh-university-libraries/ocrgate/internal/providers"
)

const (
	NoTextMessage   = "No text detected in the image."
	UnknownLanguage = "unknown"
)

// NoTextResult is returned when the recognizer finds no text at all
func NoTextResult() *models.RecognitionResult {
	return &models.RecognitionResult{
		Text:             NoTextMessage,
		Confidence:       0,
		DetectedLanguage: UnknownLanguage,
		BoundingBoxes:    []models.TokenBox{},
	}
}

// MapResponse reshapes a recognizer response into the public result. It has
// no side effects and always builds fresh slices.
func MapResponse(resp *providers.DocumentResponse) *models.RecognitionResult {
	if resp == nil || len(resp.Annotations) == 0 {
		return NoTextResult()
	}

	page := resp.Annotations[0]
	result := &models.RecognitionResult{
		Text:             page.Text,
		DetectedLanguage: detectedLanguage(resp.Pages),
		BoundingBoxes:    make([]models.TokenBox, 0, len(resp.Annotations)-1),
	}
	if page.Confidence != nil {
		result.Confidence = *page.Confidence
	}

	for _, a := range resp.Annotations[1:] {
		vertices := make([]models.Vertex, len(a.Vertices))
		copy(vertices, a.Vertices)
		result.BoundingBoxes = append(result.BoundingBoxes, models.TokenBox{
			Text:        a.Text,
			BoundingBox: vertices,
		})
	}

	return result
}

func detectedLanguage(pages []providers.Page) string {
	if len(pages) == 0 || len(pages[0].DetectedLanguages) == 0 {
		return UnknownLanguage
	}
	if code := pages[0].DetectedLanguages[0]; code != "" {
		return code
	}
	return UnknownLanguage
}
