package providers

import (
	"context"

	"github.com/lehigh-university-libraries/ocrgate/internal/models"
)

// Recognizer is a document-text-detection capability
type Recognizer interface {
	Name() string
	DetectDocumentText(ctx context.Context, image []byte) (*DocumentResponse, error)
}

// DocumentResponse is what a recognizer reports for one image. Fields the
// underlying service may omit are optional here as well; callers apply the
// defaults.
type DocumentResponse struct {
	// Annotations in the order the service returned them. When present, the
	// first entry covers the whole page and the rest are individual tokens.
	Annotations []Annotation
	Pages       []Page
}

// Annotation is a detected text region
type Annotation struct {
	Text       string
	Confidence *float64
	Vertices   []models.Vertex
}

// Page carries page-level metadata
type Page struct {
	// DetectedLanguages are BCP-47 codes, most confident first
	DetectedLanguages []string
}
