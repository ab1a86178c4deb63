package models

// UploadedImage is an image received by the upload gate
type UploadedImage struct {
	Data        []byte
	ContentType string
	Size        int64
	Filename    string
}

// RecognitionResult is the simplified OCR response returned to callers
type RecognitionResult struct {
	Text             string     `json:"text" yaml:"text"`
	Confidence       float64    `json:"confidence" yaml:"confidence"`
	DetectedLanguage string     `json:"detectedLanguage" yaml:"detectedlanguage"`
	BoundingBoxes    []TokenBox `json:"boundingBoxes" yaml:"boundingboxes"`
}

// TokenBox is a recognized token and the polygon it occupies in the source image
type TokenBox struct {
	Text        string   `json:"text" yaml:"text"`
	BoundingBox []Vertex `json:"boundingBox" yaml:"boundingbox,flow"`
}

// Vertex is a pixel coordinate
type Vertex struct {
	X int64 `json:"x" yaml:"x"`
	Y int64 `json:"y" yaml:"y"`
}

// ValidationKind classifies why an upload was rejected
type ValidationKind string

const (
	OversizedFile              ValidationKind = "oversizedFile"
	UnsupportedType            ValidationKind = "unsupportedType"
	MissingFile                ValidationKind = "missingFile"
	UnsupportedContentEncoding ValidationKind = "unsupportedContentEncoding"
)

// ValidationError is a client-side problem with an upload. It is always
// detected before any recognizer call is made.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
