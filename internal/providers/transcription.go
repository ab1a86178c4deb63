package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TranscriptionPrompt asks a vision language model for a plain OCR transcript
const TranscriptionPrompt = `You are performing OCR (Optical Character Recognition) on the attached image.

Extract ALL visible text exactly as it appears, preserving line breaks, capitalization and punctuation.
Do not add interpretation or commentary. If there is no text, return an empty string.

Respond with ONLY a JSON object:
{"text": "<the transcribed text>", "language": "<BCP-47 code of the dominant language, or empty>"}`

type transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ParseTranscription decodes a model's JSON reply to TranscriptionPrompt,
// tolerating markdown fences. Models report no token geometry, so the
// result has at most the page-level annotation.
func ParseTranscription(raw string) (*DocumentResponse, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var t transcription
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	out := &DocumentResponse{}
	if strings.TrimSpace(t.Text) == "" {
		return out, nil
	}

	out.Annotations = []Annotation{{Text: t.Text}}
	if t.Language != "" {
		out.Pages = []Page{{DetectedLanguages: []string{t.Language}}}
	}
	return out, nil
}

// ImageMIMEType sniffs the image type, defaulting to image/jpeg
func ImageMIMEType(image []byte) string {
	ct := http.DetectContentType(image)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/jpeg"
}
