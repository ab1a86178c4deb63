package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/ocrgate/internal/providers"
	"google.golang.org/api/option"
)

// Gemini is a recognizer backed by a Gemini vision model. It reports the
// page text and language only; no token geometry is available.
type Gemini struct {
	client *genai.Client
	model  string
}

// New returns a new Gemini recognizer
func New(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Close releases the underlying client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// DetectDocumentText transcribes image with a single GenerateContent call
func (g *Gemini) DetectDocumentText(ctx context.Context, image []byte) (*providers.DocumentResponse, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.ImageData(imageFormat(image), image), genai.Text(providers.TranscriptionPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return transcriptFromResponse(resp)
}

// transcriptFromResponse takes the first text part of the first candidate
func transcriptFromResponse(resp *genai.GenerateContentResponse) (*providers.DocumentResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	return providers.ParseTranscription(string(txt))
}

// imageFormat returns the subtype genai.ImageData expects, e.g. "png"
func imageFormat(image []byte) string {
	return strings.TrimPrefix(providers.ImageMIMEType(image), "image/")
}
