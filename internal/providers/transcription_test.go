package providers

import "testing"

func TestParseTranscription(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		expectText   string
		expectLang   string
		expectTokens int
	}{
		{
			name:         "plain json",
			raw:          `{"text": "THE ADVENTURES OF\nTOM SAWYER", "language": "en"}`,
			expectText:   "THE ADVENTURES OF\nTOM SAWYER",
			expectLang:   "en",
			expectTokens: 1,
		},
		{
			name:         "fenced json",
			raw:          "```json\n{\"text\": \"Hola\", \"language\": \"es\"}\n```",
			expectText:   "Hola",
			expectLang:   "es",
			expectTokens: 1,
		},
		{
			name:         "no text",
			raw:          `{"text": "  ", "language": ""}`,
			expectTokens: 0,
		},
		{
			name:         "text without language",
			raw:          `{"text": "42"}`,
			expectText:   "42",
			expectTokens: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseTranscription(tt.raw)
			if err != nil {
				t.Fatalf("ParseTranscription() error = %v", err)
			}
			if len(resp.Annotations) != tt.expectTokens {
				t.Fatalf("Expected %d annotations, got %d", tt.expectTokens, len(resp.Annotations))
			}
			if tt.expectTokens > 0 && resp.Annotations[0].Text != tt.expectText {
				t.Errorf("Expected text %q, got %q", tt.expectText, resp.Annotations[0].Text)
			}
			if tt.expectLang == "" && len(resp.Pages) != 0 {
				t.Errorf("Expected no pages, got %+v", resp.Pages)
			}
			if tt.expectLang != "" && (len(resp.Pages) != 1 || resp.Pages[0].DetectedLanguages[0] != tt.expectLang) {
				t.Errorf("Expected language %s, got %+v", tt.expectLang, resp.Pages)
			}
		})
	}
}

func TestParseTranscriptionInvalid(t *testing.T) {
	if _, err := ParseTranscription("Here is the text: hello"); err == nil {
		t.Error("Expected error for non-JSON reply")
	}
}

func TestImageMIMEType(t *testing.T) {
	if got := ImageMIMEType([]byte("\x89PNG\r\n\x1a\n0000")); got != "image/png" {
		t.Errorf("Expected image/png, got %s", got)
	}
	if got := ImageMIMEType([]byte("plain text")); got != "image/jpeg" {
		t.Errorf("Expected image/jpeg fallback, got %s", got)
	}
}
