package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

const annotateResponse = `{
  "responses": [{
    "textAnnotations": [
      {"description": "Hello world", "locale": "en",
       "boundingPoly": {"vertices": [{"x": 1, "y": 2}, {"x": 90, "y": 2}, {"x": 90, "y": 20}, {"x": 1, "y": 20}]}},
      {"description": "Hello",
       "boundingPoly": {"vertices": [{"y": 2}, {"x": 40, "y": 2}, {"x": 40, "y": 20}, {"y": 20}]}},
      {"description": "world", "confidence": 0.97,
       "boundingPoly": {"vertices": [{"x": 50, "y": 2}, {"x": 90, "y": 2}, {"x": 90, "y": 20}, {"x": 50, "y": 20}]}}
    ],
    "fullTextAnnotation": {
      "text": "Hello world",
      "pages": [{"property": {"detectedLanguages": [{"languageCode": "en", "confidence": 0.9}, {"languageCode": "de"}]}}]
    }
  }]
}`

func newTestVision(t *testing.T, handler http.HandlerFunc) *Vision {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	v, err := NewWithOptions(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
	return v
}

func TestDetectDocumentText(t *testing.T) {
	image := []byte("fake image bytes")
	calls := 0

	v := newTestVision(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasSuffix(r.URL.Path, "/images:annotate") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body struct {
			Requests []struct {
				Image struct {
					Content string `json:"content"`
				} `json:"image"`
				Features []struct {
					Type string `json:"type"`
				} `json:"features"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(body.Requests) != 1 {
			t.Errorf("Expected 1 request, got %d", len(body.Requests))
			return
		}
		if body.Requests[0].Image.Content != base64.StdEncoding.EncodeToString(image) {
			t.Error("Expected image content to be base64 encoded bytes")
		}
		if len(body.Requests[0].Features) != 1 || body.Requests[0].Features[0].Type != "DOCUMENT_TEXT_DETECTION" {
			t.Errorf("Unexpected features %+v", body.Requests[0].Features)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(annotateResponse))
	})

	resp, err := v.DetectDocumentText(context.Background(), image)
	if err != nil {
		t.Fatalf("DetectDocumentText() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 call, got %d", calls)
	}

	if len(resp.Annotations) != 3 {
		t.Fatalf("Expected 3 annotations, got %d", len(resp.Annotations))
	}
	if resp.Annotations[0].Text != "Hello world" {
		t.Errorf("Expected page text, got %q", resp.Annotations[0].Text)
	}
	if resp.Annotations[0].Confidence != nil {
		t.Errorf("Expected no confidence for page annotation, got %v", *resp.Annotations[0].Confidence)
	}
	if c := resp.Annotations[2].Confidence; c == nil || *c != 0.97 {
		t.Errorf("Expected confidence 0.97, got %v", c)
	}
	hello := resp.Annotations[1].Vertices
	if len(hello) != 4 || hello[0].X != 0 || hello[0].Y != 2 || hello[2].X != 40 {
		t.Errorf("Unexpected vertices %+v", hello)
	}
	if len(resp.Pages) != 1 || len(resp.Pages[0].DetectedLanguages) != 2 || resp.Pages[0].DetectedLanguages[0] != "en" {
		t.Errorf("Unexpected pages %+v", resp.Pages)
	}
}

func TestDetectDocumentTextEmpty(t *testing.T) {
	v := newTestVision(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses": [{}]}`))
	})

	resp, err := v.DetectDocumentText(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("DetectDocumentText() error = %v", err)
	}
	if len(resp.Annotations) != 0 || len(resp.Pages) != 0 {
		t.Errorf("Expected empty response, got %+v", resp)
	}
}

func TestDetectDocumentTextErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{"http failure", http.StatusForbidden, `{"error": {"code": 403, "message": "quota exceeded"}}`, "quota exceeded"},
		{"per image error", http.StatusOK, `{"responses": [{"error": {"code": 3, "message": "Bad image data."}}]}`, "Bad image data."},
		{"no responses", http.StatusOK, `{"responses": []}`, "no responses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			v := newTestVision(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := v.DetectDocumentText(context.Background(), []byte("x"))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %q", tt.contains, err.Error())
			}
			if calls != 1 {
				t.Errorf("Expected exactly 1 call, got %d", calls)
			}
		})
	}
}

func TestCredentialsClientOptions(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		expectErr bool
	}{
		{"inline service account", Credentials{ClientEmail: "svc@example.iam.gserviceaccount.com", PrivateKey: "key"}, false},
		{"credentials file", Credentials{CredentialsFile: "/tmp/creds.json"}, false},
		{"email without key", Credentials{ClientEmail: "svc@example.iam.gserviceaccount.com"}, true},
		{"nothing set", Credentials{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.creds.clientOptions()
			if tt.expectErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(opts) != 1 {
				t.Errorf("Expected 1 option, got %d", len(opts))
			}
		})
	}
}
