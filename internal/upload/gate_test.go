package upload

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/ocrgate/internal/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, field, partType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="page.png"`)
	if partType != "" {
		h.Set("Content-Type", partType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func expectKind(t *testing.T, err error, kind models.ValidationKind) {
	t.Helper()
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Kind != kind {
		t.Errorf("Expected kind %s, got %s (%s)", kind, verr.Kind, verr.Message)
	}
}

func TestParseMultipart(t *testing.T) {
	data := pngBytes(t)
	req := multipartRequest(t, "file", "image/png", data)

	img, err := Parse(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("Expected image/png, got %s", img.ContentType)
	}
	if img.Filename != "page.png" {
		t.Errorf("Expected filename page.png, got %s", img.Filename)
	}
	if !bytes.Equal(img.Data, data) {
		t.Error("Expected uploaded bytes to round trip")
	}
	if img.Size != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), img.Size)
	}
}

func TestParseMultipartSniffsMissingType(t *testing.T) {
	req := multipartRequest(t, "file", "", pngBytes(t))

	img, err := Parse(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("Expected sniffed image/png, got %s", img.ContentType)
	}
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		expectType string
	}{
		{"png is sniffed", pngBytes(t), "image/png"},
		{"unknown bytes default to jpeg", []byte{0x01, 0x02, 0x03}, DefaultRawType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/octet-stream")

			img, err := Parse(httptest.NewRecorder(), req)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if img.ContentType != tt.expectType {
				t.Errorf("Expected %s, got %s", tt.expectType, img.ContentType)
			}
		})
	}
}

func TestParseRejections(t *testing.T) {
	big := make([]byte, 12*1024*1024)
	slightlyBig := make([]byte, MaxFileSize+10)

	tests := []struct {
		name string
		req  func() *http.Request
		kind models.ValidationKind
		msg  string
	}{
		{
			name: "json body",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			kind: models.UnsupportedContentEncoding,
			msg:  "Unsupported Content-Type: application/json. Use multipart/form-data or application/octet-stream.",
		},
		{
			name: "no content type",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader("x"))
			},
			kind: models.UnsupportedContentEncoding,
		},
		{
			name: "missing file field",
			req:  func() *http.Request { return multipartRequest(t, "document", "image/png", pngBytes(t)) },
			kind: models.MissingFile,
			msg:  "File is required",
		},
		{
			name: "empty raw body",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader(nil))
				req.Header.Set("Content-Type", "application/octet-stream")
				return req
			},
			kind: models.MissingFile,
		},
		{
			name: "oversized multipart beyond body cap",
			req:  func() *http.Request { return multipartRequest(t, "file", "image/jpeg", big) },
			kind: models.OversizedFile,
			msg:  "File size exceeds 10MB limit",
		},
		{
			name: "oversized multipart within body cap",
			req:  func() *http.Request { return multipartRequest(t, "file", "image/jpeg", slightlyBig) },
			kind: models.OversizedFile,
		},
		{
			name: "oversized raw body",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/ocr", bytes.NewReader(big))
				req.Header.Set("Content-Type", "application/octet-stream")
				return req
			},
			kind: models.OversizedFile,
		},
		{
			name: "unsupported declared type",
			req:  func() *http.Request { return multipartRequest(t, "file", "application/pdf", []byte("%PDF-1.7")) },
			kind: models.UnsupportedType,
			msg:  "Invalid file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(httptest.NewRecorder(), tt.req())
			expectKind(t, err, tt.kind)
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("Expected message %q, got %q", tt.msg, err.Error())
			}
		})
	}
}

func TestValidateChecksSizeBeforeType(t *testing.T) {
	err := Validate(&models.UploadedImage{Size: MaxFileSize + 1, ContentType: "text/plain"})
	expectKind(t, err, models.OversizedFile)

	if err := Validate(&models.UploadedImage{Size: MaxFileSize, ContentType: "image/webp"}); err != nil {
		t.Errorf("Expected file at the limit to pass, got %v", err)
	}
}

func TestIsAllowed(t *testing.T) {
	tests := map[string]bool{
		"image/jpeg":           true,
		"image/png":            true,
		"image/gif":            true,
		"image/webp":           true,
		"image/png; charset=x": true,
		"image/tiff":           false,
		"application/pdf":      false,
		"":                     false,
	}
	for ct, expected := range tests {
		if got := IsAllowed(ct); got != expected {
			t.Errorf("IsAllowed(%q) = %v, expected %v", ct, got, expected)
		}
	}
}
