package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/lehigh-university-libraries/ocrgate/internal/models"
	"github.com/lehigh-university-libraries/ocrgate/internal/providers"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"
)

const featureDocumentText = "DOCUMENT_TEXT_DETECTION"

// Credentials identify the Google Cloud service account. An inline client
// email and private key take precedence over a credentials file.
type Credentials struct {
	ClientEmail     string
	PrivateKey      string
	ProjectID       string
	CredentialsFile string
}

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id,omitempty"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func (c Credentials) clientOptions() ([]option.ClientOption, error) {
	switch {
	case c.ClientEmail != "" && c.PrivateKey != "":
		data, err := json.Marshal(serviceAccount{
			Type:        "service_account",
			ProjectID:   c.ProjectID,
			ClientEmail: c.ClientEmail,
			PrivateKey:  c.PrivateKey,
			TokenURI:    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal service account: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(data)}, nil
	case c.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}, nil
	default:
		return nil, fmt.Errorf("GOOGLE_CLOUD_CLIENT_EMAIL and GOOGLE_CLOUD_PRIVATE_KEY (or GOOGLE_APPLICATION_CREDENTIALS) must be set")
	}
}

// Vision is a recognizer backed by the Google Cloud Vision API
type Vision struct {
	svc *visionapi.Service
}

// New builds a Vision client from service account credentials
func New(ctx context.Context, creds Credentials) (*Vision, error) {
	opts, err := creds.clientOptions()
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, opts...)
}

// NewWithOptions builds a Vision client from raw client options
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Vision, error) {
	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &Vision{svc: svc}, nil
}

func (v *Vision) Name() string { return "vision" }

// DetectDocumentText sends one DOCUMENT_TEXT_DETECTION request for image
func (v *Vision) DetectDocumentText(ctx context.Context, image []byte) (*providers.DocumentResponse, error) {
	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{
			{
				Image:    &visionapi.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*visionapi.Feature{{Type: featureDocumentText}},
			},
		},
	}

	batch, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("vision annotate request failed: %w", err)
	}
	if len(batch.Responses) == 0 || batch.Responses[0] == nil {
		return nil, fmt.Errorf("vision returned no responses")
	}

	resp := batch.Responses[0]
	if resp.Error != nil && resp.Error.Code != 0 {
		return nil, fmt.Errorf("vision error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	return convert(resp), nil
}

func convert(resp *visionapi.AnnotateImageResponse) *providers.DocumentResponse {
	out := &providers.DocumentResponse{}

	for _, ea := range resp.TextAnnotations {
		if ea == nil {
			continue
		}
		a := providers.Annotation{Text: ea.Description}
		// confidence is omitted from the JSON when unset
		if ea.Confidence != 0 {
			c := ea.Confidence
			a.Confidence = &c
		}
		if ea.BoundingPoly != nil {
			for _, vtx := range ea.BoundingPoly.Vertices {
				if vtx == nil {
					continue
				}
				a.Vertices = append(a.Vertices, models.Vertex{X: vtx.X, Y: vtx.Y})
			}
		}
		out.Annotations = append(out.Annotations, a)
	}

	if resp.FullTextAnnotation != nil {
		for _, p := range resp.FullTextAnnotation.Pages {
			var page providers.Page
			if p != nil && p.Property != nil {
				for _, lang := range p.Property.DetectedLanguages {
					if lang != nil && lang.LanguageCode != "" {
						page.DetectedLanguages = append(page.DetectedLanguages, lang.LanguageCode)
					}
				}
			}
			out.Pages = append(out.Pages, page)
		}
	}

	return out
}
