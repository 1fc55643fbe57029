package analysis

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
)

// GeminiBackend talks to Google's Gemini models.
type GeminiBackend struct {
	opts        []option.ClientOption
	temperature float32
}

func NewGeminiBackend(opts ...option.ClientOption) *GeminiBackend {
	return &GeminiBackend{opts: opts, temperature: 0.2}
}

func (b *GeminiBackend) Open(ctx context.Context, apiKey string) (Session, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, b.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, classifyError(err)
	}
	return &geminiSession{client: client, temperature: b.temperature}, nil
}

type geminiSession struct {
	client      *genai.Client
	temperature float32
}

func (s *geminiSession) Generate(ctx context.Context, model string, req Request) (string, error) {
	m := s.client.GenerativeModel(model)
	m.SetTemperature(s.temperature)

	parts := []genai.Part{genai.Text(req.Prompt)}
	if len(req.Image) > 0 {
		parts = append(parts, genai.Blob{MIMEType: req.MIMEType, Data: req.Image})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp)
}

func (s *geminiSession) Close() error {
	return s.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var sb strings.Builder
	if resp != nil {
		for _, c := range resp.Candidates {
			if c == nil || c.Content == nil {
				continue
			}
			for _, part := range c.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					sb.WriteString(string(t))
				}
			}
			if sb.Len() > 0 {
				break
			}
		}
	}
	if sb.Len() == 0 {
		return "", apperrors.New(apperrors.ErrorTypeExternal, "EMPTY_RESPONSE", "model returned no text")
	}
	return sb.String(), nil
}

// classifyError maps a Gemini client error to the dispatcher's error kinds
// using the HTTP status, gRPC code and error reason the API reports.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	httpCode := 0
	grpcCode := codes.OK
	reason := ""

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		reason = apiErr.Reason()
		if c := apiErr.HTTPCode(); c > 0 {
			httpCode = c
		}
		if st := apiErr.GRPCStatus(); st != nil {
			grpcCode = st.Code()
		}
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		httpCode = gErr.Code
	}

	switch {
	case reason == "API_KEY_INVALID",
		httpCode == http.StatusUnauthorized, httpCode == http.StatusForbidden,
		grpcCode == codes.Unauthenticated, grpcCode == codes.PermissionDenied:
		return apperrors.Derive(apperrors.ErrInvalidAPIKey, err)
	case httpCode == http.StatusServiceUnavailable, httpCode == http.StatusTooManyRequests,
		grpcCode == codes.Unavailable, grpcCode == codes.ResourceExhausted:
		return apperrors.Derive(apperrors.ErrUpstreamOverload, err)
	case httpCode == http.StatusNotFound,
		grpcCode == codes.NotFound, grpcCode == codes.Unimplemented:
		return apperrors.Derive(apperrors.ErrModelNotAvailable, err)
	default:
		return apperrors.NewExternalAPIError(err, "gemini")
	}
}
