package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
)

// OpenAIBackend talks to OpenAI chat completion models. Images are sent
// inline as data URLs.
type OpenAIBackend struct {
	baseURL     string
	temperature float32
}

// NewOpenAIBackend returns a backend for baseURL; empty means api.openai.com.
func NewOpenAIBackend(baseURL string) *OpenAIBackend {
	return &OpenAIBackend{baseURL: baseURL, temperature: 0.2}
}

func (b *OpenAIBackend) Open(ctx context.Context, apiKey string) (Session, error) {
	cfg := openai.DefaultConfig(apiKey)
	if b.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(b.baseURL, "/")
	}
	return &openAISession{client: openai.NewClientWithConfig(cfg), temperature: b.temperature}, nil
}

type openAISession struct {
	client      *openai.Client
	temperature float32
}

func (s *openAISession) Generate(ctx context.Context, model string, req Request) (string, error) {
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
	if len(req.Image) > 0 {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.Image)),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperrors.New(apperrors.ErrorTypeExternal, "EMPTY_RESPONSE", "model returned no text")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *openAISession) Close() error {
	return nil
}

// classifyOpenAIError maps OpenAI HTTP failures to the dispatcher's error kinds.
func classifyOpenAIError(err error) error {
	status := 0
	code := ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		if c, ok := apiErr.Code.(string); ok {
			code = c
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case code == "invalid_api_key", status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Derive(apperrors.ErrInvalidAPIKey, err)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable, status == http.StatusBadGateway:
		return apperrors.Derive(apperrors.ErrUpstreamOverload, err)
	case code == "model_not_found", status == http.StatusNotFound:
		return apperrors.Derive(apperrors.ErrModelNotAvailable, err)
	default:
		return apperrors.NewExternalAPIError(err, "openai")
	}
}
