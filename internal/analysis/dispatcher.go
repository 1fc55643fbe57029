package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// DefaultBackoff is the pause after an overloaded model before trying the next.
const DefaultBackoff = time.Second

// Request is one analysis job sent to a model.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// Backend opens model sessions for an API key.
//
// Errors returned by Open and Session.Generate must be classified as
// *errors.AppError with one of the boundary types (transient_upstream,
// not_found, invalid_credential); anything else is treated as a plain
// per-model failure.
type Backend interface {
	Open(ctx context.Context, apiKey string) (Session, error)
}

// Session sends requests to named models.
type Session interface {
	Generate(ctx context.Context, model string, req Request) (string, error)
	Close() error
}

// Dispatcher tries each model in order until one returns food.
type Dispatcher struct {
	backend  Backend
	models   []string
	backoff  time.Duration
	language string
	provider string
	log      *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Dispatcher)

func WithModels(models ...string) Option {
	return func(d *Dispatcher) {
		if len(models) > 0 {
			d.models = append([]string(nil), models...)
		}
	}
}

func WithBackoff(backoff time.Duration) Option {
	return func(d *Dispatcher) { d.backoff = backoff }
}

// WithLanguage sets the language food names and advice are written in.
func WithLanguage(language string) Option {
	return func(d *Dispatcher) {
		if language != "" {
			d.language = language
		}
	}
}

// WithProvider names the backend in errors and logs.
func WithProvider(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.provider = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func NewDispatcher(backend Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:  backend,
		models:   []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-flash-latest"},
		backoff:  DefaultBackoff,
		language: "Traditional Chinese",
		provider: "gemini",
		log:      logger.GetLogger(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Models returns the candidate order.
func (d *Dispatcher) Models() []string {
	return append([]string(nil), d.models...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// AnalyzeImage estimates nutrition for a photo.
func (d *Dispatcher) AnalyzeImage(ctx context.Context, apiKey string, data []byte, mimeType string) (*domain.NutritionResult, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, apperrors.NewValidationError("unsupported file type " + mimeType)
	}
	return d.dispatch(ctx, "image", apiKey, Request{
		Prompt:   imagePrompt(d.language),
		Image:    data,
		MIMEType: mimeType,
	})
}

// AnalyzeText estimates nutrition for a free-text description.
func (d *Dispatcher) AnalyzeText(ctx context.Context, apiKey, text string) (*domain.NutritionResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("description is empty")
	}
	return d.dispatch(ctx, "text", apiKey, Request{Prompt: textPrompt(d.language, text)})
}

// dispatch walks the model list. An answer with is_food=false is a verdict
// about the input rather than a model failure, so it is returned as a
// semantic rejection at once and later models are not asked.
func (d *Dispatcher) dispatch(ctx context.Context, kind, apiKey string, req Request) (*domain.NutritionResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.Derive(apperrors.ErrMissingAPIKey, nil)
	}

	session, err := d.backend.Open(ctx, apiKey)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeInvalidCredential) {
			return nil, err
		}
		return nil, apperrors.NewExternalAPIError(err, d.provider)
	}
	defer session.Close()

	var lastErr error
	for i, model := range d.models {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeTimeout, "TIMEOUT", "analysis cancelled")
		}
		log := d.log.With("analysis", kind, "provider", d.provider, "model", model, "attempt", i+1)
		log.Info("Trying model")

		result, err := d.try(ctx, session, model, req)
		if err == nil {
			if !result.IsFood {
				log.Info("Model says this is not food")
				return nil, apperrors.Derive(apperrors.ErrNotFood, nil).WithContext("model", model)
			}
			log.Info("Model responded", "food", result.FoodName)
			return result, nil
		}

		lastErr = err
		log.Warn("Model failed", "error", err, "kind", apperrors.TypeOf(err))

		switch apperrors.TypeOf(err) {
		case apperrors.ErrorTypeInvalidCredential:
			return nil, apperrors.Derive(apperrors.ErrInvalidAPIKey, err)
		case apperrors.ErrorTypeTransient:
			if i == len(d.models)-1 {
				break
			}
			log.Info("Upstream busy, backing off before next model", "backoff", d.backoff)
			if err := d.sleep(ctx, d.backoff); err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrorTypeTimeout, "TIMEOUT", "analysis cancelled")
			}
		case apperrors.ErrorTypeNotFound:
			// next model right away
		}
	}

	return nil, apperrors.Derive(apperrors.ErrAllModelsFailed, lastErr).
		WithContext("models", strings.Join(d.models, ","))
}

func (d *Dispatcher) try(ctx context.Context, session Session, model string, req Request) (*domain.NutritionResult, error) {
	text, err := session.Generate(ctx, model, req)
	if err != nil {
		return nil, err
	}
	return parseResult(text)
}
