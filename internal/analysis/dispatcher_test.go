package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

type reply struct {
	text string
	err  error
}

// fakeBackend answers each model from a script and records the calls.
type fakeBackend struct {
	replies  map[string]reply
	openErr  error
	opened   int
	closed   int
	calls    []string
	requests []Request
}

func (f *fakeBackend) Open(ctx context.Context, apiKey string) (Session, error) {
	f.opened++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f, nil
}

func (f *fakeBackend) Generate(ctx context.Context, model string, req Request) (string, error) {
	f.calls = append(f.calls, model)
	f.requests = append(f.requests, req)
	r, ok := f.replies[model]
	if !ok {
		return "", errors.New("unscripted model " + model)
	}
	return r.text, r.err
}

func (f *fakeBackend) Close() error {
	f.closed++
	return nil
}

const foodJSON = `{"is_food": true, "food_name": "beef noodles", "calories": 650, "protein": 32, "fat": 20, "carbs": 80, "advice": "ok"}`

func transient() error {
	return apperrors.Derive(apperrors.ErrUpstreamOverload, errors.New("503"))
}

func notFound() error {
	return apperrors.Derive(apperrors.ErrModelNotAvailable, errors.New("404"))
}

func badKey() error {
	return apperrors.Derive(apperrors.ErrInvalidAPIKey, errors.New("API_KEY_INVALID"))
}

func newTestDispatcher(b Backend, models ...string) (*Dispatcher, *[]time.Duration) {
	var waits []time.Duration
	d := NewDispatcher(b, WithModels(models...), WithLogger(logger.Discard()))
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		waits = append(waits, dur)
		return nil
	}
	return d, &waits
}

func TestDispatchFallsBackAcrossKinds(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{
		"A": {err: transient()},
		"B": {err: notFound()},
		"C": {text: "```json\n" + foodJSON + "\n```"},
	}}
	d, waits := newTestDispatcher(b, "A", "B", "C")

	res, err := d.AnalyzeText(context.Background(), "key", "a bowl of beef noodles")
	require.NoError(t, err)
	assert.Equal(t, "beef noodles", res.FoodName)
	assert.Equal(t, 650.0, res.Calories)
	assert.Equal(t, []string{"A", "B", "C"}, b.calls)
	assert.Equal(t, []time.Duration{time.Second}, *waits)
	assert.Equal(t, 1, b.closed)
}

func TestDispatchStopsAtFirstSuccess(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{"A": {text: foodJSON}}}
	d, waits := newTestDispatcher(b, "A", "B")

	_, err := d.AnalyzeText(context.Background(), "key", "noodles")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, b.calls)
	assert.Empty(t, *waits)
}

func TestDispatchAbortsOnInvalidCredential(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{
		"A": {err: badKey()},
		"B": {text: foodJSON},
	}}
	d, waits := newTestDispatcher(b, "A", "B")

	_, err := d.AnalyzeText(context.Background(), "key", "noodles")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidCredential))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAPIKey)
	assert.Equal(t, []string{"A"}, b.calls)
	assert.Empty(t, *waits)
}

func TestDispatchMissingKeyFailsFast(t *testing.T) {
	b := &fakeBackend{}
	d, _ := newTestDispatcher(b, "A")

	_, err := d.AnalyzeImage(context.Background(), "  ", []byte{0xff, 0xd8}, "image/jpeg")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingCredential))
	assert.Equal(t, 0, b.opened)
}

func TestDispatchExhaustedCarriesLastError(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{
		"A": {err: errors.New("connection reset")},
		"B": {text: "I think it is about 500 kcal"},
		"C": {err: transient()},
	}}
	d, waits := newTestDispatcher(b, "A", "B", "C")

	_, err := d.AnalyzeText(context.Background(), "key", "noodles")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAllModelsFailed)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamOverload, "last error is kept")
	assert.Equal(t, []string{"A", "B", "C"}, b.calls)
	assert.Empty(t, *waits, "no backoff after the last candidate")
}

func TestDispatchNotFoodIsSemanticRejection(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{
		"A": {text: `{"is_food": false, "food_name": "", "calories": 0}`},
		"B": {text: foodJSON},
	}}
	d, _ := newTestDispatcher(b, "A", "B")

	_, err := d.AnalyzeText(context.Background(), "key", "a red car")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSemantic))
	assert.Equal(t, "That doesn't look like food. Please try again.", apperrors.UserMessage(err))
	assert.Equal(t, []string{"A"}, b.calls)
}

func TestDispatchCancelledDuringBackoff(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{"A": {err: transient()}, "B": {text: foodJSON}}}
	d, _ := newTestDispatcher(b, "A", "B")
	d.sleep = func(ctx context.Context, dur time.Duration) error { return context.Canceled }

	_, err := d.AnalyzeText(context.Background(), "key", "noodles")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
	assert.Equal(t, []string{"A"}, b.calls)
}

func TestDispatchOpenFailure(t *testing.T) {
	d, _ := newTestDispatcher(&fakeBackend{openErr: badKey()}, "A")
	_, err := d.AnalyzeText(context.Background(), "key", "noodles")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidCredential))

	d, _ = newTestDispatcher(&fakeBackend{openErr: errors.New("dial tcp")}, "A")
	_, err = d.AnalyzeText(context.Background(), "key", "noodles")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestAnalyzeImageBuildsRequest(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{"A": {text: foodJSON}}}
	d, _ := newTestDispatcher(b, "A")

	_, err := d.AnalyzeImage(context.Background(), "key", []byte("img"), "")
	require.NoError(t, err)
	require.Len(t, b.requests, 1)
	assert.Equal(t, "image/jpeg", b.requests[0].MIMEType)
	assert.Equal(t, []byte("img"), b.requests[0].Image)
	assert.Contains(t, b.requests[0].Prompt, "Traditional Chinese")

	_, err = d.AnalyzeImage(context.Background(), "key", []byte("img"), "application/pdf")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	_, err = d.AnalyzeImage(context.Background(), "key", nil, "image/png")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAnalyzeTextPromptCarriesDescription(t *testing.T) {
	b := &fakeBackend{replies: map[string]reply{"A": {text: foodJSON}}}
	d, _ := newTestDispatcher(b, "A")
	d.language = "English"

	_, err := d.AnalyzeText(context.Background(), "key", `two eggs """ and toast`)
	require.NoError(t, err)
	assert.Contains(t, b.requests[0].Prompt, `two eggs " and toast`)
	assert.Contains(t, b.requests[0].Prompt, "English")
	assert.Empty(t, b.requests[0].Image)

	_, err = d.AnalyzeText(context.Background(), "key", "  ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
