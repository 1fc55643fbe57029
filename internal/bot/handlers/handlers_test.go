package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/diary"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
	"github.com/vladimiradmaev/diet-rpg/internal/progression"
	"github.com/vladimiradmaev/diet-rpg/internal/repository"
	"github.com/vladimiradmaev/diet-rpg/internal/services"
	"github.com/vladimiradmaev/diet-rpg/internal/utils"
)

type fakeAPI struct {
	mu       sync.Mutex
	texts    []string
	requests []tgbotapi.Chattable
	fileURL  string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{MessageID: len(f.texts) + 100}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeAPI) all() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.texts, "\n---\n")
}

type stubAnalyzer struct {
	res   *domain.NutritionResult
	err   error
	bytes int
}

func (s *stubAnalyzer) AnalyzeImage(ctx context.Context, apiKey string, data []byte, mimeType string) (*domain.NutritionResult, error) {
	s.bytes = len(data)
	return s.res, s.err
}

func (s *stubAnalyzer) AnalyzeText(ctx context.Context, apiKey, text string) (*domain.NutritionResult, error) {
	return s.res, s.err
}

type stubBarcode struct{}

func (stubBarcode) Lookup(ctx context.Context, code string) (*domain.NutritionResult, error) {
	if code == "0000000000000" {
		return nil, apperrors.Derive(apperrors.ErrProductNotFound, nil)
	}
	return &domain.NutritionResult{IsFood: true, FoodName: "Cola", Calories: 139}, nil
}

type harness struct {
	api      *fakeAPI
	tracker  *services.TrackerService
	analyzer *stubAnalyzer
	states   *state.Manager
	handler  *UpdateHandler
}

const (
	userID = int64(42)
	chatID = int64(4242)
)

func newHarness() *harness {
	clock := &utils.FixedClock{T: time.Date(2024, 5, 14, 4, 0, 0, 0, time.UTC)}
	engine := progression.NewEngine(clock)
	h := &harness{
		api:      &fakeAPI{},
		analyzer: &stubAnalyzer{res: &domain.NutritionResult{IsFood: true, FoodName: "rice", Calories: 200, Protein: 4}},
		states:   state.NewManager(),
	}
	h.tracker = services.NewTrackerService(repository.NewMemoryStateRepository(), engine,
		diary.NewLedger(engine), h.analyzer, stubBarcode{}, nil, "")
	deps := Dependencies{Tracker: h.tracker, Analysis: h.tracker, Errors: apperrors.NewHandler(logger.Discard())}
	h.handler = NewUpdateHandler(h.api, deps, h.states)
	return h
}

func message(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func (h *harness) send(t *testing.T, u tgbotapi.Update) {
	t.Helper()
	require.NoError(t, h.handler.Handle(context.Background(), u))
}

func TestStartShowsDashboard(t *testing.T) {
	h := newHarness()
	h.send(t, message("/start"))

	out := h.api.all()
	assert.Contains(t, out, "Adventurer · Lv.1")
	assert.Contains(t, out, "Set your Gemini API key")
}

func TestDescribeThenPickMeal(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.send(t, message("a bowl of rice"))
	assert.Equal(t, state.WaitingForMeal, h.states.GetUserState(userID))
	assert.Contains(t, h.api.all(), "Which meal is this?")

	h.send(t, callback("meal:dinner"))
	assert.Contains(t, h.api.all(), "✅ Logged rice as dinner.")
	assert.Equal(t, state.None, h.states.GetUserState(userID))
	_, pending := h.states.GetTempData(userID, state.KeyPending)
	assert.False(t, pending)

	logs, err := h.tracker.TodayLogs(ctx, userID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.MealType("dinner"), logs[0].MealType)
	assert.Equal(t, domain.SourceText, logs[0].Source)
}

func TestLogNowUsesTimeOfDay(t *testing.T) {
	h := newHarness()
	h.send(t, message("/add 350 rice bowl"))
	h.send(t, callback("meal:"))

	logs, err := h.tracker.TodayLogs(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "rice bowl", logs[0].FoodName)
	assert.Equal(t, domain.MealType("lunch"), logs[0].MealType, "noon in Taipei")
	assert.Equal(t, domain.SourceManual, logs[0].Source)
}

func TestMealWithoutPendingResult(t *testing.T) {
	h := newHarness()
	h.send(t, callback("meal:lunch"))
	assert.Contains(t, h.api.all(), "There is nothing waiting to be logged.")
}

func TestNotFoodIsReported(t *testing.T) {
	h := newHarness()
	h.analyzer.res = nil
	h.analyzer.err = apperrors.Derive(apperrors.ErrNotFood, nil)

	h.send(t, message("my keyboard"))
	assert.Contains(t, h.api.all(), "That doesn't look like food.")
	_, pending := h.states.GetTempData(userID, state.KeyPending)
	assert.False(t, pending)
}

func TestAPIKeyMessageIsDeleted(t *testing.T) {
	h := newHarness()
	h.send(t, callback("set_key"))
	assert.Equal(t, state.WaitingForAPIKey, h.states.GetUserState(userID))

	h.send(t, message("AIza-secret"))
	assert.Contains(t, h.api.all(), "API key saved")
	assert.Equal(t, state.None, h.states.GetUserState(userID))

	var deleted bool
	for _, r := range h.api.requests {
		if d, ok := r.(tgbotapi.DeleteMessageConfig); ok && d.MessageID == 7 {
			deleted = true
		}
	}
	assert.True(t, deleted)

	d, err := h.tracker.Dashboard(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, d.HasAPIKey)
}

func TestWeightPrompt(t *testing.T) {
	h := newHarness()
	h.send(t, callback("weight"))
	h.send(t, message("heavy"))
	assert.Contains(t, h.api.all(), "Please enter a number")
	assert.Equal(t, state.WaitingForWeight, h.states.GetUserState(userID))

	h.send(t, message("58.4kg"))
	assert.Contains(t, h.api.all(), "Weight recorded: 58.4 kg")

	d, err := h.tracker.Dashboard(context.Background(), userID)
	require.NoError(t, err)
	assert.InDelta(t, 58.4, d.Profile.WeightKG, 1e-9)
}

func TestWaterButton(t *testing.T) {
	h := newHarness()
	h.send(t, callback("water:500"))
	assert.Contains(t, h.api.all(), "💧 +500ml (500 / 1650ml)")

	h.send(t, callback("water:-5"))
	assert.Contains(t, h.api.all(), "⚠️")
}

func TestBarcodeFlow(t *testing.T) {
	h := newHarness()
	h.send(t, message("/barcode 0000000000000"))
	assert.Contains(t, h.api.all(), "No product found")

	h.send(t, message("/barcode 5449000000996"))
	assert.Contains(t, h.api.all(), "Cola")
	assert.Equal(t, state.WaitingForMeal, h.states.GetUserState(userID))

	h.send(t, callback("meal:snack"))
	logs, err := h.tracker.TodayLogs(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SourceBarcode, logs[0].Source)
}

func TestPhotoIsDownloadedAndAnalyzed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	h := newHarness()
	h.api.fileURL = srv.URL + "/photo.jpg"
	u := message("")
	u.Message.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}

	h.send(t, u)
	assert.Equal(t, len("jpeg-bytes"), h.analyzer.bytes)
	assert.Equal(t, state.WaitingForMeal, h.states.GetUserState(userID))
}

func TestSetName(t *testing.T) {
	h := newHarness()
	h.send(t, callback("set_name"))
	h.send(t, message("Mei"))

	assert.Contains(t, h.api.all(), "Mei · Lv.1")
}

func TestUnknownInputs(t *testing.T) {
	h := newHarness()
	h.send(t, message("/dance"))
	h.send(t, callback("nonsense"))

	out := h.api.all()
	assert.Contains(t, out, "Unknown command")
	assert.Contains(t, out, "That button has expired.")
}

func TestParseProfileField(t *testing.T) {
	patch, err := ParseProfileField("age", "31")
	require.NoError(t, err)
	require.NotNil(t, patch.Age)
	assert.Equal(t, 31, *patch.Age)

	patch, err = ParseProfileField("activity", "1.55")
	require.NoError(t, err)
	require.NotNil(t, patch.ActivityLevel)
	assert.InDelta(t, 1.55, *patch.ActivityLevel, 1e-9)

	patch, err = ParseProfileField("goal", "BULK")
	require.NoError(t, err)
	assert.Equal(t, domain.GoalBulk, *patch.Goal)

	for _, tc := range [][2]string{{"goal", "shred"}, {"age", "old"}, {"height", ""}, {"eyes", "brown"}} {
		_, err := ParseProfileField(tc[0], tc[1])
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), tc[0])
	}
}

func TestDoubleTapLogsOnce(t *testing.T) {
	h := newHarness()
	h.send(t, message("a bowl of rice"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.handler.Handle(context.Background(), callback("meal:dinner")))
		}()
	}
	wg.Wait()

	logs, err := h.tracker.TodayLogs(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Contains(t, h.api.all(), "There is nothing waiting to be logged.")
}

func TestFailedCommitKeepsPendingResult(t *testing.T) {
	h := newHarness()
	h.send(t, message("a bowl of rice"))

	h.send(t, callback("meal:brunch"))
	assert.Contains(t, h.api.all(), "unknown meal type")
	_, pending := h.states.GetTempData(userID, state.KeyPending)
	assert.True(t, pending)

	h.send(t, callback("meal:lunch"))
	logs, err := h.tracker.TodayLogs(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.MealType("lunch"), logs[0].MealType)
}

func TestNonFiniteNumbersAreRefused(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.send(t, message("/add NaN rice"))
	h.send(t, message("/add inf rice"))
	h.send(t, message("/weight NaN"))
	h.send(t, message("/weight +Inf"))
	h.send(t, message("/profile height inf"))
	h.send(t, message("/profile activity NaN"))

	_, pending := h.states.GetTempData(userID, state.KeyPending)
	assert.False(t, pending)

	d, err := h.tracker.Dashboard(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, d.Profile.WeightKG)
	assert.Equal(t, 160.0, d.Profile.HeightCM)
	assert.Equal(t, 1.2, d.Profile.ActivityLevel)
	assert.Equal(t, 1457, d.Targets.Calories)

	weights, err := h.tracker.WeightHistory(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, weights)
}

func TestHistoryShowsWeightTrend(t *testing.T) {
	h := newHarness()
	h.send(t, message("/weight 58.4"))
	h.send(t, message("/history 3"))

	out := h.api.all()
	assert.Contains(t, out, "📈 History")
	assert.Contains(t, out, "⚖️ Weight\n2024-05-14  58.4 kg")
}

func TestProfileChangesSettings(t *testing.T) {
	h := newHarness()
	h.send(t, message("/profile theme light"))
	h.send(t, message("/profile notifications off"))
	h.send(t, message("/profile theme neon"))

	out := h.api.all()
	assert.Contains(t, out, "✅ Settings updated.")
	assert.Contains(t, out, "theme must be dark or light")

	d, err := h.tracker.Dashboard(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, d.Theme)
	assert.False(t, d.Notifications)
}
