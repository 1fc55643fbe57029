package handlers

import (
	"context"
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/keyboards"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/menus"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/interfaces"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// API is the subset of *tgbotapi.BotAPI the handlers use
type API interface {
	menus.Sender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Tracker  interfaces.TrackerServiceInterface
	Analysis interfaces.AnalysisServiceInterface
	Errors   *apperrors.Handler
}

// pending is an analysis result waiting for the user to pick a meal.
type pending struct {
	Result domain.NutritionResult `json:"result"`
	Source domain.LogSource       `json:"source"`
}

// base carries what every handler needs to talk back to the user.
type base struct {
	api          API
	deps         Dependencies
	stateManager state.StateManager
}

func (b *base) reply(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *base) replyWith(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// replyError logs err by severity and tells the user what went wrong.
func (b *base) replyError(ctx context.Context, chatID int64, err error) error {
	if b.deps.Errors != nil {
		b.deps.Errors.Handle(ctx, err)
	}
	return b.replyWith(chatID, "⚠️ "+apperrors.UserMessage(err), keyboards.BackMenu())
}

// stage keeps result until the user confirms it with a meal choice.
func (b *base) stage(userID, chatID int64, result *domain.NutritionResult, source domain.LogSource) error {
	data, err := json.Marshal(pending{Result: *result, Source: source})
	if err != nil {
		return err
	}
	b.stateManager.SetTempData(userID, state.KeyPending, string(data))
	b.stateManager.SetUserState(userID, state.WaitingForMeal)
	return b.replyWith(chatID, menus.FormatResult(result), keyboards.MealMenu())
}

// commit logs the staged result under meal; an empty meal picks one by time of day.
func (b *base) commit(ctx context.Context, userID, chatID int64, meal domain.MealType) error {
	raw, ok := b.stateManager.TakeTempData(userID, state.KeyPending)
	if !ok {
		return b.replyWith(chatID, "There is nothing waiting to be logged.", keyboards.BackMenu())
	}
	var p pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		b.discard(userID)
		return b.replyError(ctx, chatID, apperrors.NewInternalError(err))
	}

	res, err := b.deps.Tracker.AddLog(ctx, userID, p.Result, meal, p.Source)
	if err != nil {
		// put it back so the user can pick another meal or retry
		b.stateManager.SetTempData(userID, state.KeyPending, raw)
		return b.replyError(ctx, chatID, err)
	}
	b.discard(userID)
	logger.Info("Meal logged from chat", "user_id", userID, "meal", res.Entry.MealType)

	text := "✅ Logged " + res.Entry.FoodName + " as " + string(res.Entry.MealType) + "."
	if extra := menus.FormatOutcome(res.Outcome); extra != "" {
		text += "\n\n" + extra
	}
	return b.sendDashboard(ctx, userID, chatID, text)
}

func (b *base) discard(userID int64) {
	b.stateManager.ClearTempData(userID)
	b.stateManager.SetUserState(userID, state.None)
}

// sendDashboard sends an optional note followed by the main menu.
func (b *base) sendDashboard(ctx context.Context, userID, chatID int64, note string) error {
	if note != "" {
		if err := b.reply(chatID, note); err != nil {
			return err
		}
	}
	d, err := b.deps.Tracker.Dashboard(ctx, userID)
	if err != nil {
		return b.replyError(ctx, chatID, err)
	}
	return menus.SendMainMenu(b.api, chatID, d)
}
