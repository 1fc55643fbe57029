package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/keyboards"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/menus"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	base
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api API, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{base{api: api, deps: deps, stateManager: stateManager}}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer the callback query first
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}
	if query.Message == nil {
		return nil
	}
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case data == keyboards.MainMenuData:
		h.discard(userID)
		return h.sendDashboard(ctx, userID, chatID, "")
	case data == keyboards.LogMealData:
		h.stateManager.SetUserState(userID, state.WaitingForFood)
		return h.replyWith(chatID, "📷 Send a photo of your meal, or describe what you ate.", keyboards.BackMenu())
	case data == keyboards.BarcodeData:
		h.stateManager.SetUserState(userID, state.WaitingForBarcode)
		return h.replyWith(chatID, "🏷️ Send me the digits under the barcode.", keyboards.BackMenu())
	case data == keyboards.TodayData:
		logs, err := h.deps.Tracker.TodayLogs(ctx, userID)
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.replyWith(chatID, menus.FormatLogs("📒 Today", logs), keyboards.BackMenu())
	case data == keyboards.QuestsData:
		d, err := h.deps.Tracker.Dashboard(ctx, userID)
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.replyWith(chatID, menus.FormatQuests(d), keyboards.BackMenu())
	case data == keyboards.HistoryData:
		return sendHistory(ctx, &h.base, userID, chatID, defaultHistoryDays)
	case data == keyboards.SettingsData:
		d, err := h.deps.Tracker.Dashboard(ctx, userID)
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return menus.SendSettingsMenu(h.api, chatID, d)
	case data == keyboards.SetKeyData:
		h.stateManager.SetUserState(userID, state.WaitingForAPIKey)
		return h.replyWith(chatID, "🔑 Send me your Gemini API key. I will delete the message once it is saved.", keyboards.BackMenu())
	case data == keyboards.SetNameData:
		h.stateManager.SetUserState(userID, state.WaitingForName)
		return h.replyWith(chatID, "✏️ What should I call your character?", keyboards.BackMenu())
	case data == keyboards.WeightData:
		h.stateManager.SetUserState(userID, state.WaitingForWeight)
		return h.replyWith(chatID, "⚖️ What is your weight today, in kg?", keyboards.BackMenu())
	case data == keyboards.LogoutData:
		if err := h.deps.Tracker.Logout(ctx, userID); err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.reply(chatID, "👋 Logged out. Your progress is kept.")
	case data == keyboards.CancelData:
		h.discard(userID)
		return h.sendDashboard(ctx, userID, chatID, "Discarded.")
	case strings.HasPrefix(data, keyboards.WaterPrefix):
		ml, err := strconv.Atoi(strings.TrimPrefix(data, keyboards.WaterPrefix))
		if err != nil {
			return h.handleUnknownCallback(chatID)
		}
		return addWater(ctx, &h.base, userID, chatID, ml)
	case strings.HasPrefix(data, keyboards.MealPrefix):
		meal := domain.MealType(strings.TrimPrefix(data, keyboards.MealPrefix))
		return h.commit(ctx, userID, chatID, meal)
	case strings.HasPrefix(data, keyboards.GoalPrefix):
		goal := domain.Goal(strings.TrimPrefix(data, keyboards.GoalPrefix))
		targets, err := h.deps.Tracker.UpdateProfile(ctx, userID, domain.ProfilePatch{Goal: &goal})
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.reply(chatID, "🎯 Goal set to "+string(goal)+". Daily target: "+strconv.Itoa(targets.Calories)+" kcal")
	default:
		return h.handleUnknownCallback(chatID)
	}
}

// handleUnknownCallback handles unknown callbacks
func (h *CallbackHandler) handleUnknownCallback(chatID int64) error {
	return h.replyWith(chatID, "That button has expired.", keyboards.BackMenu())
}
