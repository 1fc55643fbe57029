package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// TextHandler handles text messages
type TextHandler struct {
	base
}

// NewTextHandler creates a new text handler
func NewTextHandler(api API, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{base{api: api, deps: deps, stateManager: stateManager}}
}

// Handle processes a text message according to what the user was asked last.
// Free text outside any prompt is treated as a meal description.
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch h.stateManager.GetUserState(userID) {
	case state.WaitingForAPIKey:
		return saveAPIKey(ctx, &h.base, userID, chatID, message.MessageID, text)
	case state.WaitingForBarcode:
		return lookupBarcode(ctx, &h.base, userID, chatID, text)
	case state.WaitingForWeight:
		return recordWeight(ctx, &h.base, userID, chatID, text)
	case state.WaitingForName:
		return h.handleName(ctx, userID, chatID, text)
	default:
		return h.handleDescription(ctx, userID, chatID, text)
	}
}

func (h *TextHandler) handleName(ctx context.Context, userID, chatID int64, name string) error {
	if _, err := h.deps.Tracker.UpdateProfile(ctx, userID, domain.ProfilePatch{Name: &name}); err != nil {
		return h.replyError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	return h.sendDashboard(ctx, userID, chatID, "✏️ Nice to meet you, "+name+"!")
}

func (h *TextHandler) handleDescription(ctx context.Context, userID, chatID int64, text string) error {
	if err := h.reply(chatID, "🔍 Estimating nutrition..."); err != nil {
		return err
	}
	result, err := h.deps.Analysis.AnalyzeText(ctx, userID, text)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	logger.Info("Text analysis completed", "user_id", userID, "food", result.FoodName)
	return h.stage(userID, chatID, result, domain.SourceText)
}
