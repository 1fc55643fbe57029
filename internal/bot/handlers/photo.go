package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// maxPhotoBytes bounds what is read from Telegram's file server.
const maxPhotoBytes = 10 << 20

// PhotoHandler handles photo messages
type PhotoHandler struct {
	base
	client *http.Client
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(api API, deps Dependencies, stateManager state.StateManager) *PhotoHandler {
	return &PhotoHandler{
		base:   base{api: api, deps: deps, stateManager: stateManager},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Handle downloads the largest size of the photo and analyzes it. A caption
// is ignored; Telegram always re-encodes photos as JPEG.
func (h *PhotoHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	photo := message.Photo[len(message.Photo)-1]

	data, err := h.download(ctx, photo.FileID)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}

	processing, err := h.api.Send(tgbotapi.NewMessage(chatID, "🔍 Analyzing your photo..."))
	if err != nil {
		return fmt.Errorf("failed to send processing message: %w", err)
	}

	logger.Info("Starting food analysis", "user_id", userID, "bytes", len(data))
	result, err := h.deps.Analysis.AnalyzeImage(ctx, userID, data, "image/jpeg")

	if _, delErr := h.api.Request(tgbotapi.NewDeleteMessage(chatID, processing.MessageID)); delErr != nil {
		logger.Debug("Failed to delete processing message", "error", delErr)
	}
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}

	logger.Info("Food analysis completed", "user_id", userID, "food", result.FoodName)
	return h.stage(userID, chatID, result, domain.SourceImage)
}

func (h *PhotoHandler) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := h.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "telegram")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "telegram")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("file download returned %s", resp.Status), "telegram")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "telegram")
	}
	if len(data) > maxPhotoBytes {
		return nil, apperrors.NewValidationError("That photo is too large. Please send a smaller one.")
	}
	return data, nil
}
