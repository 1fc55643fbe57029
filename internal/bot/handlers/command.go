package handlers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/keyboards"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/menus"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

const (
	defaultWaterML     = 250
	defaultHistoryDays = 7
	maxHistoryDays     = 31
	recentLimit        = 10
)

const helpText = `Available commands:
/start - Show your character and the main menu
/today - Today's diary
/quests - Daily quests
/water [ml] - Drink water (default 250)
/weight <kg> - Record your weight
/add <kcal> <food> - Log food by hand
/barcode <code> - Look up a packaged product
/recent - Recent entries
/delete <id> - Delete an entry
/history [days] - Daily totals and weight trend
/profile [field value] - Show or edit your profile and settings
/key <api key> - Set your Gemini API key
/logout - Forget your key and name
/version - Release notes

Send a food photo or describe what you ate to log a meal.`

// CommandHandler handles bot commands
type CommandHandler struct {
	base
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api API, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{base{api: api, deps: deps, stateManager: stateManager}}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())
	logger.Debug("Handling command", "command", message.Command(), "user_id", userID)

	switch message.Command() {
	case "start", "menu":
		h.discard(userID)
		return h.sendDashboard(ctx, userID, chatID, "")
	case "help":
		return h.reply(chatID, helpText)
	case "cancel":
		h.discard(userID)
		return h.sendDashboard(ctx, userID, chatID, "Cancelled.")
	case "today":
		return h.handleToday(ctx, userID, chatID)
	case "quests":
		d, err := h.deps.Tracker.Dashboard(ctx, userID)
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.replyWith(chatID, menus.FormatQuests(d), keyboards.BackMenu())
	case "water":
		return h.handleWater(ctx, userID, chatID, args)
	case "weight":
		return h.handleWeight(ctx, userID, chatID, args)
	case "add":
		return h.handleAdd(ctx, userID, chatID, args)
	case "barcode":
		return h.handleBarcode(ctx, userID, chatID, args)
	case "recent":
		logs, err := h.deps.Tracker.RecentLogs(ctx, userID, recentLimit)
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.replyWith(chatID, menus.FormatLogs("🕘 Recent entries", logs), keyboards.BackMenu())
	case "delete":
		return h.handleDelete(ctx, userID, chatID, args)
	case "history":
		return h.handleHistory(ctx, userID, chatID, args)
	case "profile":
		return h.handleProfile(ctx, userID, chatID, args)
	case "key":
		if args == "" {
			h.stateManager.SetUserState(userID, state.WaitingForAPIKey)
			return h.reply(chatID, "Send me your Gemini API key.")
		}
		return saveAPIKey(ctx, &h.base, userID, chatID, message.MessageID, args)
	case "logout":
		if err := h.deps.Tracker.Logout(ctx, userID); err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.reply(chatID, "👋 Logged out. Your progress is kept.")
	case "version":
		return h.reply(chatID, menus.FormatChangelog(domain.Changelog))
	default:
		return h.reply(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (h *CommandHandler) handleToday(ctx context.Context, userID, chatID int64) error {
	logs, err := h.deps.Tracker.TodayLogs(ctx, userID)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	return h.sendDashboard(ctx, userID, chatID, menus.FormatLogs("📒 Today", logs))
}

func (h *CommandHandler) handleWater(ctx context.Context, userID, chatID int64, args string) error {
	ml := defaultWaterML
	if args != "" {
		n, err := strconv.Atoi(strings.TrimSuffix(args, "ml"))
		if err != nil {
			return h.reply(chatID, "Please give the amount in ml, for example /water 300")
		}
		ml = n
	}
	return addWater(ctx, &h.base, userID, chatID, ml)
}

// addWater is shared by the /water command and the water buttons.
func addWater(ctx context.Context, b *base, userID, chatID int64, ml int) error {
	out, d, err := b.deps.Tracker.AddWater(ctx, userID, ml)
	if err != nil {
		return b.replyError(ctx, chatID, err)
	}
	text := fmt.Sprintf("💧 +%dml (%d / %dml)", ml, d.Game.WaterIntakeML, d.WaterGoal)
	if extra := menus.FormatOutcome(out); extra != "" {
		text += "\n\n" + extra
	}
	return b.reply(chatID, text)
}

func (h *CommandHandler) handleWeight(ctx context.Context, userID, chatID int64, args string) error {
	if args == "" {
		h.stateManager.SetUserState(userID, state.WaitingForWeight)
		return h.reply(chatID, "What is your weight today, in kg?")
	}
	return recordWeight(ctx, &h.base, userID, chatID, args)
}

func recordWeight(ctx context.Context, b *base, userID, chatID int64, text string) error {
	kg, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(text), "kg"), 64)
	if err != nil {
		return b.reply(chatID, "Please enter a number, for example 58.4")
	}
	if err := b.deps.Tracker.RecordWeight(ctx, userID, kg); err != nil {
		return b.replyError(ctx, chatID, err)
	}
	b.stateManager.SetUserState(userID, state.None)
	return b.reply(chatID, fmt.Sprintf("⚖️ Weight recorded: %.1f kg", kg))
}

// handleAdd logs "<kcal> <food name>" directly, without analysis.
func (h *CommandHandler) handleAdd(ctx context.Context, userID, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return h.reply(chatID, "Usage: /add <kcal> <food>, for example /add 350 rice bowl")
	}
	kcal, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || !(kcal >= 0) || math.IsInf(kcal, 0) {
		return h.reply(chatID, "Calories must be a number, for example /add 350 rice bowl")
	}
	result := &domain.NutritionResult{
		IsFood:   true,
		FoodName: strings.Join(fields[1:], " "),
		Calories: kcal,
	}
	return h.stage(userID, chatID, result, domain.SourceManual)
}

func (h *CommandHandler) handleBarcode(ctx context.Context, userID, chatID int64, args string) error {
	if args == "" {
		h.stateManager.SetUserState(userID, state.WaitingForBarcode)
		return h.reply(chatID, "Send me the digits under the barcode.")
	}
	return lookupBarcode(ctx, &h.base, userID, chatID, args)
}

func lookupBarcode(ctx context.Context, b *base, userID, chatID int64, code string) error {
	result, err := b.deps.Analysis.LookupBarcode(ctx, code)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			b.stateManager.SetUserState(userID, state.None)
			return b.replyWith(chatID, "🏷️ No product found for that barcode. Try a photo instead.", keyboards.BackMenu())
		}
		return b.replyError(ctx, chatID, err)
	}
	return b.stage(userID, chatID, result, domain.SourceBarcode)
}

func (h *CommandHandler) handleDelete(ctx context.Context, userID, chatID int64, id string) error {
	if id == "" {
		return h.reply(chatID, "Usage: /delete <id>. Use /recent to see entry ids.")
	}
	removed, err := h.deps.Tracker.RemoveLog(ctx, userID, id)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	if !removed {
		return h.reply(chatID, "No entry with that id.")
	}
	return h.reply(chatID, "🗑️ Entry deleted.")
}

func (h *CommandHandler) handleHistory(ctx context.Context, userID, chatID int64, args string) error {
	days := defaultHistoryDays
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return h.reply(chatID, "Usage: /history [days]")
		}
		days = n
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}
	return sendHistory(ctx, &h.base, userID, chatID, days)
}

// sendHistory shows daily totals followed by the weight trend over the same window.
func sendHistory(ctx context.Context, b *base, userID, chatID int64, days int) error {
	history, err := b.deps.Tracker.History(ctx, userID, days)
	if err != nil {
		return b.replyError(ctx, chatID, err)
	}
	weights, err := b.deps.Tracker.WeightHistory(ctx, userID)
	if err != nil {
		return b.replyError(ctx, chatID, err)
	}
	if len(history) > 0 {
		from := history[0].Date
		i := 0
		for i < len(weights) && weights[i].Date < from {
			i++
		}
		weights = weights[i:]
	}
	return b.replyWith(chatID, menus.FormatHistory(history)+"\n\n"+menus.FormatWeights(weights), keyboards.BackMenu())
}

func (h *CommandHandler) handleProfile(ctx context.Context, userID, chatID int64, args string) error {
	if args == "" {
		d, err := h.deps.Tracker.Dashboard(ctx, userID)
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return menus.SendSettingsMenu(h.api, chatID, d)
	}

	field, value, _ := strings.Cut(args, " ")
	field = strings.ToLower(field)
	if field == "theme" || field == "notifications" {
		patch, err := ParseSettingsField(field, strings.TrimSpace(value))
		if err != nil {
			return h.replyError(ctx, chatID, err)
		}
		if err := h.deps.Tracker.UpdateSettings(ctx, userID, patch); err != nil {
			return h.replyError(ctx, chatID, err)
		}
		return h.reply(chatID, "✅ Settings updated.")
	}
	patch, err := ParseProfileField(field, strings.TrimSpace(value))
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	targets, err := h.deps.Tracker.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	return h.reply(chatID, fmt.Sprintf("✅ Profile updated. New target: %d kcal, protein %dg, fat %dg, carbs %dg",
		targets.Calories, targets.Protein, targets.Fat, targets.Carbs))
}

// ParseProfileField turns "/profile <field> <value>" into a patch.
func ParseProfileField(field, value string) (domain.ProfilePatch, error) {
	var patch domain.ProfilePatch
	if value == "" {
		return patch, apperrors.NewValidationError("Usage: /profile <field> <value>")
	}
	switch field {
	case "name":
		patch.Name = &value
	case "gender":
		g := domain.Gender(strings.ToLower(value))
		patch.Gender = &g
	case "goal":
		g := domain.Goal(strings.ToLower(value))
		if g != domain.GoalCut && g != domain.GoalMaintain && g != domain.GoalBulk {
			return patch, apperrors.NewValidationError("goal must be cut, maintain or bulk")
		}
		patch.Goal = &g
	case "age":
		n, err := strconv.Atoi(value)
		if err != nil {
			return patch, apperrors.NewValidationError("age must be a whole number")
		}
		patch.Age = &n
	case "height", "weight", "activity":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return patch, apperrors.NewValidationError(field + " must be a number")
		}
		switch field {
		case "height":
			patch.HeightCM = &f
		case "weight":
			patch.WeightKG = &f
		default:
			patch.ActivityLevel = &f
		}
	default:
		return patch, apperrors.NewValidationError("unknown field " + field + "; use name, gender, age, height, weight, activity or goal")
	}
	return patch, nil
}

// ParseSettingsField turns "/profile theme light" or "/profile notifications off" into a patch.
func ParseSettingsField(field, value string) (domain.SettingsPatch, error) {
	var patch domain.SettingsPatch
	value = strings.ToLower(value)
	switch field {
	case "theme":
		if value != domain.ThemeDark && value != domain.ThemeLight {
			return patch, apperrors.NewValidationError("theme must be dark or light")
		}
		patch.Theme = &value
	case "notifications":
		var on bool
		switch value {
		case "on", "true", "yes":
			on = true
		case "off", "false", "no":
		default:
			return patch, apperrors.NewValidationError("notifications must be on or off")
		}
		patch.Notifications = &on
	default:
		return patch, apperrors.NewValidationError("unknown setting " + field)
	}
	return patch, nil
}

// saveAPIKey stores the key and deletes the message that carried it.
func saveAPIKey(ctx context.Context, b *base, userID, chatID int64, messageID int, key string) error {
	if err := b.deps.Tracker.SetAPIKey(ctx, userID, key); err != nil {
		return b.replyError(ctx, chatID, err)
	}
	b.stateManager.SetUserState(userID, state.None)
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		logger.Warn("Failed to delete API key message", "user_id", userID, "error", err)
	}
	return b.reply(chatID, "🔑 API key saved. Send a food photo to try it.")
}
