package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
)

// Callback data
const (
	MainMenuData = "main_menu"
	LogMealData  = "log_meal"
	BarcodeData  = "barcode"
	TodayData    = "today"
	QuestsData   = "quests"
	HistoryData  = "history"
	SettingsData = "settings"
	SetKeyData   = "set_key"
	SetNameData  = "set_name"
	WeightData   = "weight"
	LogoutData   = "logout"
	CancelData   = "cancel"

	WaterPrefix = "water:"
	MealPrefix  = "meal:"
	GoalPrefix  = "goal:"
)

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽️ Log a meal", LogMealData),
			tgbotapi.NewInlineKeyboardButtonData("🏷️ Barcode", BarcodeData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Today", TodayData),
			tgbotapi.NewInlineKeyboardButtonData("🎯 Quests", QuestsData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💧 +250ml", WaterPrefix+"250"),
			tgbotapi.NewInlineKeyboardButtonData("💧 +500ml", WaterPrefix+"500"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 History", HistoryData),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", SettingsData),
		),
	)
}

// SettingsMenu creates the settings menu keyboard
func SettingsMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 API key", SetKeyData),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Name", SetNameData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Weight", WeightData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Cut", GoalPrefix+string(domain.GoalCut)),
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Maintain", GoalPrefix+string(domain.GoalMaintain)),
			tgbotapi.NewInlineKeyboardButtonData("💪 Bulk", GoalPrefix+string(domain.GoalBulk)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Log out", LogoutData),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", MainMenuData),
		),
	)
}

// MealMenu asks which meal a pending result belongs to.
func MealMenu() tgbotapi.InlineKeyboardMarkup {
	button := func(label string, m domain.MealType) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, MealPrefix+string(m))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🌅 Breakfast", domain.MealBreakfast),
			button("☀️ Lunch", domain.MealLunch),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🌙 Dinner", domain.MealDinner),
			button("🍪 Snack", domain.MealSnack),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Log now", MealPrefix),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Discard", CancelData),
		),
	)
}

// BackMenu is a single button back to the main menu.
func BackMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", MainMenuData),
		),
	)
}
