package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/diet-rpg/internal/bot/keyboards"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/progression"
	"github.com/vladimiradmaev/diet-rpg/internal/services"
	"github.com/vladimiradmaev/diet-rpg/internal/utils"
)

// Sender is the part of the Telegram API used to send messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendMainMenu sends the character sheet with the main menu
func SendMainMenu(api Sender, chatID int64, d *services.Dashboard) error {
	msg := tgbotapi.NewMessage(chatID, FormatDashboard(d))
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendSettingsMenu sends the settings menu to a chat
func SendSettingsMenu(api Sender, chatID int64, d *services.Dashboard) error {
	msg := tgbotapi.NewMessage(chatID, FormatProfile(d))
	msg.ReplyMarkup = keyboards.SettingsMenu()
	_, err := api.Send(msg)
	return err
}

func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

// FormatDashboard renders level, XP and today's intake against targets.
func FormatDashboard(d *services.Dashboard) string {
	name := d.Profile.Name
	if name == "" {
		name = "Adventurer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧙 %s · Lv.%d\n", name, d.Game.Level)
	fmt.Fprintf(&b, "XP %s %d/%d\n", progressBar(d.XPProgress, 10), d.Game.CurrentXP, d.XPRequired)
	fmt.Fprintf(&b, "🔥 Streak: %d day(s)\n\n", d.Game.Streak)
	fmt.Fprintf(&b, "🍽️ %.0f / %d kcal\n", d.Today.Calories, d.Targets.Calories)
	fmt.Fprintf(&b, "🥩 Protein %.0f / %dg\n", d.Today.Protein, d.Targets.Protein)
	fmt.Fprintf(&b, "🧈 Fat %.0f / %dg\n", d.Today.Fat, d.Targets.Fat)
	fmt.Fprintf(&b, "🍚 Carbs %.0f / %dg\n", d.Today.Carbs, d.Targets.Carbs)
	fmt.Fprintf(&b, "💧 Water %d / %dml", d.Game.WaterIntakeML, d.WaterGoal)
	if !d.HasAPIKey {
		b.WriteString("\n\n🔑 Set your Gemini API key in ⚙️ Settings to scan food.")
	}
	return b.String()
}

// FormatQuests lists today's quests with their state.
func FormatQuests(d *services.Dashboard) string {
	var b strings.Builder
	b.WriteString("🎯 Daily quests\n")
	for _, q := range d.Game.DailyQuests.Items {
		mark := "⬜"
		if q.Completed {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%s %s (+%d XP)\n   %s", mark, q.Title, q.XPReward, q.Description)
	}
	return b.String()
}

// FormatProfile renders the profile and its derived targets.
func FormatProfile(d *services.Dashboard) string {
	p := d.Profile
	key := "not set"
	if d.HasAPIKey {
		key = "set"
	}
	notify := "off"
	if d.Notifications {
		notify = "on"
	}
	return fmt.Sprintf("⚙️ Settings\n\nName: %s\nGender: %s\nAge: %d\nHeight: %.0f cm\nWeight: %.1f kg\nActivity: %.2f\nGoal: %s\nAPI key: %s\nTheme: %s\nNotifications: %s\n\nTDEE %d kcal · target %d kcal\n\nEdit with /profile <field> <value>, fields: name, gender, age, height, weight, activity, goal, theme, notifications",
		p.Name, p.Gender, p.Age, p.HeightCM, p.WeightKG, p.ActivityLevel, p.Goal, key, d.Theme, notify,
		progression.TDEE(p), d.Targets.Calories)
}

// FormatResult shows an analysis result awaiting confirmation.
func FormatResult(r *domain.NutritionResult) string {
	text := fmt.Sprintf("🍽️ %s\n\n🔥 %.0f kcal\n🥩 Protein %.0fg\n🧈 Fat %.0fg\n🍚 Carbs %.0fg",
		r.FoodName, r.Calories, r.Protein, r.Fat, r.Carbs)
	if r.Advice != "" {
		text += "\n\n💡 " + r.Advice
	}
	return text + "\n\nWhich meal is this?"
}

// FormatOutcome describes quests completed and levels gained, or "" for none.
func FormatOutcome(o progression.Outcome) string {
	var parts []string
	if len(o.CompletedQuests) > 0 {
		parts = append(parts, fmt.Sprintf("🎯 Quest complete: %s (+%d XP)", strings.Join(o.CompletedQuests, ", "), o.XPAwarded))
	}
	for _, lvl := range o.LevelUps {
		parts = append(parts, fmt.Sprintf("🎉 Level up! You are now level %d", lvl))
	}
	return strings.Join(parts, "\n")
}

// FormatLogs lists diary entries with their IDs for /delete.
func FormatLogs(title string, logs []domain.DiaryLog) string {
	if len(logs) == 0 {
		return title + "\n\nNothing logged yet."
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for _, l := range logs {
		fmt.Fprintf(&b, "\n%s %s · %s · %.0f kcal\n   /delete %s",
			l.Timestamp.In(utils.Taipei).Format("01-02 15:04"), l.MealType, l.FoodName, l.Calories, l.ID)
	}
	return b.String()
}

// FormatHistory renders one line per day.
func FormatHistory(days []domain.DaySummary) string {
	var b strings.Builder
	b.WriteString("📈 History")
	for _, d := range days {
		fmt.Fprintf(&b, "\n%s  %5.0f kcal  P%.0f F%.0f C%.0f  (%d)",
			d.Date, d.Summary.Calories, d.Summary.Protein, d.Summary.Fat, d.Summary.Carbs, d.Entries)
	}
	return b.String()
}

// FormatWeights renders the weight trend with the change since the previous entry.
func FormatWeights(entries []domain.WeightEntry) string {
	if len(entries) == 0 {
		return "⚖️ Weight\n\nNo weight recorded yet. Use /weight <kg>."
	}
	var b strings.Builder
	b.WriteString("⚖️ Weight")
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%s  %.1f kg", e.Date, e.WeightKG)
		if i > 0 {
			fmt.Fprintf(&b, "  (%+.1f)", e.WeightKG-entries[i-1].WeightKG)
		}
	}
	return b.String()
}

// FormatChangelog renders the release notes, newest first.
func FormatChangelog(releases []domain.Release) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Diet RPG v%s", domain.AppVersion)
	for _, r := range releases {
		fmt.Fprintf(&b, "\n\n%s (%s) %s", r.Version, r.Date, r.Title)
		for _, f := range r.Features {
			fmt.Fprintf(&b, "\n• %s", f)
		}
	}
	return b.String()
}
