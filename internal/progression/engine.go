package progression

import (
	"fmt"
	"math"
	"strings"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/utils"
)

// Quest ids
const (
	QuestLogin   = "login"
	QuestScan    = "scan"
	QuestProtein = "protein"
	QuestWater   = "water"
)

// Outcome is what a mutation produced besides the state change itself.
type Outcome struct {
	// LevelUps lists every level reached, in order.
	LevelUps []int
	// CompletedQuests lists quests newly completed by the call.
	CompletedQuests []string
	XPAwarded       int
}

// LeveledUp is the level-up signal.
func (o Outcome) LeveledUp() bool {
	return len(o.LevelUps) > 0
}

// Merge appends other to o.
func (o *Outcome) Merge(other Outcome) {
	o.LevelUps = append(o.LevelUps, other.LevelUps...)
	o.CompletedQuests = append(o.CompletedQuests, other.CompletedQuests...)
	o.XPAwarded += other.XPAwarded
}

// Engine applies progression rules to a State. Calendar days come from its clock.
type Engine struct {
	clock utils.Clock
}

func NewEngine(clock utils.Clock) *Engine {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Engine{clock: clock}
}

// Today returns the current UTC+8 date.
func (e *Engine) Today() string {
	return utils.Today(e.clock)
}

// Clock exposes the engine's clock to collaborators that stamp entries.
func (e *Engine) Clock() utils.Clock {
	return e.clock
}

// AddXP awards amount XP and settles every level-up it causes.
func (e *Engine) AddXP(g *domain.GameState, amount int) (Outcome, error) {
	if amount <= 0 {
		return Outcome{}, apperrors.NewValidationError(fmt.Sprintf("XP amount must be positive, got %d", amount))
	}
	return addXP(g, amount), nil
}

func addXP(g *domain.GameState, amount int) Outcome {
	if g.Level < 1 {
		g.Level = 1
	}
	g.CurrentXP += amount
	g.TotalXP += amount

	out := Outcome{XPAwarded: amount}
	for g.CurrentXP >= XPRequiredForLevel(g.Level) {
		g.CurrentXP -= XPRequiredForLevel(g.Level)
		g.Level++
		out.LevelUps = append(out.LevelUps, g.Level)
	}
	return out
}

// CompleteQuest marks today's quest done and awards its XP once.
// Unknown or already completed quests are ignored.
func (e *Engine) CompleteQuest(g *domain.GameState, questID string) Outcome {
	for i := range g.DailyQuests.Items {
		q := &g.DailyQuests.Items[i]
		if q.ID != questID {
			continue
		}
		if q.Completed {
			return Outcome{}
		}
		q.Completed = true
		out := Outcome{CompletedQuests: []string{q.ID}}
		if q.XPReward > 0 {
			out.Merge(addXP(g, q.XPReward))
		}
		return out
	}
	return Outcome{}
}

// AddWater records ml of water and completes the water quest at the goal.
func (e *Engine) AddWater(s *domain.State, ml int) (Outcome, error) {
	if ml <= 0 {
		return Outcome{}, apperrors.NewValidationError(fmt.Sprintf("water amount must be positive, got %d ml", ml))
	}
	s.Game.WaterIntakeML += ml
	if s.Game.WaterIntakeML >= WaterGoal(s.Profile) {
		return e.CompleteQuest(&s.Game, QuestWater), nil
	}
	return Outcome{}, nil
}

// positive rejects zero, negatives, NaN and infinities.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// RecordWeight sets the current weight and upserts today's history entry.
func (e *Engine) RecordWeight(s *domain.State, kg float64) error {
	if !positive(kg) {
		return apperrors.NewValidationError(fmt.Sprintf("weight must be a positive number, got %v kg", kg))
	}
	s.Profile.WeightKG = kg
	today := e.Today()

	for i := range s.WeightHistory {
		if s.WeightHistory[i].Date == today {
			s.WeightHistory[i].WeightKG = kg
			return nil
		}
	}

	entry := domain.WeightEntry{Date: today, WeightKG: kg}
	// keep history ordered by date
	pos := len(s.WeightHistory)
	for pos > 0 && s.WeightHistory[pos-1].Date > today {
		pos--
	}
	s.WeightHistory = append(s.WeightHistory, domain.WeightEntry{})
	copy(s.WeightHistory[pos+1:], s.WeightHistory[pos:])
	s.WeightHistory[pos] = entry
	return nil
}

// DailyQuestList returns a fresh set of today's quests.
func DailyQuestList(p domain.Profile) []domain.Quest {
	return []domain.Quest{
		{ID: QuestLogin, Title: "Check in", Description: "Come back and see your character", XPReward: 10},
		{ID: QuestScan, Title: "Log your first meal", Description: "Log a meal with a scan or by hand", XPReward: 50},
		{ID: QuestProtein, Title: "Hit your protein", Description: "Eat enough protein today", XPReward: 100},
		{ID: QuestWater, Title: "Stay hydrated", Description: fmt.Sprintf("Drink enough water (%dml)", WaterGoal(p)), XPReward: 30},
	}
}

// CheckDailyReset starts a new day if the quest list is from an earlier one.
// It returns true when a reset happened; a second call on the same day is a no-op.
func (e *Engine) CheckDailyReset(s *domain.State) bool {
	today := e.Today()
	g := &s.Game
	if g.DailyQuests.Date == today {
		return false
	}

	g.DailyQuests.Date = today
	g.WaterIntakeML = 0
	g.DailyQuests.Items = DailyQuestList(s.Profile)

	if g.LastLoginDate == nil || *g.LastLoginDate == "" {
		g.Streak = 1
	} else if days, ok := utils.DaysBetween(*g.LastLoginDate, today); !ok {
		g.Streak = 1
	} else if days == 1 {
		g.Streak++
	} else if days > 1 {
		g.Streak = 1
	}

	g.LastLoginDate = &today
	return true
}

// UpdateProfile validates every supplied field before applying any of them.
func (e *Engine) UpdateProfile(s *domain.State, patch domain.ProfilePatch) error {
	if patch.Gender != nil && *patch.Gender != domain.GenderMale && *patch.Gender != domain.GenderFemale {
		return apperrors.NewValidationError(fmt.Sprintf("unknown gender %q", *patch.Gender))
	}
	if patch.Age != nil && *patch.Age <= 0 {
		return apperrors.NewValidationError("age must be positive")
	}
	if patch.HeightCM != nil && !positive(*patch.HeightCM) {
		return apperrors.NewValidationError("height must be positive")
	}
	if patch.WeightKG != nil && !positive(*patch.WeightKG) {
		return apperrors.NewValidationError("weight must be positive")
	}
	if patch.ActivityLevel != nil && !(*patch.ActivityLevel >= domain.MinActivityLevel && *patch.ActivityLevel <= domain.MaxActivityLevel) {
		return apperrors.NewValidationError(fmt.Sprintf("activity level must be between %.1f and %.1f", domain.MinActivityLevel, domain.MaxActivityLevel))
	}
	if patch.Goal != nil {
		if _, ok := goalAdjustments[*patch.Goal]; !ok {
			return apperrors.NewValidationError(fmt.Sprintf("unknown goal %q", *patch.Goal))
		}
	}

	p := &s.Profile
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.HeightCM != nil {
		p.HeightCM = *patch.HeightCM
	}
	if patch.WeightKG != nil {
		p.WeightKG = *patch.WeightKG
	}
	if patch.ActivityLevel != nil {
		p.ActivityLevel = *patch.ActivityLevel
	}
	if patch.Goal != nil {
		p.Goal = *patch.Goal
	}
	return nil
}

// UpdateSettings merges patch into the settings; an unknown theme is rejected.
func (e *Engine) UpdateSettings(s *domain.State, patch domain.SettingsPatch) error {
	if patch.Theme != nil && *patch.Theme != domain.ThemeDark && *patch.Theme != domain.ThemeLight {
		return apperrors.NewValidationError(fmt.Sprintf("theme must be %s or %s", domain.ThemeDark, domain.ThemeLight))
	}
	if patch.Theme != nil {
		s.Settings.Theme = *patch.Theme
	}
	if patch.Notifications != nil {
		s.Settings.Notifications = *patch.Notifications
	}
	return nil
}

func (e *Engine) SetAPIKey(s *domain.State, key string) {
	s.Settings.APIKey = strings.TrimSpace(key)
}

// Logout forgets the credential and display name; progress is kept.
func (e *Engine) Logout(s *domain.State) {
	s.Settings.APIKey = ""
	s.Profile.Name = ""
}
