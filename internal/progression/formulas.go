package progression

import (
	"math"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
)

const (
	baseLevelXP     = 100
	levelXPGrowth   = 1.1
	waterMLPerKG    = 33
	kcalPerGramProt = 4
	kcalPerGramCarb = 4
	kcalPerGramFat  = 9
)

// macroSplit is a percentage split of calories into protein, fat and carbs.
type macroSplit struct {
	protein, fat, carbs float64
}

var goalAdjustments = map[domain.Goal]struct {
	calories int
	split    macroSplit
}{
	domain.GoalCut:      {-500, macroSplit{40, 35, 25}},
	domain.GoalMaintain: {0, macroSplit{30, 30, 40}},
	domain.GoalBulk:     {300, macroSplit{30, 20, 50}},
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// BMR is the Mifflin-St Jeor basal metabolic rate.
func BMR(p domain.Profile) float64 {
	s := -161.0
	if p.Gender == domain.GenderMale {
		s = 5
	}
	return 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age) + s
}

func TDEE(p domain.Profile) int {
	return roundHalfUp(BMR(p) * p.ActivityLevel)
}

// WaterGoal is the daily water target in ml.
func WaterGoal(p domain.Profile) int {
	return roundHalfUp(p.WeightKG * waterMLPerKG)
}

// DailyTargets adjusts TDEE for the goal and splits it into macro grams.
// Each macro is rounded on its own, so the grams need not add back up to
// the calorie figure exactly.
func DailyTargets(p domain.Profile) domain.Targets {
	adj, ok := goalAdjustments[p.Goal]
	if !ok {
		adj = goalAdjustments[domain.GoalMaintain]
	}
	calories := TDEE(p) + adj.calories
	kcal := float64(calories)

	return domain.Targets{
		Calories: calories,
		Protein:  roundHalfUp(kcal * adj.split.protein / 100 / kcalPerGramProt),
		Fat:      roundHalfUp(kcal * adj.split.fat / 100 / kcalPerGramFat),
		Carbs:    roundHalfUp(kcal * adj.split.carbs / 100 / kcalPerGramCarb),
	}
}

// XPRequiredForLevel is the XP needed to go from level to level+1.
func XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(baseLevelXP * math.Pow(levelXPGrowth, float64(level-1))))
}

// XPProgress is the percentage of the current level completed, capped at 100.
func XPProgress(g domain.GameState) float64 {
	pct := float64(g.CurrentXP) / float64(XPRequiredForLevel(g.Level)) * 100
	return math.Min(100, pct)
}

// LoggedIn requires both an API key and a display name.
func LoggedIn(s *domain.State) bool {
	return s.Settings.APIKey != "" && s.Profile.Name != ""
}
