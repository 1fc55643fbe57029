package diary

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/progression"
	"github.com/vladimiradmaev/diet-rpg/internal/utils"
)

// MirrorCommand asks the ledger mirror to copy an entry to the sheet.
// It is emitted by AddLog and delivered asynchronously by the caller.
type MirrorCommand struct {
	UserName  string
	Level     int
	CurrentXP int
	Entry     domain.DiaryLog
}

// AddResult is everything AddLog produced.
type AddResult struct {
	Entry   domain.DiaryLog
	Outcome progression.Outcome
	Mirror  MirrorCommand
}

// Ledger appends and aggregates diary entries in a State.
type Ledger struct {
	engine *progression.Engine
	newID  func() (string, error)
}

func NewLedger(engine *progression.Engine) *Ledger {
	return &Ledger{engine: engine, newID: newLogID}
}

// newLogID returns a time-ordered UUIDv7 string.
func newLogID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MealTypeForTime guesses the meal from the UTC+8 hour.
func MealTypeForTime(t time.Time) domain.MealType {
	switch h := utils.HourOf(t); {
	case h >= 5 && h < 11:
		return domain.MealBreakfast
	case h >= 11 && h < 17:
		return domain.MealLunch
	case h >= 17 && h < 22:
		return domain.MealDinner
	default:
		return domain.MealSnack
	}
}

// nonNegative maps negatives, NaN and infinities to 0.
func nonNegative(v float64) float64 {
	if !(v >= 0) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// AddLog appends a new entry built from result and evaluates the scan and
// protein quests. The returned MirrorCommand must be delivered without
// blocking the caller.
func (l *Ledger) AddLog(s *domain.State, result domain.NutritionResult, meal domain.MealType, source domain.LogSource) (AddResult, error) {
	if meal == "" {
		meal = MealTypeForTime(l.engine.Clock().Now())
	}
	if !meal.Valid() {
		return AddResult{}, apperrors.NewValidationError(fmt.Sprintf("unknown meal type %q", meal))
	}
	id, err := l.newID()
	if err != nil {
		return AddResult{}, apperrors.NewInternalError(err)
	}

	now := l.engine.Clock().Now()
	name := strings.TrimSpace(result.FoodName)
	if name == "" {
		name = "Unnamed food"
	}
	entry := domain.DiaryLog{
		ID:        id,
		Timestamp: now,
		Date:      utils.DateOf(now),
		FoodName:  name,
		Calories:  nonNegative(result.Calories),
		Protein:   nonNegative(result.Protein),
		Fat:       nonNegative(result.Fat),
		Carbs:     nonNegative(result.Carbs),
		MealType:  meal,
		Advice:    result.Advice,
		Source:    source,
	}
	s.Logs = append(s.Logs, entry)

	var out progression.Outcome
	if l.TodaySummary(s).Protein >= float64(progression.DailyTargets(s.Profile).Protein) {
		out.Merge(l.engine.CompleteQuest(&s.Game, progression.QuestProtein))
	}
	// any successful log counts as the day's first meal
	out.Merge(l.engine.CompleteQuest(&s.Game, progression.QuestScan))

	return AddResult{
		Entry:   entry,
		Outcome: out,
		Mirror: MirrorCommand{
			UserName:  s.Profile.Name,
			Level:     s.Game.Level,
			CurrentXP: s.Game.CurrentXP,
			Entry:     entry,
		},
	}, nil
}

// RemoveLog deletes the entry with id. It reports whether one was removed.
func (l *Ledger) RemoveLog(s *domain.State, id string) bool {
	for i := range s.Logs {
		if s.Logs[i].ID == id {
			s.Logs = append(s.Logs[:i], s.Logs[i+1:]...)
			return true
		}
	}
	return false
}

// TodaySummary sums today's entries.
func (l *Ledger) TodaySummary(s *domain.State) domain.Summary {
	return l.DaySummary(s, l.engine.Today()).Summary
}

// DaySummary sums the entries logged on date.
func (l *Ledger) DaySummary(s *domain.State, date string) domain.DaySummary {
	day := domain.DaySummary{Date: date}
	for _, e := range s.Logs {
		if e.Date != date {
			continue
		}
		day.Entries++
		day.Summary.Calories += e.Calories
		day.Summary.Protein += e.Protein
		day.Summary.Carbs += e.Carbs
		day.Summary.Fat += e.Fat
	}
	return day
}

// History returns one summary per day for the last days days, oldest first.
func (l *Ledger) History(s *domain.State, days int) []domain.DaySummary {
	if days <= 0 {
		return nil
	}
	today := l.engine.Today()
	out := make([]domain.DaySummary, 0, days)
	for i := days - 1; i >= 0; i-- {
		out = append(out, l.DaySummary(s, utils.AddDays(today, -i)))
	}
	return out
}

// RecentLogs returns every entry, newest first. Equal timestamps keep
// insertion order.
func (l *Ledger) RecentLogs(s *domain.State) []domain.DiaryLog {
	logs := make([]domain.DiaryLog, len(s.Logs))
	copy(logs, s.Logs)
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs
}

// TodayLogs returns today's entries, newest first.
func (l *Ledger) TodayLogs(s *domain.State) []domain.DiaryLog {
	today := l.engine.Today()
	var out []domain.DiaryLog
	for _, e := range l.RecentLogs(s) {
		if e.Date == today {
			out = append(out, e)
		}
	}
	return out
}
