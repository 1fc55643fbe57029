package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/vladimiradmaev/diet-rpg/internal/diary"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
	"github.com/vladimiradmaev/diet-rpg/internal/progression"
)

// MirrorQueue accepts diary entries for background delivery.
type MirrorQueue interface {
	Enqueue(cmd diary.MirrorCommand) bool
}

// Dashboard is a read-only view of a user's day.
type Dashboard struct {
	Profile    domain.Profile
	Game       domain.GameState
	Targets    domain.Targets
	Today      domain.Summary
	WaterGoal  int
	XPRequired int
	XPProgress float64
	LoggedIn   bool
	HasAPIKey  bool

	Theme         string
	Notifications bool
}

// TrackerService applies every user operation under that user's lock:
// load, daily reset, mutate, save. Mirror commands are enqueued after the
// lock is released.
type TrackerService struct {
	repo          domain.StateRepository
	engine        *progression.Engine
	ledger        *diary.Ledger
	analyzer      domain.Analyzer
	barcode       domain.BarcodeLookup
	mirror        MirrorQueue
	defaultAPIKey string
	log           *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewTrackerService(
	repo domain.StateRepository,
	engine *progression.Engine,
	ledger *diary.Ledger,
	analyzer domain.Analyzer,
	barcode domain.BarcodeLookup,
	mirror MirrorQueue,
	defaultAPIKey string,
) *TrackerService {
	return &TrackerService{
		repo:          repo,
		engine:        engine,
		ledger:        ledger,
		analyzer:      analyzer,
		barcode:       barcode,
		mirror:        mirror,
		defaultAPIKey: strings.TrimSpace(defaultAPIKey),
		log:           logger.WithFields("component", "tracker"),
		locks:         make(map[int64]*sync.Mutex),
	}
}

func (s *TrackerService) lockFor(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// withState runs fn on the user's current state. The state is saved when fn
// reports a change or when the daily reset started a new day.
func (s *TrackerService) withState(ctx context.Context, userID int64, fn func(st *domain.State) (bool, error)) error {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	st, err := s.repo.Load(ctx, userID)
	if err != nil {
		return err
	}

	dirty := false
	if s.engine.CheckDailyReset(st) {
		dirty = true
		out := s.engine.CompleteQuest(&st.Game, progression.QuestLogin)
		s.log.Info("New day started", "user_id", userID, "streak", st.Game.Streak, "level_ups", out.LevelUps)
	}

	changed, err := fn(st)
	if err != nil {
		return err
	}
	if !changed && !dirty {
		return nil
	}
	return s.repo.Save(ctx, userID, st)
}

func (s *TrackerService) read(ctx context.Context, userID int64, fn func(st *domain.State)) error {
	return s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		fn(st)
		return false, nil
	})
}

func (s *TrackerService) dashboard(st *domain.State) *Dashboard {
	return &Dashboard{
		Profile:    st.Profile,
		Game:       st.Game,
		Targets:    progression.DailyTargets(st.Profile),
		Today:      s.ledger.TodaySummary(st),
		WaterGoal:  progression.WaterGoal(st.Profile),
		XPRequired: progression.XPRequiredForLevel(st.Game.Level),
		XPProgress: progression.XPProgress(st.Game),
		LoggedIn:   progression.LoggedIn(st),
		HasAPIKey:  st.Settings.APIKey != "",

		Theme:         st.Settings.Theme,
		Notifications: st.Settings.Notifications,
	}
}

// Dashboard returns the user's profile, progress and today's totals.
func (s *TrackerService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	var d *Dashboard
	err := s.read(ctx, userID, func(st *domain.State) {
		d = s.dashboard(st)
	})
	return d, err
}

// AddLog records a food entry and hands it to the mirror.
func (s *TrackerService) AddLog(ctx context.Context, userID int64, result domain.NutritionResult, meal domain.MealType, source domain.LogSource) (diary.AddResult, error) {
	var res diary.AddResult
	err := s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		var err error
		res, err = s.ledger.AddLog(st, result, meal, source)
		return err == nil, err
	})
	if err != nil {
		return diary.AddResult{}, err
	}

	s.log.Info("Food logged", "user_id", userID, "log_id", res.Entry.ID, "calories", res.Entry.Calories, "source", source)
	if s.mirror != nil {
		s.mirror.Enqueue(res.Mirror)
	}
	return res, nil
}

func (s *TrackerService) RemoveLog(ctx context.Context, userID int64, logID string) (bool, error) {
	var removed bool
	err := s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		removed = s.ledger.RemoveLog(st, logID)
		return removed, nil
	})
	return removed, err
}

func (s *TrackerService) AddWater(ctx context.Context, userID int64, ml int) (progression.Outcome, *Dashboard, error) {
	var out progression.Outcome
	var d *Dashboard
	err := s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		var err error
		out, err = s.engine.AddWater(st, ml)
		if err != nil {
			return false, err
		}
		d = s.dashboard(st)
		return true, nil
	})
	return out, d, err
}

func (s *TrackerService) RecordWeight(ctx context.Context, userID int64, kg float64) error {
	return s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		err := s.engine.RecordWeight(st, kg)
		return err == nil, err
	})
}

// UpdateProfile merges patch into the profile and returns the new targets.
func (s *TrackerService) UpdateProfile(ctx context.Context, userID int64, patch domain.ProfilePatch) (domain.Targets, error) {
	var targets domain.Targets
	err := s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		if err := s.engine.UpdateProfile(st, patch); err != nil {
			return false, err
		}
		targets = progression.DailyTargets(st.Profile)
		return true, nil
	})
	return targets, err
}

func (s *TrackerService) UpdateSettings(ctx context.Context, userID int64, patch domain.SettingsPatch) error {
	return s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		if err := s.engine.UpdateSettings(st, patch); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *TrackerService) SetAPIKey(ctx context.Context, userID int64, key string) error {
	return s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		s.engine.SetAPIKey(st, key)
		return true, nil
	})
}

func (s *TrackerService) Logout(ctx context.Context, userID int64) error {
	return s.withState(ctx, userID, func(st *domain.State) (bool, error) {
		s.engine.Logout(st)
		return true, nil
	})
}

// apiKey returns the user's own key, or the deployment default.
func (s *TrackerService) apiKey(ctx context.Context, userID int64) (string, error) {
	var key string
	err := s.read(ctx, userID, func(st *domain.State) {
		key = st.Settings.APIKey
	})
	if key == "" {
		key = s.defaultAPIKey
	}
	return key, err
}

// AnalyzeImage runs image analysis with the user's key. The user lock is
// not held during the call.
func (s *TrackerService) AnalyzeImage(ctx context.Context, userID int64, data []byte, mimeType string) (*domain.NutritionResult, error) {
	key, err := s.apiKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.analyzer.AnalyzeImage(ctx, key, data, mimeType)
}

func (s *TrackerService) AnalyzeText(ctx context.Context, userID int64, text string) (*domain.NutritionResult, error) {
	key, err := s.apiKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.analyzer.AnalyzeText(ctx, key, text)
}

func (s *TrackerService) LookupBarcode(ctx context.Context, code string) (*domain.NutritionResult, error) {
	return s.barcode.Lookup(ctx, code)
}

func (s *TrackerService) TodayLogs(ctx context.Context, userID int64) ([]domain.DiaryLog, error) {
	var logs []domain.DiaryLog
	err := s.read(ctx, userID, func(st *domain.State) {
		logs = s.ledger.TodayLogs(st)
	})
	return logs, err
}

// RecentLogs returns up to limit entries, newest first. limit <= 0 means all.
func (s *TrackerService) RecentLogs(ctx context.Context, userID int64, limit int) ([]domain.DiaryLog, error) {
	var logs []domain.DiaryLog
	err := s.read(ctx, userID, func(st *domain.State) {
		logs = s.ledger.RecentLogs(st)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, err
}

func (s *TrackerService) History(ctx context.Context, userID int64, days int) ([]domain.DaySummary, error) {
	var out []domain.DaySummary
	err := s.read(ctx, userID, func(st *domain.State) {
		out = s.ledger.History(st, days)
	})
	return out, err
}

func (s *TrackerService) WeightHistory(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	var out []domain.WeightEntry
	err := s.read(ctx, userID, func(st *domain.State) {
		out = append(out, st.WeightHistory...)
	})
	return out, err
}
