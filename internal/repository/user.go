package repository

import (
	"sort"

	"github.com/vladimiradmaev/diet-rpg/internal/database"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
)

// userRows is the row-level form of one user's State.
type userRows struct {
	user    database.User
	quests  []database.Quest
	weights []database.WeightEntry
	logs    []database.DiaryLog
}

func toRows(ownerID int64, s *domain.State) userRows {
	rows := userRows{
		user: database.User{
			ID:            ownerID,
			Name:          s.Profile.Name,
			Gender:        string(s.Profile.Gender),
			Age:           s.Profile.Age,
			HeightCM:      s.Profile.HeightCM,
			WeightKG:      s.Profile.WeightKG,
			ActivityLevel: s.Profile.ActivityLevel,
			Goal:          string(s.Profile.Goal),
			APIKey:        s.Settings.APIKey,
			Theme:         s.Settings.Theme,
			Notifications: s.Settings.Notifications,
			Level:         s.Game.Level,
			CurrentXP:     s.Game.CurrentXP,
			TotalXP:       s.Game.TotalXP,
			Streak:        s.Game.Streak,
			WaterIntakeML: s.Game.WaterIntakeML,
			LastLoginDate: s.Game.LastLoginDate,
			QuestDate:     s.Game.DailyQuests.Date,
		},
	}
	for i, q := range s.Game.DailyQuests.Items {
		rows.quests = append(rows.quests, database.Quest{
			UserID:      ownerID,
			QuestID:     q.ID,
			Position:    i,
			Title:       q.Title,
			Description: q.Description,
			XPReward:    q.XPReward,
			Completed:   q.Completed,
		})
	}
	for _, w := range s.WeightHistory {
		rows.weights = append(rows.weights, database.WeightEntry{UserID: ownerID, Date: w.Date, WeightKG: w.WeightKG})
	}
	for _, l := range s.Logs {
		rows.logs = append(rows.logs, database.DiaryLog{
			ID:        l.ID,
			UserID:    ownerID,
			Timestamp: l.Timestamp,
			Date:      l.Date,
			FoodName:  l.FoodName,
			Calories:  l.Calories,
			Protein:   l.Protein,
			Fat:       l.Fat,
			Carbs:     l.Carbs,
			MealType:  string(l.MealType),
			Advice:    l.Advice,
			Source:    string(l.Source),
		})
	}
	return rows
}

func fromRows(rows userRows) *domain.State {
	u := rows.user
	s := &domain.State{
		Profile: domain.Profile{
			Name:          u.Name,
			Gender:        domain.Gender(u.Gender),
			Age:           u.Age,
			HeightCM:      u.HeightCM,
			WeightKG:      u.WeightKG,
			ActivityLevel: u.ActivityLevel,
			Goal:          domain.Goal(u.Goal),
		},
		Settings: domain.Settings{
			APIKey:        u.APIKey,
			Theme:         u.Theme,
			Notifications: u.Notifications,
		},
		Game: domain.GameState{
			Level:         u.Level,
			CurrentXP:     u.CurrentXP,
			TotalXP:       u.TotalXP,
			Streak:        u.Streak,
			WaterIntakeML: u.WaterIntakeML,
			LastLoginDate: u.LastLoginDate,
			DailyQuests:   domain.DailyQuests{Date: u.QuestDate},
		},
	}

	quests := append([]database.Quest(nil), rows.quests...)
	sort.SliceStable(quests, func(i, j int) bool { return quests[i].Position < quests[j].Position })
	for _, q := range quests {
		s.Game.DailyQuests.Items = append(s.Game.DailyQuests.Items, domain.Quest{
			ID:          q.QuestID,
			Title:       q.Title,
			Description: q.Description,
			XPReward:    q.XPReward,
			Completed:   q.Completed,
		})
	}
	for _, w := range rows.weights {
		s.WeightHistory = append(s.WeightHistory, domain.WeightEntry{Date: w.Date, WeightKG: w.WeightKG})
	}
	sort.SliceStable(s.WeightHistory, func(i, j int) bool { return s.WeightHistory[i].Date < s.WeightHistory[j].Date })
	for _, l := range rows.logs {
		s.Logs = append(s.Logs, domain.DiaryLog{
			ID:        l.ID,
			Timestamp: l.Timestamp,
			Date:      l.Date,
			FoodName:  l.FoodName,
			Calories:  l.Calories,
			Protein:   l.Protein,
			Fat:       l.Fat,
			Carbs:     l.Carbs,
			MealType:  domain.MealType(l.MealType),
			Advice:    l.Advice,
			Source:    domain.LogSource(l.Source),
		})
	}
	return s
}
