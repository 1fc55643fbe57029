package domain

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Goal string

const (
	GoalCut      Goal = "cut"
	GoalMaintain Goal = "maintain"
	GoalBulk     Goal = "bulk"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Valid reports whether m is one of the known meal types.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// LogSource records how a diary entry's nutrition values were obtained.
type LogSource string

const (
	SourceImage   LogSource = "ai_image"
	SourceText    LogSource = "ai_text"
	SourceBarcode LogSource = "barcode"
	SourceManual  LogSource = "manual"
)

const (
	MinActivityLevel = 1.2
	MaxActivityLevel = 1.9
)

// Profile holds the user's biometrics and goal
type Profile struct {
	Name          string  `json:"name"`
	Gender        Gender  `json:"gender"`
	Age           int     `json:"age"`
	HeightCM      float64 `json:"height"`
	WeightKG      float64 `json:"weight"`
	ActivityLevel float64 `json:"activityLevel"`
	Goal          Goal    `json:"goal"`
}

// SettingsPatch is a merge-update of the non-secret settings.
type SettingsPatch struct {
	Theme         *string
	Notifications *bool
}

// ProfilePatch is a merge-update: nil fields are left unchanged.
type ProfilePatch struct {
	Name          *string
	Gender        *Gender
	Age           *int
	HeightCM      *float64
	WeightKG      *float64
	ActivityLevel *float64
	Goal          *Goal
}

// Themes
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type Settings struct {
	APIKey        string `json:"apiKey"`
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
}

// Quest is a daily micro-goal
type Quest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	XPReward    int    `json:"xp"`
	Completed   bool   `json:"completed"`
}

type DailyQuests struct {
	Date  string  `json:"date"`
	Items []Quest `json:"items"`
}

type GameState struct {
	Level         int         `json:"level"`
	CurrentXP     int         `json:"currentXP"`
	TotalXP       int         `json:"totalXP"`
	Streak        int         `json:"streak"`
	WaterIntakeML int         `json:"waterIntake"`
	LastLoginDate *string     `json:"lastLoginDate"`
	DailyQuests   DailyQuests `json:"dailyQuests"`
}

type WeightEntry struct {
	Date     string  `json:"date"`
	WeightKG float64 `json:"weight"`
}

// DiaryLog is one logged food item
type DiaryLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
	FoodName  string    `json:"food_name"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Fat       float64   `json:"fat"`
	Carbs     float64   `json:"carbs"`
	MealType  MealType  `json:"mealType"`
	Advice    string    `json:"advice,omitempty"`
	Source    LogSource `json:"source,omitempty"`
}

// NutritionResult is the normalized output of every analysis collaborator
type NutritionResult struct {
	IsFood   bool    `json:"is_food"`
	FoodName string  `json:"food_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Advice   string  `json:"advice"`
}

// Targets are the recommended daily intake values
type Targets struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Fat      int `json:"fat"`
	Carbs    int `json:"carbs"`
}

// Summary is an aggregate of diary entries
type Summary struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// DaySummary pairs a date with its aggregate and entry count
type DaySummary struct {
	Date    string  `json:"date"`
	Summary Summary `json:"summary"`
	Entries int     `json:"entries"`
}

// State is everything persisted for one user
type State struct {
	Profile       Profile       `json:"profile"`
	Settings      Settings      `json:"settings"`
	Game          GameState     `json:"game"`
	WeightHistory []WeightEntry `json:"weightHistory"`
	Logs          []DiaryLog    `json:"logs"`
}

// NewState returns the state a brand new user starts with.
func NewState() *State {
	return &State{
		Profile: Profile{
			Gender:        GenderFemale,
			Age:           25,
			HeightCM:      160,
			WeightKG:      50,
			ActivityLevel: MinActivityLevel,
			Goal:          GoalMaintain,
		},
		Settings: Settings{
			Theme:         ThemeDark,
			Notifications: true,
		},
		Game: GameState{
			Level: 1,
		},
	}
}
