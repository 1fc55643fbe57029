package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
)

// flexFloat accepts 12, 12.5, "12" and "12.5 g".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' && r != '-' }); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexFloat(n)
	return nil
}

type rawResult struct {
	IsFood   bool      `json:"is_food"`
	FoodName string    `json:"food_name"`
	Calories flexFloat `json:"calories"`
	Protein  flexFloat `json:"protein"`
	Fat      flexFloat `json:"fat"`
	Carbs    flexFloat `json:"carbs"`
	Advice   string    `json:"advice"`
}

// stripCodeFence removes ```json ... ``` wrapping the model likes to add.
func stripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractJSON attempts to extract a JSON object from text that has
// something before or after it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// parseResult decodes a model response. A well-formed response whose
// is_food is false is returned without error; callers decide what that means.
func parseResult(text string) (*domain.NutritionResult, error) {
	clean := stripCodeFence(text)
	var raw rawResult
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		obj := extractJSON(clean)
		if obj == "" {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeExternal, "BAD_RESPONSE", "model response is not JSON")
		}
		if err := json.Unmarshal([]byte(obj), &raw); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeExternal, "BAD_RESPONSE", "model response is not JSON")
		}
	}
	return &domain.NutritionResult{
		IsFood:   raw.IsFood,
		FoodName: strings.TrimSpace(raw.FoodName),
		Calories: float64(raw.Calories),
		Protein:  float64(raw.Protein),
		Fat:      float64(raw.Fat),
		Carbs:    float64(raw.Carbs),
		Advice:   strings.TrimSpace(raw.Advice),
	}, nil
}
