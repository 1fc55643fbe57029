package analysis

import (
	"fmt"
	"strings"
)

const resultSchema = `{
  "is_food": true,
  "food_name": "name of the food",
  "calories": 0,
  "protein": 0,
  "fat": 0,
  "carbs": 0,
  "advice": "one short comment"
}`

func imagePrompt(language string) string {
	return fmt.Sprintf(`You are a professional dietitian. Analyze the food in this image.

REQUIREMENTS:
- Estimate calories (kcal) and protein, fat and carbohydrates (grams) for the whole portion shown
- Write food_name and advice in %s
- If the image does not show food, set is_food to false

Return plain JSON only, no Markdown, with exactly these fields:
%s`, language, resultSchema)
}

func textPrompt(language, description string) string {
	// keep the user's text from closing the quoted block early
	description = strings.ReplaceAll(strings.TrimSpace(description), `"""`, `"`)
	return fmt.Sprintf(`You are a professional dietitian. Analyze this food description:
"""%s"""

REQUIREMENTS:
- Estimate calories (kcal) and protein, fat and carbohydrates (grams)
- Write food_name and advice in %s
- If the description is not about food, set is_food to false

Return plain JSON only, no Markdown, with exactly these fields:
%s`, description, language, resultSchema)
}
