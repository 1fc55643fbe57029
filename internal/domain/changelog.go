package domain

const AppVersion = "1.1.0"

type Release struct {
	Version  string
	Date     string
	Title    string
	Features []string
}

// Changelog lists releases newest first.
var Changelog = []Release{
	{
		Version: "1.1.0",
		Date:    "2024-05-25",
		Title:   "Release notes and sheet sync",
		Features: []string{
			"Release notes shown after an update",
			"Configurable spreadsheet webhook for diary mirroring",
			"Barcode lookups cached between requests",
		},
	},
	{
		Version: "1.0.0",
		Date:    "2024-05-01",
		Title:   "First release",
		Features: []string{
			"Food diary",
			"AI food scanning with Gemini",
			"Levels, XP and daily quests",
		},
	},
}
