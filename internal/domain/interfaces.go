package domain

import (
	"context"
)

// StateRepository loads and saves the whole per-user State.
// Load returns a fresh NewState for owners never saved before.
type StateRepository interface {
	Load(ctx context.Context, ownerID int64) (*State, error)
	Save(ctx context.Context, ownerID int64, state *State) error
}

// Analyzer turns an image or a description into nutrition values
type Analyzer interface {
	AnalyzeImage(ctx context.Context, apiKey string, data []byte, mimeType string) (*NutritionResult, error)
	AnalyzeText(ctx context.Context, apiKey, text string) (*NutritionResult, error)
}

// BarcodeLookup resolves a product barcode to nutrition values
type BarcodeLookup interface {
	Lookup(ctx context.Context, barcode string) (*NutritionResult, error)
}
