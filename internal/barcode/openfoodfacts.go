package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

const (
	unknownProduct = "Unknown product"
	barcodeAdvice  = "Read from the product's nutrition label. Please check the portion size."
)

// Cache stores normalized lookups by barcode.
type Cache interface {
	Get(ctx context.Context, code string) (*domain.NutritionResult, bool)
	Set(ctx context.Context, code string, result *domain.NutritionResult)
}

// Client looks products up in the Open Food Facts database.
type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
}

// NewClient returns a client for baseURL. cache may be nil.
func NewClient(baseURL string, cache Cache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

type productResponse struct {
	Status  int `json:"status"`
	Product *struct {
		ProductName string                 `json:"product_name"`
		Nutriments  map[string]interface{} `json:"nutriments"`
	} `json:"product"`
}

// Normalize validates a scanned code: digits only, 8 to 14 long.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < 8 || len(code) > 14 {
		return "", apperrors.NewValidationError("barcode must have 8 to 14 digits")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", apperrors.NewValidationError("barcode must contain digits only")
		}
	}
	return code, nil
}

func (c *Client) Lookup(ctx context.Context, code string) (*domain.NutritionResult, error) {
	code, err := Normalize(code)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, code); ok {
			logger.Debug("Barcode cache hit", "barcode", code)
			return cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("User-Agent", "DietRPG/"+domain.AppVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "openfoodfacts")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.Derive(apperrors.ErrProductNotFound, nil).WithContext("barcode", code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("unexpected status %s", resp.Status), "openfoodfacts")
	}

	var body productResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("failed to decode response: %w", err), "openfoodfacts")
	}
	if body.Status != 1 || body.Product == nil {
		return nil, apperrors.Derive(apperrors.ErrProductNotFound, nil).WithContext("barcode", code)
	}

	name := strings.TrimSpace(body.Product.ProductName)
	if name == "" {
		name = unknownProduct
	}
	n := body.Product.Nutriments
	result := &domain.NutritionResult{
		IsFood:   true,
		FoodName: name,
		Calories: perServing(n, "energy-kcal"),
		Protein:  perServing(n, "proteins"),
		Fat:      perServing(n, "fat"),
		Carbs:    perServing(n, "carbohydrates"),
		Advice:   barcodeAdvice,
	}

	if c.cache != nil {
		c.cache.Set(ctx, code, result)
	}
	return result, nil
}

// perServing prefers the per-serving value, falls back to per-100g, and rounds.
func perServing(n map[string]interface{}, key string) float64 {
	if v := number(n[key+"_serving"]); v != 0 {
		return math.Round(v)
	}
	return math.Round(number(n[key+"_100g"]))
}

// number reads a nutriment value; the database stores some as strings.
func number(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
