package barcode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
)

const colaJSON = `{
  "status": 1,
  "product": {
    "product_name": "Cola",
    "nutriments": {
      "energy-kcal_serving": 139.4,
      "energy-kcal_100g": 42,
      "energy-kcal_unit": "kcal",
      "proteins_100g": 0,
      "fat_100g": 0.2,
      "carbohydrates_serving": "35.2",
      "carbohydrates_100g": 10.6
    }
  }
}`

func newServer(t *testing.T, hits *atomic.Int32, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/v0/product/4710018000104.json", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupPrefersServingValues(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, colaJSON, http.StatusOK)

	res, err := NewClient(srv.URL, nil).Lookup(context.Background(), "4710018000104")
	require.NoError(t, err)
	assert.True(t, res.IsFood)
	assert.Equal(t, "Cola", res.FoodName)
	assert.Equal(t, 139.0, res.Calories)
	assert.Equal(t, 35.0, res.Carbs)
	assert.Equal(t, 0.0, res.Fat, "per-100g fallback is rounded")
	assert.Equal(t, 0.0, res.Protein)
}

func TestLookupUnknownName(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `{"status":1,"product":{"product_name":"  ","nutriments":{"energy-kcal_100g":250.5}}}`, http.StatusOK)

	res, err := NewClient(srv.URL, nil).Lookup(context.Background(), "4710018000104")
	require.NoError(t, err)
	assert.Equal(t, "Unknown product", res.FoodName)
	assert.Equal(t, 251.0, res.Calories)
}

func TestLookupNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `{"status":0,"status_verbose":"product not found"}`, http.StatusOK)

	_, err := NewClient(srv.URL, nil).Lookup(context.Background(), "4710018000104")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)

	srv404 := newServer(t, &hits, "", http.StatusNotFound)
	_, err = NewClient(srv404.URL, nil).Lookup(context.Background(), "4710018000104")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLookupUpstreamFailure(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, "oops", http.StatusBadGateway)

	_, err := NewClient(srv.URL, nil).Lookup(context.Background(), "4710018000104")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestLookupUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, colaJSON, http.StatusOK)
	c := NewClient(srv.URL, NewMemoryCache(time.Hour))

	for i := 0; i < 3; i++ {
		res, err := c.Lookup(context.Background(), "4710018000104")
		require.NoError(t, err)
		assert.Equal(t, "Cola", res.FoodName)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(context.Background(), "1", &domain.NutritionResult{IsFood: true, FoodName: "tea"})
	_, ok := c.Get(context.Background(), "1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(context.Background(), "1")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	code, err := Normalize(" 4710018000104 ")
	require.NoError(t, err)
	assert.Equal(t, "4710018000104", code)

	for _, bad := range []string{"", "1234", "47100180001x4", "123456789012345"} {
		_, err := Normalize(bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), bad)
	}
}
