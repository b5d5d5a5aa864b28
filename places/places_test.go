package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/models"
)

type countingStore struct {
	*db.MemoryStore
	poiReads int
}

func (c *countingStore) GetPOI(ctx context.Context, id string) (*models.POI, error) {
	c.poiReads++
	return c.MemoryStore.GetPOI(ctx, id)
}

func TestPOIIsCached(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: db.NewMemoryStore()}
	require.NoError(t, store.UpsertPOI(ctx, models.POI{PoiID: "poi_anjuna", Name: "Anjuna Beach", PlaceID: "goa"}))
	svc := NewService(store, zap.NewNop())

	for range 3 {
		poi, err := svc.POI(ctx, "poi_anjuna")
		require.NoError(t, err)
		assert.Equal(t, "Anjuna Beach", poi.Name)
	}
	assert.Equal(t, 1, store.poiReads)

	require.NoError(t, svc.UpsertPOI(ctx, models.POI{PoiID: "poi_anjuna", Name: "Anjuna Flea Market", PlaceID: "goa"}))
	poi, err := svc.POI(ctx, "poi_anjuna")
	require.NoError(t, err)
	assert.Equal(t, "Anjuna Flea Market", poi.Name)
	assert.Equal(t, 2, store.poiReads)

	_, err = svc.POI(ctx, "poi_missing")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestPlacesHandlers(t *testing.T) {
	ctx := context.Background()
	svc := NewService(db.NewMemoryStore(), zap.NewNop())
	require.NoError(t, svc.UpsertPlace(ctx, models.Place{PlaceID: "goa", Name: "Goa", Country: "India"}))
	require.NoError(t, svc.UpsertPlace(ctx, models.Place{PlaceID: "jaipur", Name: "Jaipur", Country: "India"}))

	h := NewHandlers(svc)
	r := httprouter.New()
	r.GET("/api/v1/places", h.GetPlaces)
	r.GET("/api/v1/places/:id", h.GetPlace)
	r.GET("/api/v1/pois/:id", h.GetPOI)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/places", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/places/jaipur", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Jaipur"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pois/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
