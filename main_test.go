package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wayfarer/config"
	"wayfarer/db"
	"wayfarer/planner"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, seed(ctx, store, now, zap.NewNop()))
	require.NoError(t, seed(ctx, store, now, zap.NewNop()))

	list, err := store.ListItineraries(ctx, db.UserOwner(demoUserID), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, demoTitle, list[0].Title)

	poi, err := store.GetPOI(ctx, "poi_hawa_mahal")
	require.NoError(t, err)
	assert.Equal(t, "jaipur", poi.PlaceID)

	places, err := store.ListPlaces(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, places, 2)
}

func TestDemoItineraryPassesSchemaCheck(t *testing.T) {
	assert.Empty(t, planner.Check(demoItinerary()))
}

func TestOpenStore(t *testing.T) {
	prev := storeKind
	t.Cleanup(func() { storeKind = prev })

	storeKind = "memory"
	store, closeStore, err := openStore(context.Background(), config.Default(), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &db.MemoryStore{}, store)
	assert.NoError(t, closeStore(context.Background()))

	storeKind = "sqlite"
	_, _, err = openStore(context.Background(), config.Default(), zap.NewNop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger("warn")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))

	_, err = newLogger("loud")
	assert.Error(t, err)
}
