// Package places serves the shared place and point-of-interest reference
// data, with a read-through cache in front of the store.
package places

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/models"
)

const (
	cacheTTL     = 30 * time.Minute
	cacheCleanup = 10 * time.Minute
	placesKey    = "places:all"
)

type Service struct {
	store db.Store
	cache *cache.Cache
	log   *zap.Logger
}

func NewService(store db.Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		cache: cache.New(cacheTTL, cacheCleanup),
		log:   log.Named("places"),
	}
}

func (s *Service) POI(ctx context.Context, poiID string) (*models.POI, error) {
	key := "poi:" + poiID
	if cached, found := s.cache.Get(key); found {
		return cached.(*models.POI), nil
	}
	poi, err := s.store.GetPOI(ctx, poiID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, errs.NotFound("poi not found")
	case err != nil:
		return nil, errs.Persistence(err)
	}
	s.cache.Set(key, poi, cache.DefaultExpiration)
	return poi, nil
}

func (s *Service) Place(ctx context.Context, placeID string) (*models.Place, error) {
	key := "place:" + placeID
	if cached, found := s.cache.Get(key); found {
		return cached.(*models.Place), nil
	}
	place, err := s.store.GetPlace(ctx, placeID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, errs.NotFound("place not found")
	case err != nil:
		return nil, errs.Persistence(err)
	}
	s.cache.Set(key, place, cache.DefaultExpiration)
	return place, nil
}

// Places lists up to limit places. Only the full list is cached.
func (s *Service) Places(ctx context.Context, limit int) ([]models.Place, error) {
	if limit <= 0 {
		if cached, found := s.cache.Get(placesKey); found {
			return cached.([]models.Place), nil
		}
	}
	places, err := s.store.ListPlaces(ctx, limit)
	if err != nil {
		return nil, errs.Persistence(err)
	}
	if places == nil {
		places = []models.Place{}
	}
	if limit <= 0 {
		s.cache.Set(placesKey, places, cache.DefaultExpiration)
	}
	return places, nil
}

// Upsert writes reference data and drops any cached copies.
func (s *Service) UpsertPOI(ctx context.Context, poi models.POI) error {
	if err := s.store.UpsertPOI(ctx, poi); err != nil {
		return errs.Persistence(err)
	}
	s.cache.Delete("poi:" + poi.PoiID)
	return nil
}

func (s *Service) UpsertPlace(ctx context.Context, place models.Place) error {
	if err := s.store.UpsertPlace(ctx, place); err != nil {
		return errs.Persistence(err)
	}
	s.cache.Delete("place:" + place.PlaceID)
	s.cache.Delete(placesKey)
	return nil
}
