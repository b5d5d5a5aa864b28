// Package itinerary serves the trip planning, adjustment and itinerary
// management endpoints.
package itinerary

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wayfarer/auth"
	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/models"
	"wayfarer/mq"
	"wayfarer/planner"
	"wayfarer/smartadjust"
)

const modelTimeout = 120 * time.Second

type Deps struct {
	Store         db.Store
	Planner       *planner.Service
	Agent         *smartadjust.Agent
	Events        mq.Publisher
	Log           *zap.Logger
	PublicBaseURL string
	Now           func() time.Time
}

type Handlers struct {
	store   db.Store
	planner *planner.Service
	agent   *smartadjust.Agent
	events  mq.Publisher
	log     *zap.Logger
	baseURL string
	now     func() time.Time
}

func NewHandlers(d Deps) *Handlers {
	if d.Events == nil {
		d.Events = mq.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handlers{
		store:   d.Store,
		planner: d.Planner,
		agent:   d.Agent,
		events:  d.Events,
		log:     d.Log.Named("itinerary"),
		baseURL: d.PublicBaseURL,
		now:     d.Now,
	}
}

// load fetches an itinerary owned by owner.
func (h *Handlers) load(ctx context.Context, owner db.Owner, id string) (*models.Itinerary, error) {
	it, err := h.store.GetItinerary(ctx, owner, id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, errs.NotFound("itinerary not found")
	case err != nil:
		return nil, errs.Persistence(err)
	}
	return it, nil
}

// replace overwrites an owned itinerary. Unlike generation, a failed write
// here is reported to the caller.
func (h *Handlers) replace(ctx context.Context, owner db.Owner, id string, it *models.Itinerary) (*models.Itinerary, error) {
	out, err := h.store.ReplaceItinerary(ctx, owner, id, it)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, errs.NotFound("itinerary not found")
	case err != nil && owner.Kind == db.OwnerSession:
		return nil, auth.SessionError(err)
	case err != nil:
		return nil, errs.Persistence(err)
	}
	return out, nil
}

func (h *Handlers) emit(ctx context.Context, typ string, owner db.Owner, id string) {
	mq.Emit(ctx, h.events, h.log, mq.Event{
		Type: typ, ItineraryID: id, OwnerKind: string(owner.Kind), OwnerID: owner.ID,
	})
}
