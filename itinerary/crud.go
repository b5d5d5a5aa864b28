package itinerary

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/middleware"
	"wayfarer/models"
	"wayfarer/mq"
	"wayfarer/utils"
)

func (h *Handlers) owner(w http.ResponseWriter, r *http.Request) (db.Owner, bool) {
	owner, ok := middleware.Owner(r, "")
	if !ok {
		utils.RespondWithErr(w, h.log, errs.Unauthorized("sign in or provide a session id"))
	}
	return owner, ok
}

// GET /api/v1/itineraries
func (h *Handlers) GetItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	opts := utils.ParseQueryOptions(r, 20, 100)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	itineraries, err := h.store.ListItineraries(ctx, owner, opts.Limit)
	if err != nil {
		utils.RespondWithErr(w, h.log, errs.Persistence(err))
		return
	}
	if itineraries == nil {
		itineraries = []models.Itinerary{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"itineraries": itineraries, "count": len(itineraries)})
}

// GET /api/v1/itineraries/:id
func (h *Handlers) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.load(ctx, owner, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, it)
}

// PUT /api/v1/itineraries/:id
func (h *Handlers) UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var it models.Itinerary
	if err := utils.DecodeJSON(w, r, &it); err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}
	if it.Title == "" || it.Days == nil {
		utils.RespondWithErr(w, h.log, errs.Validation("invalid itinerary",
			map[string]string{"title": "required", "days": "required"}))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := ps.ByName("id")
	out, err := h.replace(ctx, owner, id, &it)
	if err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}
	h.emit(ctx, mq.EventReplaced, owner, id)
	utils.RespondWithJSON(w, http.StatusOK, out)
}
