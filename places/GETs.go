package places

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"wayfarer/utils"
)

type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// GET /api/v1/places
func (h *Handlers) GetPlaces(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := 0
	if r.URL.Query().Get("limit") != "" {
		limit = utils.ParseQueryOptions(r, 50, 500).Limit
	}
	places, err := h.svc.Places(ctx, limit)
	if err != nil {
		utils.RespondWithErr(w, h.svc.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, places)
}

// GET /api/v1/places/:id
func (h *Handlers) GetPlace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	place, err := h.svc.Place(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.svc.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, place)
}

// GET /api/v1/pois/:id
func (h *Handlers) GetPOI(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	poi, err := h.svc.POI(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.svc.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, poi)
}
