package itinerary

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/middleware"
	"wayfarer/models"
	"wayfarer/mq"
	"wayfarer/planner"
	"wayfarer/smartadjust"
	"wayfarer/utils"
)

// PlanTrip handles POST /api/v1/planTrip. Callers without a token or a
// session get a new guest session, returned in the response.
func (h *Handlers) PlanTrip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req planner.PlanRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), modelTimeout)
	defer cancel()

	owner, ok := middleware.Owner(r, req.SessionID)
	if !ok {
		sess, err := h.store.CreateSession(ctx, "", req.Preferences)
		if err != nil {
			utils.RespondWithErr(w, h.log, errs.Persistence(err))
			return
		}
		owner = db.SessionOwner(sess.SessionID)
		h.log.Info("guest session created for plan", zap.String("session", sess.SessionID))
	}

	res, err := h.planner.Generate(ctx, owner, req)
	if err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}

	resp := utils.M{
		"status":                "ok",
		"itineraryId":           res.ItineraryID,
		"itinerary":             res.Itinerary,
		"processingTimeSeconds": res.ProcessingTimeSeconds,
		"saved":                 res.Saved,
	}
	if owner.Kind == db.OwnerSession {
		resp["sessionId"] = owner.ID
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

type adjustRequest struct {
	Itinerary   *models.Itinerary `json:"itinerary"`
	ItineraryID string            `json:"itineraryId"`
	Request     string            `json:"request"`
	SessionID   string            `json:"sessionId"`
}

// AdjustItinerary handles POST /api/v1/adjustItinerary. The body names
// either an itinerary the caller owns or carries a full itinerary. An
// adjusted result replaces the owned document, or is saved as a new one.
func (h *Handlers) AdjustItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body adjustRequest
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}
	if err := smartadjust.ValidateRequest(body.Request); err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), modelTimeout)
	defer cancel()

	owner, hasOwner := middleware.Owner(r, body.SessionID)
	id := strings.TrimSpace(body.ItineraryID)
	if id == "" && body.Itinerary != nil {
		id = body.Itinerary.ItineraryID
	}

	current := body.Itinerary
	owned := false
	if id != "" && hasOwner {
		stored, err := h.load(ctx, owner, id)
		switch {
		case err == nil:
			owned = true
			if current == nil {
				current = stored
			}
		case !errs.Is(err, errs.KindNotFound):
			utils.RespondWithErr(w, h.log, err)
			return
		case current == nil:
			utils.RespondWithErr(w, h.log, err)
			return
		}
	}
	if current == nil {
		utils.RespondWithErr(w, h.log, errs.Validation("invalid adjustment request",
			map[string]string{"itinerary": "provide an itinerary or the itineraryId of one you own"}))
		return
	}

	res, err := h.agent.Adjust(ctx, current, body.Request)
	if err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}

	resp := utils.M{"status": "ok", "adjusted": res.Adjusted, "saved": false}
	if !res.Adjusted {
		resp["adjustedItinerary"] = res.Itinerary
		resp["reason"] = res.Reason
		resp["itineraryId"] = res.Itinerary.ItineraryID
		utils.RespondWithJSON(w, http.StatusOK, resp)
		return
	}

	adjusted := res.Itinerary
	switch {
	case owned:
		out, err := h.replace(ctx, owner, id, adjusted)
		if err != nil {
			utils.RespondWithErr(w, h.log, err)
			return
		}
		adjusted = out
		resp["saved"] = true
		h.emit(ctx, mq.EventAdjusted, owner, id)
	case hasOwner:
		newID, err := planner.Save(ctx, h.store, owner, adjusted)
		switch {
		case errs.Is(err, errs.KindSession):
			utils.RespondWithErr(w, h.log, err)
			return
		case err != nil:
			adjusted.ItineraryID = planner.PlaceholderID(owner, h.now())
			h.log.Error("adjusted itinerary not persisted, returning placeholder id",
				zap.String("owner", owner.Path()), zap.Error(err))
		default:
			adjusted.ItineraryID = newID
			resp["saved"] = true
			h.emit(ctx, mq.EventAdjusted, owner, newID)
		}
	}

	resp["adjustedItinerary"] = adjusted
	resp["itineraryId"] = adjusted.ItineraryID
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
