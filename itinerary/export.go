package itinerary

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"wayfarer/errs"
	"wayfarer/export"
	"wayfarer/utils"
)

// GET /api/v1/itineraries/:id/export.pdf
func (h *Handlers) ExportPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	it, err := h.load(ctx, owner, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}

	data, err := export.PDF(it, export.ItineraryURL(h.baseURL, it.ItineraryID))
	if err != nil {
		h.log.Error("pdf export failed", zap.String("itinerary", it.ItineraryID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=itinerary-"+it.ItineraryID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GET /api/v1/itineraries/:id/export.ics
func (h *Handlers) ExportICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	it, err := h.load(ctx, owner, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.log, err)
		return
	}

	cal, err := export.ICS(it, export.ItineraryURL(h.baseURL, it.ItineraryID), h.now())
	if errors.Is(err, export.ErrNoStartDate) {
		utils.RespondWithErr(w, h.log, errs.Validation("itinerary has no start date",
			map[string]string{"input.startDate": "required for calendar export"}))
		return
	}
	if err != nil {
		h.log.Error("ics export failed", zap.String("itinerary", it.ItineraryID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=itinerary-"+it.ItineraryID+".ics")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(cal))
}
