// Package booking hands travellers off to an external booking site.
package booking

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"

	"wayfarer/utils"
)

const DefaultSearchURL = "https://example-booking-site.com/search"

type Redirector struct {
	searchURL string
}

func NewRedirector(searchURL string) *Redirector {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Redirector{searchURL: searchURL}
}

// URL builds the search link for destination.
func (b *Redirector) URL(destination string) string {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		destination = "Unknown"
	}
	return b.searchURL + "?place=" + url.QueryEscape(destination)
}

// GET /api/v1/booking/redirect?destination=
func (b *Redirector) Redirect(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":      "ok",
		"redirectUrl": b.URL(r.URL.Query().Get("destination")),
	})
}
