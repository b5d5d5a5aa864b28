package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wayfarer/auth"
	"wayfarer/booking"
	"wayfarer/chat"
	"wayfarer/itinerary"
	"wayfarer/middleware"
	"wayfarer/places"
	"wayfarer/ratelim"
)

// Deps bundles the handlers the router exposes.
type Deps struct {
	Auth        *middleware.Auth
	RateLimiter *ratelim.RateLimiter
	Sessions    *auth.Handlers
	Itineraries *itinerary.Handlers
	Places      *places.Handlers
	Chat        *chat.Service
	Booking     *booking.Redirector
	Metrics     http.Handler
	// Health reports backend readiness. nil means always healthy.
	Health func(r *http.Request) error
}

func AddHealthRoutes(router *httprouter.Router, d Deps) {
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if d.Health != nil {
			if err := d.Health(r); err != nil {
				http.Error(w, "503", http.StatusServiceUnavailable)
				return
			}
		}
		fmt.Fprint(w, "200")
	})
	if d.Metrics != nil {
		router.Handler(http.MethodGet, "/metrics", d.Metrics)
	}
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/v1/session", d.Sessions.CreateSession)
	router.POST("/api/v1/session/:id/touch", d.Sessions.TouchSession)
	router.POST("/api/v1/auth/signin", d.RateLimiter.Limit(d.Sessions.SignIn))
	router.GET("/api/v1/auth/profile", d.Auth.Authenticate(d.Sessions.Profile))
	router.POST("/api/v1/auth/refresh", d.Auth.Authenticate(d.Sessions.Refresh))
}

func AddItineraryRoutes(router *httprouter.Router, d Deps) {
	h := d.Itineraries
	router.POST("/api/v1/planTrip", d.RateLimiter.Limit(d.Auth.OptionalAuth(h.PlanTrip)))
	router.POST("/api/v1/adjustItinerary", d.RateLimiter.Limit(d.Auth.OptionalAuth(h.AdjustItinerary)))
	router.GET("/api/v1/itineraries", d.Auth.OptionalAuth(h.GetItineraries))
	router.GET("/api/v1/itineraries/:id", d.Auth.OptionalAuth(h.GetItinerary))
	router.PUT("/api/v1/itineraries/:id", d.Auth.OptionalAuth(h.UpdateItinerary))
	router.GET("/api/v1/itineraries/:id/export.pdf", d.Auth.OptionalAuth(h.ExportPDF))
	router.GET("/api/v1/itineraries/:id/export.ics", d.Auth.OptionalAuth(h.ExportICS))
}

func AddPlaceRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/v1/places", d.Places.GetPlaces)
	router.GET("/api/v1/places/:id", d.Places.GetPlace)
	router.GET("/api/v1/pois/:id", d.Places.GetPOI)
}

func AddChatRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/v1/chat", d.RateLimiter.Limit(d.Auth.OptionalAuth(d.Chat.Chat)))
	router.GET("/api/v1/chat/ws", d.Auth.OptionalAuth(d.Chat.WebSocket))
}

func AddBookingRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/v1/booking/redirect", d.Booking.Redirect)
}
