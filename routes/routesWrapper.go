package routes

import "github.com/julienschmidt/httprouter"

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddHealthRoutes(router, d)
	AddAuthRoutes(router, d)
	AddItineraryRoutes(router, d)
	AddPlaceRoutes(router, d)
	AddChatRoutes(router, d)
	AddBookingRoutes(router, d)
}
