package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postcode-tracker/internal/api/handlers"
	"postcode-tracker/internal/services"
)

type Services struct {
	Resolver  *services.Resolver
	Journeys  *services.JourneyService
	Locations *services.SavedLocationService
	Accounts  *services.AccountService
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// With metrics off neither /metrics nor the request instrumentation is installed.
func NewRouter(svc Services, metricsEnabled bool) http.Handler {
	mux := http.NewServeMux()

	postcodes := &handlers.PostcodeHandler{Resolver: svc.Resolver}
	journeys := &handlers.JourneyHandler{Journeys: svc.Journeys}
	locations := &handlers.LocationHandler{Locations: svc.Locations}
	accounts := &handlers.AuthHandler{Accounts: svc.Accounts}

	authed := func(h http.HandlerFunc) http.Handler { return requireAuth(svc.Accounts, h) }

	mux.HandleFunc("GET /health", handlers.Health)
	if metricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.HandleFunc("GET /postcodes/nearest", postcodes.Nearest)
	mux.HandleFunc("GET /postcodes/{postcode}", postcodes.Lookup)
	mux.HandleFunc("GET /postcodes/{postcode}/validate", postcodes.Validate)
	mux.HandleFunc("POST /distance", postcodes.Distance)

	mux.HandleFunc("POST /auth/register", accounts.Register)
	mux.HandleFunc("POST /auth/login", accounts.Login)
	mux.Handle("GET /auth/me", authed(accounts.Me))

	mux.Handle("POST /journeys/start", authed(journeys.Start))
	mux.Handle("POST /journeys/end", authed(journeys.End))
	mux.Handle("GET /journeys/active", authed(journeys.Active))
	mux.Handle("GET /journeys/export", authed(journeys.Export))
	mux.Handle("GET /journeys", authed(journeys.List))
	mux.Handle("POST /journeys", authed(journeys.CreateManual))
	mux.Handle("GET /journeys/{id}", authed(journeys.Get))
	mux.Handle("DELETE /journeys/{id}", authed(journeys.Delete))

	mux.Handle("GET /locations", authed(locations.List))
	mux.Handle("POST /locations", authed(locations.Save))
	mux.Handle("DELETE /locations/{id}", authed(locations.Delete))

	var h http.Handler = mux
	if metricsEnabled {
		h = metricsMiddleware(h)
	}
	return requestIDMiddleware(loggingMiddleware(h))
}
