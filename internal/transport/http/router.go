// Package httptransport assembles the chi router from the feature handlers
// and the platform middleware chain.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	atthandler "vouch/internal/attestation/handler"
	expiryhandler "vouch/internal/expiry/handler"
	granthandler "vouch/internal/grant/handler"
	"vouch/internal/platform/health"
	"vouch/internal/platform/metrics"
	"vouch/internal/platform/middleware"
	"vouch/internal/registry"
)

// Deps carries everything the router mounts. Admin is nil outside standalone
// mode, which leaves the registry seeding routes unmounted.
type Deps struct {
	Attestations *atthandler.Handler
	Grants       *granthandler.Handler
	Expiry       *expiryhandler.Handler
	Health       *health.Handler
	Admin        *registry.AdminHandler

	Validator middleware.TokenValidator
	Logger    *slog.Logger
	HTTP      *metrics.HTTP
}

// NewRouter wires all endpoints. Health and metrics stay outside the auth
// boundary; every ledger route requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.HTTP != nil {
		r.Use(deps.HTTP.Middleware)
	}

	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if deps.Admin != nil {
		deps.Admin.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		r.Use(timeout(30 * time.Second))

		deps.Attestations.Register(r)
		deps.Grants.Register(r)
		deps.Expiry.Register(r)
	})

	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "Request Timeout")
	}
}
