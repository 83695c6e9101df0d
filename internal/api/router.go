package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/framewright/tenon/internal/frameservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *frameservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Intersection detection.
	r.Post("/detect", h.Detect)
	r.Post("/detect/scan", h.Scan)

	// Joint evaluation.
	r.Post("/joints/evaluate", h.Evaluate)

	// Fabrication signatures.
	r.Post("/members/signature", h.MemberSignature)

	// Registry listings.
	r.Get("/joint-types", h.JointTypes)
	r.Get("/joint-types/compatible", h.Compatible)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
