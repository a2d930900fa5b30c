package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)
		r.Get("/cipher", h.CipherHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Post("/decode", h.DecodeHandler)
			r.Get("/batches", h.ListBatchesHandler)
			r.Get("/batches/{id}", h.GetBatchHandler)
			r.Get("/batches/{id}/deck", h.GetDeckHandler)
		})
	})
}

// InitAuth sets the signing key for the secure routes and returns a week
// long service token for manual testing.
func (h *Handler) InitAuth(jwtKey string) string {
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": "decodesvc",
		"exp":        expirationTime,
	})
	if err != nil {
		log.Errorf("unable to issue service token: %s", err)
		return ""
	}

	log.Debugf("service token for testing: %s", tokenString)
	return tokenString
}
