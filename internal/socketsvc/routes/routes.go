package routes

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/avvvet/punchcard-services/internal/socketsvc/handlers"
	"github.com/avvvet/punchcard-services/internal/socketsvc/ws"
)

func SetRoutes(r chi.Router, ws *ws.Ws, tokenAuth *jwtauth.JWTAuth, port string) {
	h := handlers.NewHandler(ws, port)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/health", h.HealthHandler)

		})
	})
}

func InitAuth(jwtKey string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(jwtKey), nil)
}
