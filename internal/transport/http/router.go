package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig carries what NewRouter needs besides the handlers.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter mounts the REST API and the play socket behind CORS.
func NewRouter(api *Handler, ws *WSHandler, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	authed := router.NewRoute().Subrouter()
	authed.Use(Identity(cfg.JWTSecret))

	authed.HandleFunc("/challenges/active", api.ActiveChallenge).Methods(http.MethodGet)
	authed.HandleFunc("/challenges/{id}/eligibility", api.Eligibility).Methods(http.MethodGet)
	authed.HandleFunc("/challenges/{id}/attempts", api.StartAttempt).Methods(http.MethodPost)
	authed.HandleFunc("/challenges/{id}/attempts/current", api.CurrentAttempt).Methods(http.MethodGet)
	authed.HandleFunc("/challenges/{id}/answers", api.SubmitAnswer).Methods(http.MethodPost)
	authed.HandleFunc("/challenges/{id}/leaderboard", api.Leaderboard).Methods(http.MethodGet)
	authed.HandleFunc("/ws", ws.ServeWS)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-User-ID"},
		MaxAge:         300,
	})
	return corsMiddleware.Handler(router)
}
