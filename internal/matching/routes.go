package matching

import (
	"github.com/gorilla/mux"

	"github.com/heartsync/heartsync-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	users := router.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware.Authenticate)

	users.HandleFunc("/{id}/like/{targetId}", handler.Like).Methods("POST")
	users.HandleFunc("/{id}/dislike/{targetId}", handler.Dislike).Methods("POST")
	users.HandleFunc("/{id}/unmatch/{targetId}", handler.Unmatch).Methods("POST")
	users.HandleFunc("/{id}/matches", handler.Suggestions).Methods("GET")
	users.HandleFunc("/{id}/stats", handler.GetStats).Methods("GET")

	matches := router.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware.Authenticate)

	matches.HandleFunc("/user/{userId}", handler.ListMatches).Methods("GET")
	matches.HandleFunc("/{matchId}", handler.GetMatch).Methods("GET")
	matches.HandleFunc("/{matchId}/chat/repair", handler.RepairChat).Methods("POST")
}
