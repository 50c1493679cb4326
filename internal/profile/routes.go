package profile

import (
	"github.com/gorilla/mux"

	"github.com/heartsync/heartsync-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	// Registration is the only unauthenticated profile route.
	router.HandleFunc("/users", handler.Register).Methods("POST")

	users := router.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware.Authenticate)

	users.HandleFunc("", handler.ListUsers).Methods("GET")
	users.HandleFunc("/{id}", handler.GetUser).Methods("GET")
	users.HandleFunc("/{id}", handler.UpdateUser).Methods("PUT")
	users.HandleFunc("/{id}", handler.DeleteUser).Methods("DELETE")
	users.HandleFunc("/{id}/preferences", handler.SetPreferences).Methods("POST")
	users.HandleFunc("/{id}/photos", handler.UploadPhoto).Methods("POST")
}
