package auth

import (
	"github.com/gorilla/mux"
)

func RegisterRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/users/login", handler.Login).Methods("POST")
	router.HandleFunc("/users/login/google", handler.GoogleLogin).Methods("POST")
}
