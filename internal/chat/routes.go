package chat

import (
	"github.com/gorilla/mux"

	"github.com/heartsync/heartsync-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	chats := router.PathPrefix("/chats").Subrouter()
	chats.Use(authMiddleware.Authenticate)

	chats.HandleFunc("/user/{userId}", handler.ListForUser).Methods("GET")
	chats.HandleFunc("/{chatId}", handler.GetChat).Methods("GET")
	chats.HandleFunc("/{chatId}/messages", handler.SendMessage).Methods("POST")
	chats.HandleFunc("/{chatId}/read", handler.MarkRead).Methods("POST")
	chats.HandleFunc("/{chatId}/messages/{messageId}/reactions", handler.AddReaction).Methods("POST")
}
