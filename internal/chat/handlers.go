package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	viewerID, _ := r.Context().Value("userID").(string)

	skip, limit := pagination(r)
	detail, err := h.service.GetChat(r.Context(), chatID, viewerID, skip, limit)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	viewerID, _ := r.Context().Value("userID").(string)
	if viewerID != userID {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot read another user's chats")
		return
	}

	skip, limit := pagination(r)
	summaries, err := h.service.ListForUser(r.Context(), userID, skip, limit)
	if err != nil {
		respondChatError(w, err)
		return
	}

	if summaries == nil {
		summaries = []*ChatSummary{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"chats": summaries,
		"count": len(summaries),
	})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	senderID, _ := r.Context().Value("userID").(string)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), chatID, senderID, &req)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, msg)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]
	readerID, _ := r.Context().Value("userID").(string)

	count, err := h.service.MarkRead(r.Context(), chatID, readerID)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, MarkReadResponse{ChatID: chatID, MessagesRead: count})
}

func (h *Handler) AddReaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID := vars["chatId"]
	messageID := vars["messageId"]
	userID, _ := r.Context().Value("userID").(string)

	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	reaction, err := h.service.AddReaction(r.Context(), chatID, messageID, userID, req.Emoji)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, reaction)
}

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrChatNotFound), errors.Is(err, ErrMessageNotFound):
		utils.RespondWithErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrNotParticipant):
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ErrEmptyMessage):
		utils.RespondWithErrorKind(w, http.StatusBadRequest, "validation", err.Error())
	default:
		utils.RespondWithErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func pagination(r *http.Request) (skip, limit int) {
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return skip, limit
}
