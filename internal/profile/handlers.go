package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
)

const maxPhotoUploadBytes = 10 << 20 // 10MB

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	users, err := h.service.ListUsers(r.Context(), skip, limit)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	if users == nil {
		users = []*User{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !actorMatches(r, id) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot modify another user's profile")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !actorMatches(r, id) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot delete another user's profile")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		respondProfileError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !actorMatches(r, id) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot modify another user's preferences")
		return
	}

	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	user, err := h.service.SetPreferences(r.Context(), id, &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !actorMatches(r, id) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot upload to another user's profile")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing photo file")
		return
	}
	defer file.Close()

	url, err := h.service.UploadPhoto(r.Context(), id, file, header)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func respondProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		utils.RespondWithErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrEmailTaken):
		utils.RespondWithErrorKind(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrInvalidPreferences):
		utils.RespondWithErrorKind(w, http.StatusUnprocessableEntity, "invalid_preferences", err.Error())
	default:
		utils.RespondWithErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func actorMatches(r *http.Request, userID string) bool {
	actor, ok := r.Context().Value("userID").(string)
	return ok && actor == userID
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
