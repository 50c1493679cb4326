package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	resp, err := h.service.GoogleLogin(r.Context(), &req)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrExternalOnly):
		utils.RespondWithErrorKind(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, ErrInvalidIDToken):
		utils.RespondWithErrorKind(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		utils.RespondWithErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
