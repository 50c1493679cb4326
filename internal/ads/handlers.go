package ads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateAd(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := r.Context().Value("userID").(string)

	var req CreateAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	ad, err := h.service.CreateAd(r.Context(), ownerID, &req)
	if err != nil {
		respondAdError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, ad)
}

func (h *Handler) GetAd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ad, err := h.service.GetAd(r.Context(), id)
	if err != nil {
		respondAdError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

func (h *Handler) ListAds(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	ads, err := h.service.ListAds(r.Context(), skip, limit)
	if err != nil {
		respondAdError(w, err)
		return
	}

	if ads == nil {
		ads = []*Ad{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ads":   ads,
		"count": len(ads),
	})
}

func (h *Handler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID, _ := r.Context().Value("userID").(string)

	var req UpdateAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.RespondWithValidationErrors(w, errs)
		return
	}

	ad, err := h.service.UpdateAd(r.Context(), id, actorID, &req)
	if err != nil {
		respondAdError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

func (h *Handler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID, _ := r.Context().Value("userID").(string)

	if err := h.service.DeleteAd(r.Context(), id, actorID); err != nil {
		respondAdError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ArchiveAd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID, _ := r.Context().Value("userID").(string)

	ad, err := h.service.SetArchived(r.Context(), id, actorID, true)
	if err != nil {
		respondAdError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

// ListForUser serves the targeted feed: non-archived ads overlapping the
// user's interests.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	skip, limit := pagination(r)
	targeted, err := h.service.ListForUser(r.Context(), userID, skip, limit)
	if err != nil {
		respondAdError(w, err)
		return
	}

	if targeted == nil {
		targeted = []*TargetedAd{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ads":   targeted,
		"count": len(targeted),
	})
}

func respondAdError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAdNotFound):
		utils.RespondWithErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrNotOwner):
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", err.Error())
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
