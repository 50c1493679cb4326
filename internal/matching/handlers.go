package matching

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
	"github.com/heartsync/heartsync-backend/internal/config"
)

type Handler struct {
	service Service
	cfg     config.MatchingConfig
}

func NewHandler(service Service, cfg config.MatchingConfig) *Handler {
	return &Handler{service: service, cfg: cfg}
}

// LikeResponse is the body of POST /users/{id}/like/{targetId}.
type LikeResponse struct {
	Matched      bool             `json:"isMatched"`
	MatchCreated bool             `json:"matchCreated"`
	Match        *Match           `json:"match,omitempty"`
	Warning      *utils.ErrorBody `json:"warning,omitempty"`
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]
	targetID := vars["targetId"]

	if !actorMatches(r, userID) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot act on behalf of another user")
		return
	}

	result, err := h.service.Like(r.Context(), userID, targetID)

	var bootstrapErr *ChatBootstrapError
	if errors.As(err, &bootstrapErr) {
		// The match is committed; report it with the degraded-state warning so
		// the client can trigger the repair endpoint.
		utils.RespondWithJSON(w, http.StatusCreated, LikeResponse{
			Matched:      true,
			MatchCreated: true,
			Match:        bootstrapErr.Match,
			Warning: &utils.ErrorBody{
				Kind:  "partial_failure",
				Error: "match created but chat could not be initialized",
			},
		})
		return
	}
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	code := http.StatusOK
	if result.Created {
		code = http.StatusCreated
	}
	utils.RespondWithJSON(w, code, LikeResponse{
		Matched:      result.Matched,
		MatchCreated: result.Created,
		Match:        result.Match,
	})
}

func (h *Handler) Dislike(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]
	targetID := vars["targetId"]

	if !actorMatches(r, userID) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot act on behalf of another user")
		return
	}

	if err := h.service.Dislike(r.Context(), userID, targetID); err != nil {
		respondMatchingError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]
	targetID := vars["targetId"]

	if !actorMatches(r, userID) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot act on behalf of another user")
		return
	}

	if err := h.service.Unmatch(r.Context(), userID, targetID); err != nil {
		respondMatchingError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Suggestions serves GET /users/{id}/matches: the ranked candidate feed.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	if !actorMatches(r, userID) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot act on behalf of another user")
		return
	}

	skip, limit, verrs := pagination(r, h.cfg.SuggestionMaxLimit)
	if len(verrs) > 0 {
		utils.RespondWithValidationErrors(w, verrs)
		return
	}
	ranked, err := h.service.Suggestions(r.Context(), userID, skip, limit)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	if ranked == nil {
		ranked = []*RankedCandidate{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": ranked,
		"count":       len(ranked),
	})
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	viewerID, _ := r.Context().Value("userID").(string)

	detail, err := h.service.GetMatch(r.Context(), matchID, viewerID)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if !actorMatches(r, userID) {
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", "cannot act on behalf of another user")
		return
	}

	skip, limit, verrs := pagination(r, h.cfg.ListMaxLimit)
	if len(verrs) > 0 {
		utils.RespondWithValidationErrors(w, verrs)
		return
	}
	items, err := h.service.ListMatches(r.Context(), userID, skip, limit)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	if items == nil {
		items = []*MatchItem{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches": items,
		"count":   len(items),
	})
}

// RepairChat serves POST /matches/{matchId}/chat/repair.
func (h *Handler) RepairChat(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	viewerID, _ := r.Context().Value("userID").(string)

	chat, err := h.service.EnsureChat(r.Context(), matchID, viewerID)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, chat)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func respondMatchingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		utils.RespondWithErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrMatchNotFound):
		utils.RespondWithErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrSelfAction):
		utils.RespondWithErrorKind(w, http.StatusBadRequest, "invalid_target", err.Error())
	case errors.Is(err, ErrNotPairable):
		utils.RespondWithErrorKind(w, http.StatusUnprocessableEntity, "not_pairable", err.Error())
	case errors.Is(err, ErrDisliked):
		utils.RespondWithErrorKind(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrAlreadyMatched):
		utils.RespondWithErrorKind(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrNotMatched):
		utils.RespondWithErrorKind(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrNotParticipant):
		utils.RespondWithErrorKind(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		utils.RespondWithErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func actorMatches(r *http.Request, userID string) bool {
	actor, ok := r.Context().Value("userID").(string)
	return ok && actor == userID
}

// pagination parses the skip/limit query parameters. Absent values default
// to skip 0 and limit 0, which the service replaces with its configured page
// size; present values must be a non-negative integer and 1..maxLimit.
func pagination(r *http.Request, maxLimit int) (skip, limit int, errs []string) {
	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, "skip must be a non-negative integer")
		} else {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			errs = append(errs, fmt.Sprintf("limit must be an integer between 1 and %d", maxLimit))
		} else {
			limit = n
		}
	}
	return skip, limit, errs
}
