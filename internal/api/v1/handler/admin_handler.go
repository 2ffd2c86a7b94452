package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler exposes quota inspection and reset for support staff.
type AdminHandler struct {
	quota  service.QuotaService
	logger zerolog.Logger
}

func NewAdminHandler(quota service.QuotaService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		quota:  quota,
		logger: logger.With().Str("handler", "AdminHandler").Logger(),
	}
}

// RegisterRoutes mounts admin routes under /admin/users/{id}
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/users/", adminMw(http.HandlerFunc(h.handleAdminUsers)))
}

func (h *AdminHandler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/users/")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(rest, "/usage"):
		h.getUsage(w, r, strings.TrimSuffix(rest, "/usage"))
	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/usage/reset"):
		h.resetUsage(w, r, strings.TrimSuffix(rest, "/usage/reset"))
	default:
		http.NotFound(w, r)
	}
}

// getUsage godoc
// @Summary Get a user's quota snapshot
// @Description Returns the remaining allowance for every resource in the user's current billing period.
// @Tags admin
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} dto.UsageResponseDTO
// @Failure 404 {string} string "user not found"
// @Router /admin/users/{userId}/usage [get]
func (h *AdminHandler) getUsage(w http.ResponseWriter, r *http.Request, idStr string) {
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	snap, err := h.quota.Snapshot(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load usage snapshot")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := dto.UsageResponseDTO{
		UserID:         userID,
		PeriodStart:    snap.PeriodStart,
		PeriodEnd:      snap.PeriodEnd,
		TextRemaining:  snap.TextRemaining,
		ImageRemaining: snap.ImageRemaining,
		VideoRemaining: snap.VideoRemaining,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// resetUsage godoc
// @Summary Reset a user's usage counters
// @Description Zeroes all counters on the user's current billing period. Period boundaries are unaffected.
// @Tags admin
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} dto.UsageResetResponseDTO
// @Failure 404 {string} string "user not found"
// @Router /admin/users/{userId}/usage/reset [post]
func (h *AdminHandler) resetUsage(w http.ResponseWriter, r *http.Request, idStr string) {
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.quota.ResetCurrentPeriod(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to reset usage")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info().Int64("user_id", userID).Msg("Usage counters reset")
	resp := dto.UsageResetResponseDTO{UserID: userID, Status: "reset"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
