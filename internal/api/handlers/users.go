package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/savings-coach/internal/api/middleware"
	"github.com/dvloznov/savings-coach/internal/domain"
)

// UsersHandler handles per-user achievement endpoints.
type UsersHandler struct {
	svc GoalService
	now func() time.Time
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(svc GoalService) *UsersHandler {
	return &UsersHandler{svc: svc, now: time.Now}
}

// Achievements handles GET /api/users/{id}/achievements
func (h *UsersHandler) Achievements(w http.ResponseWriter, r *http.Request, userID string) {
	ach, err := h.svc.Achievements(r.Context(), userID, h.now())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load achievements")
		return
	}

	held := make([]domain.UserBadge, 0, len(ach.Badges))
	for _, ub := range ach.Badges {
		held = append(held, *ub)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":       ach.UserID,
		"weekly_streak": ach.WeeklyStreak,
		"badges":        newBadgeResponses(held),
	})
}

// ClearBadges handles DELETE /api/users/{id}/badges
func (h *UsersHandler) ClearBadges(w http.ResponseWriter, r *http.Request, userID string) {
	n, err := h.svc.ClearUserBadges(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to clear badges")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"removed": n,
	})
}
