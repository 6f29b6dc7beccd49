package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/savings-coach/internal/api/middleware"
	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/dvloznov/savings-coach/internal/logger"
)

// writeServiceError maps goal service errors to HTTP statuses. Unexpected
// errors are logged and reported as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, goals.ErrInvalidInput):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, goals.ErrGoalDeleted):
		middleware.WriteError(w, http.StatusNotFound, "Goal has been deleted")
	case errors.Is(err, goals.ErrGoalNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, goals.ErrGoalInactive):
		middleware.WriteError(w, http.StatusConflict, "Goal is inactive")
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}
