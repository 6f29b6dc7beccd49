// Package api assembles the HTTP routes and middleware chain.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/savings-coach/internal/api/handlers"
	"github.com/dvloznov/savings-coach/internal/api/middleware"
	"github.com/dvloznov/savings-coach/internal/jobs"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Goals     handlers.GoalService
	Coach     handlers.Tipper // nil disables /tip
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
	Bucket    string
	APIToken  string
	Log       zerolog.Logger
}

// NewRouter registers all routes and wraps them in the middleware chain.
func NewRouter(d Deps) http.Handler {
	goalsHandler := handlers.NewGoalsHandler(d.Goals, d.Coach)
	usersHandler := handlers.NewUsersHandler(d.Goals)
	reportsHandler := handlers.NewReportsHandler(d.Publisher, d.Bucket)
	jobsHandler := handlers.NewJobsHandler(d.JobStore)

	mux := http.NewServeMux()

	// Goals endpoints
	mux.HandleFunc("GET /api/goals", goalsHandler.ListGoals)
	mux.HandleFunc("POST /api/goals", goalsHandler.CreateGoal)
	mux.HandleFunc("GET /api/goals/{id}", withID(goalsHandler.GetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", withID(goalsHandler.UpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", withID(goalsHandler.DeactivateGoal))
	mux.HandleFunc("GET /api/goals/{id}/transactions", withID(goalsHandler.ListTransactions))
	mux.HandleFunc("POST /api/goals/{id}/transactions", withID(goalsHandler.AddTransactions))
	mux.HandleFunc("GET /api/goals/{id}/tip", withID(goalsHandler.GetTip))
	mux.HandleFunc("GET /api/goal-prototypes", goalsHandler.ListPrototypes)

	// Users endpoints
	mux.HandleFunc("GET /api/users/{id}/achievements", withID(usersHandler.Achievements))
	mux.HandleFunc("DELETE /api/users/{id}/badges", withID(usersHandler.ClearBadges))

	// Reports and jobs endpoints
	mux.HandleFunc("POST /api/reports", reportsHandler.EnqueueReport)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", withID(jobsHandler.GetJob))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Chain(mux,
		middleware.Recovery(d.Log),
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.CORS,
		middleware.Auth(d.APIToken),
	)
}

// withID adapts a handler taking the {id} path value.
func withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "ID is required")
			return
		}
		fn(w, r, id)
	}
}
