package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/savings-coach/internal/api/middleware"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/dvloznov/savings-coach/internal/logger"
)

// GoalService is the subset of goals.Service the HTTP layer uses.
type GoalService interface {
	CreateGoal(ctx context.Context, in goals.CreateGoalInput) (*goals.CreateGoalResult, error)
	GetGoal(ctx context.Context, goalID string) (*domain.Goal, error)
	ListGoals(ctx context.Context, userID string, includeInactive bool) ([]*domain.Goal, error)
	UpdateGoal(ctx context.Context, goalID string, in goals.UpdateGoalInput) (*domain.Goal, error)
	Deactivate(ctx context.Context, goalID string) (*domain.Goal, error)
	Prototypes() []domain.GoalPrototype
	AddTransactions(ctx context.Context, goalID string, inputs []goals.TransactionInput) (*goals.TransactionsResult, error)
	Transactions(ctx context.Context, goalID string) ([]*domain.Transaction, error)
	Summary(ctx context.Context, goalID string, now time.Time) (*goals.Summary, error)
	Achievements(ctx context.Context, userID string, now time.Time) (*goals.Achievements, error)
	ClearUserBadges(ctx context.Context, userID string) (int, error)
}

// Tipper generates coaching tips from a goal summary.
type Tipper interface {
	WeeklyTip(ctx context.Context, sum *goals.Summary) (string, error)
}

// Limits for one POST /api/goals/{id}/transactions body.
const (
	maxTransactionsPerRequest = 500
	maxTransactionsBodyBytes  = 128 << 10
)

// GoalsHandler handles goal and transaction endpoints.
type GoalsHandler struct {
	svc   GoalService
	coach Tipper
	now   func() time.Time
}

// NewGoalsHandler creates a new goals handler. coach may be nil, in which
// case the tip endpoint answers 503.
func NewGoalsHandler(svc GoalService, coach Tipper) *GoalsHandler {
	return &GoalsHandler{svc: svc, coach: coach, now: time.Now}
}

// ListGoals handles GET /api/goals?user_id=&all=
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	all := false
	if v := query.Get("all"); v != "" {
		var err error
		if all, err = strconv.ParseBool(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "all must be a boolean")
			return
		}
	}

	list, err := h.svc.ListGoals(r.Context(), userID, all)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list goals")
		return
	}

	resp := make([]goalResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, newGoalResponse(g))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": resp,
		"count": len(resp),
	})
}

// CreateGoal handles POST /api/goals
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.CreateGoal(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, err, "Failed to create goal")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"goal":       newGoalResponse(result.Goal),
		"new_badges": newBadgeResponses(result.NewBadges),
	})
}

// GetGoal handles GET /api/goals/{id} and returns the goal with its summary.
func (h *GoalsHandler) GetGoal(w http.ResponseWriter, r *http.Request, goalID string) {
	sum, err := h.svc.Summary(r.Context(), goalID, h.now())
	if err != nil {
		writeServiceError(w, r, err, "Failed to compute goal summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summaryResponse{
		Goal:    newGoalResponse(sum.Goal),
		Summary: sum,
	})
}

// UpdateGoal handles PUT /api/goals/{id}
func (h *GoalsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request, goalID string) {
	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.svc.UpdateGoal(r.Context(), goalID, req.input())
	if err != nil {
		writeServiceError(w, r, err, "Failed to update goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newGoalResponse(goal))
}

// ListPrototypes handles GET /api/goal-prototypes
func (h *GoalsHandler) ListPrototypes(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, newPrototypeResponses(h.svc.Prototypes()))
}

// DeactivateGoal handles DELETE /api/goals/{id}
func (h *GoalsHandler) DeactivateGoal(w http.ResponseWriter, r *http.Request, goalID string) {
	goal, err := h.svc.Deactivate(r.Context(), goalID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to deactivate goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newGoalResponse(goal))
}

// ListTransactions handles GET /api/goals/{id}/transactions
func (h *GoalsHandler) ListTransactions(w http.ResponseWriter, r *http.Request, goalID string) {
	txns, err := h.svc.Transactions(r.Context(), goalID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newTransactionResponses(txns))
}

// AddTransactions handles POST /api/goals/{id}/transactions with a JSON array body.
func (h *GoalsHandler) AddTransactions(w http.ResponseWriter, r *http.Request, goalID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTransactionsBodyBytes)

	var req []transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body: expected an array of transactions")
		return
	}
	if len(req) > maxTransactionsPerRequest {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Too many transactions in one request")
		return
	}

	inputs := make([]goals.TransactionInput, 0, len(req))
	for _, t := range req {
		date, err := parseTransactionDate(t.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		inputs = append(inputs, goals.TransactionInput{Date: date, Amount: t.Amount})
	}

	result, err := h.svc.AddTransactions(r.Context(), goalID, inputs)
	if err != nil {
		writeServiceError(w, r, err, "Failed to add transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"created":    newTransactionResponses(result.Created),
		"duplicates": result.Duplicates,
		"new_badges": newBadgeResponses(result.NewBadges),
	})
}

// GetTip handles GET /api/goals/{id}/tip
func (h *GoalsHandler) GetTip(w http.ResponseWriter, r *http.Request, goalID string) {
	if h.coach == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Coaching tips are disabled")
		return
	}

	ctx := r.Context()
	sum, err := h.svc.Summary(ctx, goalID, h.now())
	if err != nil {
		writeServiceError(w, r, err, "Failed to compute goal summary")
		return
	}

	tip, err := h.coach.WeeklyTip(ctx, sum)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to generate tip")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to generate tip")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"goal_id": goalID,
		"tip":     tip,
	})
}
