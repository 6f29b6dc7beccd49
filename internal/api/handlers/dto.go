package handlers

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/shopspring/decimal"
)

type goalResponse struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	PrototypeID  string           `json:"prototype_id,omitempty"`
	StartDate    civil.Date       `json:"start_date"`
	EndDate      civil.Date       `json:"end_date"`
	Target       decimal.Decimal  `json:"target"`
	WeeklyTarget *decimal.Decimal `json:"weekly_target,omitempty"`
	State        domain.GoalState `json:"state"`
	CreatedAt    time.Time        `json:"created_at"`
}

func newGoalResponse(g *domain.Goal) goalResponse {
	return goalResponse{
		ID:           g.ID,
		UserID:       g.UserID,
		Name:         g.Name,
		PrototypeID:  g.PrototypeID,
		StartDate:    g.StartDate,
		EndDate:      g.EndDate,
		Target:       g.Target,
		WeeklyTarget: g.WeeklyTargetOverride,
		State:        g.State,
		CreatedAt:    g.CreatedAt,
	}
}

type transactionResponse struct {
	ID        string          `json:"id"`
	GoalID    string          `json:"goal_id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func newTransactionResponses(txns []*domain.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionResponse{
			ID:        t.ID,
			GoalID:    t.GoalID,
			Date:      t.Date,
			Amount:    t.Amount,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

type userBadgeResponse struct {
	ID        string    `json:"id"`
	BadgeID   string    `json:"badge_id"`
	GoalID    string    `json:"goal_id,omitempty"`
	AwardedAt time.Time `json:"awarded_at"`
}

func newBadgeResponses(awards []domain.UserBadge) []userBadgeResponse {
	out := make([]userBadgeResponse, 0, len(awards))
	for _, ub := range awards {
		out = append(out, userBadgeResponse{
			ID:        ub.ID,
			BadgeID:   ub.BadgeID,
			GoalID:    ub.GoalID,
			AwardedAt: ub.AwardedAt,
		})
	}
	return out
}

type summaryResponse struct {
	Goal goalResponse `json:"goal"`
	*goals.Summary
}

type createGoalRequest struct {
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	PrototypeID  string           `json:"prototype_id"`
	StartDate    civil.Date       `json:"start_date"`
	EndDate      civil.Date       `json:"end_date"`
	Target       decimal.Decimal  `json:"target"`
	WeeklyTarget *decimal.Decimal `json:"weekly_target"`
}

func (req createGoalRequest) input() goals.CreateGoalInput {
	return goals.CreateGoalInput{
		UserID:       req.UserID,
		Name:         req.Name,
		PrototypeID:  req.PrototypeID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Target:       req.Target,
		WeeklyTarget: req.WeeklyTarget,
	}
}

type updateGoalRequest struct {
	Name      *string          `json:"name"`
	StartDate *civil.Date      `json:"start_date"`
	EndDate   *civil.Date      `json:"end_date"`
	Target    *decimal.Decimal `json:"target"`
}

func (req updateGoalRequest) input() goals.UpdateGoalInput {
	return goals.UpdateGoalInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Target:    req.Target,
	}
}

type prototypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func newPrototypeResponses(list []domain.GoalPrototype) []prototypeResponse {
	out := make([]prototypeResponse, 0, len(list))
	for _, p := range list {
		out = append(out, prototypeResponse{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return out
}

type transactionRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// parseTransactionDate accepts RFC 3339 timestamps or plain dates (midnight UTC).
func parseTransactionDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
