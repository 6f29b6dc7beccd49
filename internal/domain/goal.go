package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// GoalState is the soft-delete state of a goal.
type GoalState string

const (
	GoalStateActive   GoalState = "ACTIVE"
	GoalStateInactive GoalState = "INACTIVE"
)

// Goal is a user's savings target over an inclusive date range.
type Goal struct {
	ID          string
	UserID      string
	Name        string
	PrototypeID string // optional categorisation, empty if unset

	StartDate civil.Date
	EndDate   civil.Date

	// Target has two implied fractional digits.
	Target decimal.Decimal

	// WeeklyTargetOverride replaces the computed weekly target when set.
	WeeklyTargetOverride *decimal.Decimal

	State     GoalState
	CreatedAt time.Time
}

// IsActive reports whether the goal has not been soft-deleted.
func (g *Goal) IsActive() bool {
	return g.State != GoalStateInactive
}

// Deactivate soft-deletes the goal. Goals are never removed from storage.
func (g *Goal) Deactivate() {
	g.State = GoalStateInactive
}
