package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single deposit or withdrawal against a goal.
// Amount > 0 is a deposit, Amount <= 0 a withdrawal.
// (GoalID, Date, Amount) is unique; identical submissions are skipped on create.
type Transaction struct {
	ID        string
	GoalID    string
	Date      time.Time
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// IsDeposit reports whether the transaction adds money to the goal.
func (t Transaction) IsDeposit() bool {
	return t.Amount.IsPositive()
}

// DedupKey identifies a transaction for duplicate detection.
func (t Transaction) DedupKey() string {
	return t.GoalID + "|" + t.Date.UTC().Format(time.RFC3339Nano) + "|" + t.Amount.StringFixed(2)
}
