package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

type GoalRow struct {
	GoalID      string              `bigquery:"goal_id"`      // REQUIRED
	UserID      string              `bigquery:"user_id"`      // REQUIRED
	Name        string              `bigquery:"name"`         // REQUIRED
	PrototypeID bigquery.NullString `bigquery:"prototype_id"` // NULLABLE

	StartDate civil.Date `bigquery:"start_date"` // REQUIRED
	EndDate   civil.Date `bigquery:"end_date"`   // REQUIRED

	Target               *big.Rat `bigquery:"target"`                 // REQUIRED NUMERIC
	WeeklyTargetOverride *big.Rat `bigquery:"weekly_target_override"` // NULLABLE NUMERIC

	State     string    `bigquery:"state"`      // REQUIRED (ACTIVE | INACTIVE)
	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

type GoalTransactionRow struct {
	TransactionID string    `bigquery:"transaction_id"` // REQUIRED
	GoalID        string    `bigquery:"goal_id"`        // REQUIRED
	TransactionTS time.Time `bigquery:"transaction_ts"` // REQUIRED
	Amount        *big.Rat  `bigquery:"amount"`         // REQUIRED NUMERIC, signed
	CreatedTS     time.Time `bigquery:"created_ts"`     // REQUIRED
}
