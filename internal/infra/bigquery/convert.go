package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the number of fractional digits kept for money values.
const numericScale = 2

func ratFromDecimal(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalFromRat(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimalFromRat: %w", err)
	}
	return d, nil
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// GoalToRow converts a domain goal to its BigQuery row.
func GoalToRow(g *domain.Goal) *GoalRow {
	row := &GoalRow{
		GoalID:      g.ID,
		UserID:      g.UserID,
		Name:        g.Name,
		PrototypeID: nullString(g.PrototypeID),
		StartDate:   g.StartDate,
		EndDate:     g.EndDate,
		Target:      ratFromDecimal(g.Target),
		State:       string(g.State),
		CreatedTS:   g.CreatedAt.UTC(),
	}
	if row.State == "" {
		row.State = string(domain.GoalStateActive)
	}
	if g.WeeklyTargetOverride != nil {
		row.WeeklyTargetOverride = ratFromDecimal(*g.WeeklyTargetOverride)
	}
	return row
}

// GoalFromRow converts a BigQuery row to a domain goal.
func GoalFromRow(row *GoalRow) (*domain.Goal, error) {
	target, err := decimalFromRat(row.Target)
	if err != nil {
		return nil, fmt.Errorf("GoalFromRow: target: %w", err)
	}

	g := &domain.Goal{
		ID:          row.GoalID,
		UserID:      row.UserID,
		Name:        row.Name,
		PrototypeID: row.PrototypeID.StringVal,
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		Target:      target,
		State:       domain.GoalState(row.State),
		CreatedAt:   row.CreatedTS,
	}
	if row.WeeklyTargetOverride != nil {
		override, err := decimalFromRat(row.WeeklyTargetOverride)
		if err != nil {
			return nil, fmt.Errorf("GoalFromRow: weekly target override: %w", err)
		}
		g.WeeklyTargetOverride = &override
	}
	return g, nil
}

// TransactionToRow converts a domain transaction to its BigQuery row.
// Timestamps are truncated to the microsecond precision BigQuery stores.
func TransactionToRow(t *domain.Transaction) *GoalTransactionRow {
	return &GoalTransactionRow{
		TransactionID: t.ID,
		GoalID:        t.GoalID,
		TransactionTS: t.Date.UTC().Truncate(time.Microsecond),
		Amount:        ratFromDecimal(t.Amount),
		CreatedTS:     t.CreatedAt.UTC().Truncate(time.Microsecond),
	}
}

// TransactionFromRow converts a BigQuery row to a domain transaction.
func TransactionFromRow(row *GoalTransactionRow) (*domain.Transaction, error) {
	amount, err := decimalFromRat(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("TransactionFromRow: amount: %w", err)
	}
	return &domain.Transaction{
		ID:        row.TransactionID,
		GoalID:    row.GoalID,
		Date:      row.TransactionTS.UTC(),
		Amount:    amount,
		CreatedAt: row.CreatedTS.UTC(),
	}, nil
}

// BadgeFromRow converts a BigQuery row to a domain badge.
func BadgeFromRow(row *BadgeRow) *domain.Badge {
	return &domain.Badge{
		ID:          row.BadgeID,
		Name:        row.Name,
		Description: row.Description.StringVal,
		State:       domain.BadgeState(row.State),
	}
}

// UserBadgeToRow converts a domain award to its BigQuery row.
func UserBadgeToRow(ub *domain.UserBadge) *UserBadgeRow {
	return &UserBadgeRow{
		UserBadgeID: ub.ID,
		UserID:      ub.UserID,
		BadgeID:     ub.BadgeID,
		GoalID:      nullString(ub.GoalID),
		AwardedTS:   ub.AwardedAt.UTC().Truncate(time.Microsecond),
	}
}

// UserBadgeFromRow converts a BigQuery row to a domain award.
func UserBadgeFromRow(row *UserBadgeRow) *domain.UserBadge {
	return &domain.UserBadge{
		ID:        row.UserBadgeID,
		UserID:    row.UserID,
		BadgeID:   row.BadgeID,
		GoalID:    row.GoalID.StringVal,
		AwardedAt: row.AwardedTS.UTC(),
	}
}
