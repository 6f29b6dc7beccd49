package savings

import (
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func newGoal(t *testing.T, start, end string, target int64) *domain.Goal {
	t.Helper()
	return &domain.Goal{
		ID:        "goal-1",
		UserID:    "user-1",
		Name:      "Bicycle",
		StartDate: mustDate(t, start),
		EndDate:   mustDate(t, end),
		Target:    decimal.NewFromInt(target),
		State:     domain.GoalStateActive,
	}
}

func newTx(t *testing.T, day string, amount string) *domain.Transaction {
	t.Helper()
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", day, err)
	}
	return &domain.Transaction{
		ID:     fmt.Sprintf("tx-%s-%s", day, amount),
		GoalID: "goal-1",
		Date:   ts.Add(10 * time.Hour),
		Amount: decimal.RequireFromString(amount),
	}
}

func at(t *testing.T, day string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", day, err)
	}
	return ts.Add(12 * time.Hour)
}

func decimals(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func assertValues(t *testing.T, got []decimal.Decimal, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d values %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(decimal.RequireFromString(want[i])) {
			t.Errorf("value[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func civilDate(tx *domain.Transaction) civil.Date {
	return civil.DateOf(tx.Date.UTC())
}
