package savings

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Metrics derives scalar properties of a goal from its transactions at a
// fixed point in time.
type Metrics struct {
	goal  *domain.Goal
	txns  []*domain.Transaction
	now   time.Time
	today civil.Date
}

// WeekBreakdown classifies the goal's weeks to date against its weekly target.
type WeekBreakdown struct {
	Saved       int `json:"saved"`       // weeks with a positive total
	SavedBelow  int `json:"saved_below"` // saved, but under the weekly target
	SavedAbove  int `json:"saved_above"` // saved at or above the weekly target
	NotSaved    int `json:"not_saved"`   // weeks with a zero or negative total
	Withdrawals int `json:"withdrawals"` // transactions with a non-positive amount
}

// NewMetrics validates the goal's range and snapshots its transactions
// ordered by (date, id).
func NewMetrics(goal *domain.Goal, txns []*domain.Transaction, now time.Time) (*Metrics, error) {
	if goal == nil {
		return nil, fmt.Errorf("NewMetrics: goal is nil")
	}
	if err := ValidateRange(goal.StartDate, goal.EndDate); err != nil {
		return nil, err
	}

	sorted := make([]*domain.Transaction, 0, len(txns))
	for _, tx := range txns {
		if tx != nil {
			sorted = append(sorted, tx)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	return &Metrics{
		goal:  goal,
		txns:  sorted,
		now:   now,
		today: civil.DateOf(now.UTC()),
	}, nil
}

// Goal returns the goal the metrics were computed for.
func (m *Metrics) Goal() *domain.Goal {
	return m.goal
}

// Transactions returns the ordered transactions.
func (m *Metrics) Transactions() []*domain.Transaction {
	return m.txns
}

// Now returns the instant the metrics were computed at.
func (m *Metrics) Now() time.Time {
	return m.now
}

// Value is the sum of all transaction amounts.
func (m *Metrics) Value() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range m.txns {
		total = total.Add(tx.Amount)
	}
	return total
}

// IsGoalReached reports whether the saved value meets the target.
func (m *Metrics) IsGoalReached() bool {
	return m.Value().GreaterThanOrEqual(m.goal.Target)
}

// Progress is the saved percentage of the target, floored and clamped to
// [0, 100]. A non-positive target has no progress.
func (m *Metrics) Progress() int {
	if !m.goal.Target.IsPositive() {
		return 0
	}
	p := m.Value().Mul(hundred).Div(m.goal.Target).Floor().IntPart()
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}

// WeekCount is the number of Monday-start weeks spanned by the goal.
func (m *Metrics) WeekCount() int {
	return WeekCount(m.goal.StartDate, m.goal.EndDate)
}

// WeekCountToNow counts weeks from the goal's first week through the current
// week. It is clipped to [0, WeekCount]: a goal queried after its end date
// reports WeekCount, one queried before its first week reports 0.
func (m *Metrics) WeekCountToNow() int {
	days := Monday(m.today).DaysSince(Monday(m.goal.StartDate))
	if days < 0 {
		return 0
	}
	n := days/daysPerWeek + 1
	if total := m.WeekCount(); n > total {
		return total
	}
	return n
}

// WeeksLeft is the number of weeks after the current one.
func (m *Metrics) WeeksLeft() int {
	return m.WeekCount() - m.WeekCountToNow()
}

// DaysLeft is the number of days from today until the end date, never negative.
func (m *Metrics) DaysLeft() int {
	d := m.goal.EndDate.DaysSince(m.today)
	if d < 0 {
		return 0
	}
	return d
}

// WeeklyTarget is the goal's override if set, otherwise ceil(target / weeks).
func (m *Metrics) WeeklyTarget() (decimal.Decimal, error) {
	if m.goal.WeeklyTargetOverride != nil {
		return *m.goal.WeeklyTargetOverride, nil
	}
	weeks := m.WeekCount()
	if weeks == 0 {
		return decimal.Zero, ErrDivisionByZero
	}
	return m.goal.Target.Div(decimal.NewFromInt(int64(weeks))).Ceil(), nil
}

// WeeklyAverage is ceil(value / weeks to now). It fails with
// ErrDivisionByZero before the goal's first week.
func (m *Metrics) WeeklyAverage() (decimal.Decimal, error) {
	weeks := m.WeekCountToNow()
	if weeks == 0 {
		return decimal.Zero, ErrDivisionByZero
	}
	return m.Value().Div(decimal.NewFromInt(int64(weeks))).Ceil(), nil
}

// Weekly returns the full-window weekly aggregates.
func (m *Metrics) Weekly() ([]decimal.Decimal, error) {
	return WeeklyAggregates(m.goal, m.txns)
}

// WeeklyToDate returns the weekly aggregates up to now.
func (m *Metrics) WeeklyToDate() ([]decimal.Decimal, error) {
	return WeeklyAggregatesToDate(m.goal, m.txns, m.now)
}

// Breakdown classifies the weeks to date against the weekly target.
func (m *Metrics) Breakdown() (WeekBreakdown, error) {
	var b WeekBreakdown

	target, err := m.WeeklyTarget()
	if err != nil {
		return b, err
	}
	values, err := m.WeeklyToDate()
	if err != nil {
		return b, err
	}

	for _, v := range values {
		switch {
		case !v.IsPositive():
			b.NotSaved++
		case v.GreaterThanOrEqual(target):
			b.Saved++
			b.SavedAbove++
		default:
			b.Saved++
			b.SavedBelow++
		}
	}
	for _, tx := range m.txns {
		if !tx.IsDeposit() {
			b.Withdrawals++
		}
	}
	return b, nil
}

// Streaks bundles both streak notions for a goal's weeks to date.
type Streaks struct {
	LongestSaved    int          `json:"longest_saved"`
	LongestOnTarget int          `json:"longest_on_target"`
	Saved           StreakCounts `json:"saved"`
	OnTarget        StreakCounts `json:"on_target"`
}

// Streaks computes running-maximum and classified streaks over the weeks to
// date under both predicates.
func (m *Metrics) Streaks() (Streaks, error) {
	var s Streaks

	target, err := m.WeeklyTarget()
	if err != nil {
		return s, err
	}
	values, err := m.WeeklyToDate()
	if err != nil {
		return s, err
	}

	anySaved, onTarget := AnySaved(), OnTarget(target)
	s.LongestSaved = HighestStreak(values, anySaved)
	s.LongestOnTarget = HighestStreak(values, onTarget)
	s.Saved = DetectStreaks(values, anySaved)
	s.OnTarget = DetectStreaks(values, onTarget)
	return s, nil
}
