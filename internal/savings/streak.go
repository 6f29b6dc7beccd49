package savings

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultStreakWeeksBack is the trailing window used by CurrentStreak.
const DefaultStreakWeeksBack = 6

// Predicate decides whether a week's value continues a streak.
type Predicate func(value decimal.Decimal) bool

// AnySaved holds for any week with a non-zero total.
func AnySaved() Predicate {
	return func(value decimal.Decimal) bool {
		return !value.IsZero()
	}
}

// OnTarget holds for weeks whose total meets or exceeds target.
func OnTarget(target decimal.Decimal) Predicate {
	return func(value decimal.Decimal) bool {
		return value.GreaterThanOrEqual(target)
	}
}

// StreakCounts counts completed runs by length class. A run is counted once,
// in the highest class it reached: 2-3 weeks in Two, 4-5 in Four, 6+ in Six.
type StreakCounts struct {
	Two  int `json:"two"`
	Four int `json:"four"`
	Six  int `json:"six"`
}

// Total returns the number of classified runs.
func (c StreakCounts) Total() int {
	return c.Two + c.Four + c.Six
}

func (c *StreakCounts) record(length int) {
	switch {
	case length >= 6:
		c.Six++
	case length >= 4:
		c.Four++
	case length >= 2:
		c.Two++
	}
}

// DetectStreaks scans weekly values in order and classifies each maximal run
// of weeks satisfying pred when the run breaks. A run still open at the end of
// the sequence is classified as well.
func DetectStreaks(values []decimal.Decimal, pred Predicate) StreakCounts {
	var counts StreakCounts
	streak := 0
	for _, v := range values {
		if pred(v) {
			streak++
			continue
		}
		if streak > 0 {
			counts.record(streak)
		}
		streak = 0
	}
	if streak > 0 {
		counts.record(streak)
	}
	return counts
}

// HighestStreak returns the longest run of weeks satisfying pred.
func HighestStreak(values []decimal.Decimal, pred Predicate) int {
	highest, streak := 0, 0
	for _, v := range values {
		if pred(v) {
			streak++
		} else {
			streak = 0
		}
		if streak > highest {
			highest = streak
		}
	}
	return highest
}

// CurrentStreak counts consecutive active weeks ending at the most recent week
// with a transaction inside the trailing window (now-weeksBack weeks, now].
// Counting stops at the first week without activity. No transactions in the
// window yields 0.
func CurrentStreak(txns []*domain.Transaction, now time.Time, weeksBack int) int {
	if weeksBack <= 0 {
		weeksBack = DefaultStreakWeeksBack
	}
	from := now.AddDate(0, 0, -daysPerWeek*weeksBack)

	seen := make(map[civil.Date]struct{})
	for _, tx := range txns {
		if tx == nil || !tx.Date.After(from) || tx.Date.After(now) {
			continue
		}
		seen[Monday(civil.DateOf(tx.Date.UTC()))] = struct{}{}
	}
	if len(seen) == 0 {
		return 0
	}

	weeks := make([]civil.Date, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].After(weeks[j])
	})

	streak := 1
	for i := 1; i < len(weeks); i++ {
		if weeks[i-1].DaysSince(weeks[i]) != daysPerWeek {
			break
		}
		streak++
	}
	return streak
}
