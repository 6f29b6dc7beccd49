// Package savings computes weekly savings aggregates, streaks and derived
// goal metrics. Every function is pure: callers load transactions first and
// pass them in.
package savings

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/shopspring/decimal"
)

const daysPerWeek = 7

// WeekBucket is one Monday-to-Sunday week overlapping a goal's window.
type WeekBucket struct {
	Index int        // 1-based
	Start civil.Date // Monday
	End   civil.Date // Sunday
	Value decimal.Decimal
}

// Contains reports whether d falls within the bucket, bounds inclusive.
func (b WeekBucket) Contains(d civil.Date) bool {
	return !d.Before(b.Start) && !d.After(b.End)
}

// Monday returns the Monday on or before d.
func Monday(d civil.Date) civil.Date {
	// time.Weekday counts from Sunday; shift so Monday is day 0.
	offset := (int(d.In(time.UTC).Weekday()) + 6) % daysPerWeek
	return d.AddDays(-offset)
}

// WeekCount returns the number of Monday-start weeks spanned by [start, end].
// The range must already be valid.
func WeekCount(start, end civil.Date) int {
	return Monday(end).DaysSince(Monday(start))/daysPerWeek + 1
}

// WeekBuckets returns empty buckets covering [start, end]. The last bucket is
// the first one whose End is on or after end, so it may run past end.
func WeekBuckets(start, end civil.Date) ([]WeekBucket, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}

	buckets := make([]WeekBucket, 0, WeekCount(start, end))
	for s := Monday(start); ; s = s.AddDays(daysPerWeek) {
		b := WeekBucket{
			Index: len(buckets) + 1,
			Start: s,
			End:   s.AddDays(daysPerWeek - 1),
			Value: decimal.Zero,
		}
		buckets = append(buckets, b)
		if !b.End.Before(end) {
			break
		}
	}
	return buckets, nil
}

// WeeklyBuckets buckets the goal's full window and sums each transaction into
// the bucket starting on the transaction's Monday. Days are taken in UTC
// whatever the timestamp's location. Transactions outside every bucket are
// ignored.
func WeeklyBuckets(goal *domain.Goal, txns []*domain.Transaction) ([]WeekBucket, error) {
	if goal == nil {
		return nil, fmt.Errorf("WeeklyBuckets: goal is nil")
	}
	buckets, err := WeekBuckets(goal.StartDate, goal.EndDate)
	if err != nil {
		return nil, err
	}
	fill(buckets, txns)
	return buckets, nil
}

// WeeklyAggregates returns the per-week totals for the goal's full window,
// first week first.
func WeeklyAggregates(goal *domain.Goal, txns []*domain.Transaction) ([]decimal.Decimal, error) {
	buckets, err := WeeklyBuckets(goal, txns)
	if err != nil {
		return nil, err
	}
	return Values(buckets), nil
}

// WeeklyBucketsToDate is WeeklyBuckets with the window ending at now, or at
// the goal's end date if that comes first. The week containing the window end
// is included. A goal that has not started yet still yields its first week.
func WeeklyBucketsToDate(goal *domain.Goal, txns []*domain.Transaction, now time.Time) ([]WeekBucket, error) {
	if goal == nil {
		return nil, fmt.Errorf("WeeklyBucketsToDate: goal is nil")
	}
	if err := ValidateRange(goal.StartDate, goal.EndDate); err != nil {
		return nil, err
	}

	end := civil.DateOf(now.UTC())
	if goal.EndDate.Before(end) {
		end = goal.EndDate
	}
	if end.Before(goal.StartDate) {
		end = goal.StartDate
	}

	buckets, err := WeekBuckets(goal.StartDate, end)
	if err != nil {
		return nil, err
	}
	fill(buckets, txns)
	return buckets, nil
}

// WeeklyAggregatesToDate returns the per-week totals up to now.
func WeeklyAggregatesToDate(goal *domain.Goal, txns []*domain.Transaction, now time.Time) ([]decimal.Decimal, error) {
	buckets, err := WeeklyBucketsToDate(goal, txns, now)
	if err != nil {
		return nil, err
	}
	return Values(buckets), nil
}

// Values extracts bucket values in order.
func Values(buckets []WeekBucket) []decimal.Decimal {
	values := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		values[i] = b.Value
	}
	return values
}

func fill(buckets []WeekBucket, txns []*domain.Transaction) {
	byStart := make(map[civil.Date]int, len(buckets))
	for i, b := range buckets {
		byStart[b.Start] = i
	}

	for _, tx := range txns {
		if tx == nil {
			continue
		}
		i, ok := byStart[Monday(civil.DateOf(tx.Date.UTC()))]
		if !ok {
			continue
		}
		buckets[i].Value = buckets[i].Value.Add(tx.Amount)
	}
}
