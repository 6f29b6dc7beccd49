package goals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/shopspring/decimal"
)

// Week is one Monday-start week of a goal and the amount saved in it.
type Week struct {
	Index int             `json:"index"`
	Start civil.Date      `json:"start"`
	End   civil.Date      `json:"end"`
	Value decimal.Decimal `json:"value"`
}

// Summary is a goal's metrics at a point in time.
type Summary struct {
	Goal           *domain.Goal          `json:"-"`
	Value          decimal.Decimal       `json:"value"`
	Progress       int                   `json:"progress"`
	IsGoalReached  bool                  `json:"is_goal_reached"`
	WeekCount      int                   `json:"week_count"`
	WeekCountToNow int                   `json:"week_count_to_now"`
	WeeksLeft      int                   `json:"weeks_left"`
	DaysLeft       int                   `json:"days_left"`
	WeeklyTarget   decimal.Decimal       `json:"weekly_target"`
	WeeklyAverage  *decimal.Decimal      `json:"weekly_average"` // nil before the first week
	CurrentStreak  int                   `json:"current_streak"`
	Weeks          []Week                `json:"weeks"`
	Breakdown      savings.WeekBreakdown `json:"breakdown"`
	Streaks        savings.Streaks       `json:"streaks"`
}

// Summary computes a goal's full summary at now.
func (s *Service) Summary(ctx context.Context, goalID string, now time.Time) (*Summary, error) {
	m, err := s.Metrics(ctx, goalID, now)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	sum, err := Summarize(m)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	return sum, nil
}

// Summarize derives a Summary from precomputed metrics.
func Summarize(m *savings.Metrics) (*Summary, error) {
	target, err := m.WeeklyTarget()
	if err != nil {
		return nil, fmt.Errorf("weekly target: %w", err)
	}

	sum := &Summary{
		Goal:           m.Goal(),
		Value:          m.Value(),
		Progress:       m.Progress(),
		IsGoalReached:  m.IsGoalReached(),
		WeekCount:      m.WeekCount(),
		WeekCountToNow: m.WeekCountToNow(),
		WeeksLeft:      m.WeeksLeft(),
		DaysLeft:       m.DaysLeft(),
		WeeklyTarget:   target,
	}

	avg, err := m.WeeklyAverage()
	switch {
	case errors.Is(err, savings.ErrDivisionByZero):
		// no week has started yet
	case err != nil:
		return nil, fmt.Errorf("weekly average: %w", err)
	default:
		sum.WeeklyAverage = &avg
	}

	buckets, err := savings.WeeklyBuckets(m.Goal(), m.Transactions())
	if err != nil {
		return nil, fmt.Errorf("weekly buckets: %w", err)
	}
	for _, b := range buckets {
		sum.Weeks = append(sum.Weeks, Week{Index: b.Index, Start: b.Start, End: b.End, Value: b.Value})
	}

	if sum.Breakdown, err = m.Breakdown(); err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}
	if sum.Streaks, err = m.Streaks(); err != nil {
		return nil, fmt.Errorf("streaks: %w", err)
	}
	sum.CurrentStreak = savings.CurrentStreak(m.Transactions(), m.Now(), savings.DefaultStreakWeeksBack)
	return sum, nil
}

// Achievements is a user's current weekly streak and active badges.
type Achievements struct {
	UserID       string              `json:"user_id"`
	WeeklyStreak int                 `json:"weekly_streak"`
	Badges       []*domain.UserBadge `json:"badges"`
}

// Achievements computes the user's streak across all of their goals'
// transactions and lists their badges.
func (s *Service) Achievements(ctx context.Context, userID string, now time.Time) (*Achievements, error) {
	goals, err := s.goals.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Achievements: listing goals: %w", err)
	}

	var all []*domain.Transaction
	for _, g := range goals {
		txns, err := s.goals.ListTransactions(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("Achievements: listing transactions for goal %s: %w", g.ID, err)
		}
		all = append(all, txns...)
	}

	held, err := s.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Achievements: listing badges: %w", err)
	}

	return &Achievements{
		UserID:       userID,
		WeeklyStreak: savings.CurrentStreak(all, now, savings.DefaultStreakWeeksBack),
		Badges:       held,
	}, nil
}
