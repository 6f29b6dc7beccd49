// Package reports builds the program-analytics CSV exports from goal
// metrics and archives them to Cloud Storage.
package reports

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/savings"
)

// GoalHeader is the column order of the goal report.
var GoalHeader = []string{
	"user", "prototype", "name", "target", "value", "progress",
	"weekly_average", "weeks", "weeks_left",
	"weeks_saved", "weeks_saved_below", "weeks_saved_above", "weeks_not_saved",
	"withdrawals", "weekly_target", "start_date", "end_date",
	"is_goal_reached", "is_active",
	"longest_streak", "streaks_2", "streaks_4", "streaks_6",
}

// GoalRow is one goal in the goal report.
type GoalRow struct {
	GoalID        string
	UserID        string
	PrototypeID   string
	Name          string
	Target        string
	Value         string
	Progress      int
	WeeklyAverage string // empty before the goal's first week
	Weeks         int
	WeeksLeft     int
	Breakdown     savings.WeekBreakdown
	WeeklyTarget  string
	StartDate     string
	EndDate       string
	IsGoalReached bool
	IsActive      bool
	LongestStreak int
	OnTarget      savings.StreakCounts
}

// NewGoalRow computes a report row from a goal's metrics.
func NewGoalRow(m *savings.Metrics) (GoalRow, error) {
	g := m.Goal()
	row := GoalRow{
		GoalID:        g.ID,
		UserID:        g.UserID,
		PrototypeID:   g.PrototypeID,
		Name:          g.Name,
		Target:        g.Target.StringFixed(2),
		Value:         m.Value().StringFixed(2),
		Progress:      m.Progress(),
		Weeks:         m.WeekCount(),
		WeeksLeft:     m.WeeksLeft(),
		StartDate:     g.StartDate.String(),
		EndDate:       g.EndDate.String(),
		IsGoalReached: m.IsGoalReached(),
		IsActive:      g.IsActive(),
	}

	avg, err := m.WeeklyAverage()
	switch {
	case errors.Is(err, savings.ErrDivisionByZero):
		// left blank until the first week starts
	case err != nil:
		return row, fmt.Errorf("NewGoalRow: weekly average: %w", err)
	default:
		row.WeeklyAverage = avg.StringFixed(2)
	}

	target, err := m.WeeklyTarget()
	if err != nil {
		return row, fmt.Errorf("NewGoalRow: weekly target: %w", err)
	}
	row.WeeklyTarget = target.StringFixed(2)

	if row.Breakdown, err = m.Breakdown(); err != nil {
		return row, fmt.Errorf("NewGoalRow: breakdown: %w", err)
	}
	streaks, err := m.Streaks()
	if err != nil {
		return row, fmt.Errorf("NewGoalRow: streaks: %w", err)
	}
	row.LongestStreak = streaks.LongestSaved
	row.OnTarget = streaks.OnTarget
	return row, nil
}

// Record renders the row in GoalHeader order.
func (r GoalRow) Record() []string {
	return []string{
		r.UserID, r.PrototypeID, r.Name, r.Target, r.Value, strconv.Itoa(r.Progress),
		r.WeeklyAverage, strconv.Itoa(r.Weeks), strconv.Itoa(r.WeeksLeft),
		strconv.Itoa(r.Breakdown.Saved), strconv.Itoa(r.Breakdown.SavedBelow),
		strconv.Itoa(r.Breakdown.SavedAbove), strconv.Itoa(r.Breakdown.NotSaved),
		strconv.Itoa(r.Breakdown.Withdrawals), r.WeeklyTarget, r.StartDate, r.EndDate,
		strconv.FormatBool(r.IsGoalReached), strconv.FormatBool(r.IsActive),
		strconv.Itoa(r.LongestStreak),
		strconv.Itoa(r.OnTarget.Two), strconv.Itoa(r.OnTarget.Four), strconv.Itoa(r.OnTarget.Six),
	}
}

// EngagementHeader is the column order of the engagement report.
var EngagementHeader = []string{
	"user", "goals", "current_streak",
	"longest_streak_saved", "longest_streak_on_target",
	"streaks_2", "streaks_4", "streaks_6",
}

// EngagementRow aggregates one user's goals.
type EngagementRow struct {
	UserID                string
	Goals                 int
	CurrentStreak         int
	LongestStreakSaved    int
	LongestStreakOnTarget int
	OnTarget              savings.StreakCounts
}

// NewEngagementRow combines the metrics of all of a user's goals. Streak
// counts are summed, longest streaks are the maximum over goals, and the
// current streak is computed over every transaction the user made.
func NewEngagementRow(userID string, goals []*savings.Metrics) (EngagementRow, error) {
	row := EngagementRow{UserID: userID, Goals: len(goals)}
	if len(goals) == 0 {
		return row, nil
	}

	var all []*domain.Transaction
	for _, m := range goals {
		s, err := m.Streaks()
		if err != nil {
			return row, fmt.Errorf("NewEngagementRow: goal %s: %w", m.Goal().ID, err)
		}
		row.LongestStreakSaved = max(row.LongestStreakSaved, s.LongestSaved)
		row.LongestStreakOnTarget = max(row.LongestStreakOnTarget, s.LongestOnTarget)
		row.OnTarget.Two += s.OnTarget.Two
		row.OnTarget.Four += s.OnTarget.Four
		row.OnTarget.Six += s.OnTarget.Six
		all = append(all, m.Transactions()...)
	}
	row.CurrentStreak = savings.CurrentStreak(all, goals[0].Now(), savings.DefaultStreakWeeksBack)
	return row, nil
}

// Record renders the row in EngagementHeader order.
func (r EngagementRow) Record() []string {
	return []string{
		r.UserID, strconv.Itoa(r.Goals), strconv.Itoa(r.CurrentStreak),
		strconv.Itoa(r.LongestStreakSaved), strconv.Itoa(r.LongestStreakOnTarget),
		strconv.Itoa(r.OnTarget.Two), strconv.Itoa(r.OnTarget.Four), strconv.Itoa(r.OnTarget.Six),
	}
}
