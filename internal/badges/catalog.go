package badges

import "github.com/dvloznov/savings-coach/internal/domain"

// Catalog returns the active badge definitions for the configured IDs,
// skipping disabled rules. It mirrors the rows seeded by the BigQuery
// migrations and is used to populate in-memory storage.
func Catalog(s Settings) []domain.Badge {
	defs := []struct {
		id, name, description string
	}{
		{s.GoalFirstCreated, "First goal", "Created your first savings goal"},
		{s.GoalHalfway, "Halfway there", "Saved half of a goal target"},
		{s.GoalWeekLeft, "Final stretch", "One week left to reach a goal"},
		{s.GoalDone, "Goal reached", "Reached a savings goal target"},
		{s.TransactionFirst, "First saving", "Recorded the first saving towards a goal"},
		{s.WeekStreak2, "2 week streak", "Hit the weekly target two weeks in a row"},
		{s.WeekStreak4, "4 week streak", "Hit the weekly target four weeks in a row"},
		{s.WeekStreak6, "6 week streak", "Hit the weekly target six weeks in a row"},
	}

	var badges []domain.Badge
	for _, d := range defs {
		if d.id == "" {
			continue
		}
		badges = append(badges, domain.Badge{
			ID:          d.id,
			Name:        d.name,
			Description: d.description,
			State:       domain.BadgeStateActive,
		})
	}
	return badges
}
