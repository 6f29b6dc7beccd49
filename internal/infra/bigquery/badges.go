package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

type BadgeRow struct {
	BadgeID     string              `bigquery:"badge_id"`    // REQUIRED
	Name        string              `bigquery:"name"`        // REQUIRED
	Description bigquery.NullString `bigquery:"description"` // NULLABLE
	State       string              `bigquery:"state"`       // REQUIRED (ACTIVE | INACTIVE)
}

type UserBadgeRow struct {
	UserBadgeID string              `bigquery:"user_badge_id"` // REQUIRED
	UserID      string              `bigquery:"user_id"`       // REQUIRED
	BadgeID     string              `bigquery:"badge_id"`      // REQUIRED
	GoalID      bigquery.NullString `bigquery:"goal_id"`       // NULLABLE
	AwardedTS   time.Time           `bigquery:"awarded_ts"`    // REQUIRED
}
