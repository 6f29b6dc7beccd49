package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// FindBadgeWithClient returns the badge with the given ID, or nil.
func FindBadgeWithClient(ctx context.Context, client *bigquery.Client, datasetID, badgeID string) (*BadgeRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT badge_id, name, description, state
		FROM %s
		WHERE badge_id = @badge_id
		LIMIT 1
	`, tableRef(client, datasetID, badgesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "badge_id", Value: badgeID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindBadge: query read: %w", err)
	}

	var row BadgeRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindBadge: iter next: %w", err)
	}
	return &row, nil
}

// FindUserBadgeWithClient returns the user's award of a badge, or nil.
func FindUserBadgeWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID, badgeID string) (*UserBadgeRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT user_badge_id, user_id, badge_id, goal_id, awarded_ts
		FROM %s
		WHERE user_id = @user_id AND badge_id = @badge_id
		LIMIT 1
	`, tableRef(client, datasetID, userBadgesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "badge_id", Value: badgeID},
	}

	rows, err := readUserBadges(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("FindUserBadge: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// InsertUserBadgeWithClient records an award. Awards are deleted by
// DeleteUserBadgesWithClient, so they are written with DML instead of streaming.
func InsertUserBadgeWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *UserBadgeRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s (user_badge_id, user_id, badge_id, goal_id, awarded_ts)
		VALUES (@user_badge_id, @user_id, @badge_id, @goal_id, @awarded_ts)
	`, tableRef(client, datasetID, userBadgesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_badge_id", Value: row.UserBadgeID},
		{Name: "user_id", Value: row.UserID},
		{Name: "badge_id", Value: row.BadgeID},
		{Name: "goal_id", Value: row.GoalID},
		{Name: "awarded_ts", Value: row.AwardedTS},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertUserBadge: %w", err)
	}
	return nil
}

// ListUserBadgesWithClient returns the user's awards whose badge is active.
func ListUserBadgesWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string) ([]*UserBadgeRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT ub.user_badge_id, ub.user_id, ub.badge_id, ub.goal_id, ub.awarded_ts
		FROM %s ub
		INNER JOIN %s b
		  ON ub.badge_id = b.badge_id
		WHERE ub.user_id = @user_id
		  AND b.state = 'ACTIVE'
		ORDER BY ub.awarded_ts, ub.badge_id
	`, tableRef(client, datasetID, userBadgesTable), tableRef(client, datasetID, badgesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readUserBadges(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListUserBadges: %w", err)
	}
	return rows, nil
}

func readUserBadges(ctx context.Context, q *bigquery.Query) ([]*UserBadgeRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []*UserBadgeRow
	for {
		var r UserBadgeRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
