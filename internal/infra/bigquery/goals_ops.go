package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	// DefaultDatasetID is used when no dataset is configured.
	DefaultDatasetID = "savings"

	goalsTable            = "goals"
	goalTransactionsTable = "goal_transactions"
	badgesTable           = "badges"
	userBadgesTable       = "user_badges"
)

const goalColumns = `
	goal_id,
	user_id,
	name,
	prototype_id,
	start_date,
	end_date,
	target,
	weekly_target_override,
	state,
	created_ts`

// InsertGoalWithClient inserts a goal with a DML statement so that it can be
// updated right away (streamed rows cannot be modified while buffered).
func InsertGoalWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *GoalRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s (%s)
		VALUES (
			@goal_id,
			@user_id,
			@name,
			@prototype_id,
			@start_date,
			@end_date,
			@target,
			SAFE_CAST(@weekly_target_override AS NUMERIC),
			@state,
			@created_ts
		)
	`, tableRef(client, datasetID, goalsTable), goalColumns))
	q.Parameters = goalParameters(row)

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertGoal: %w", err)
	}
	return nil
}

// UpdateGoalWithClient overwrites the mutable columns of an existing goal.
func UpdateGoalWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *GoalRow) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET
			name = @name,
			prototype_id = @prototype_id,
			start_date = @start_date,
			end_date = @end_date,
			target = @target,
			weekly_target_override = SAFE_CAST(@weekly_target_override AS NUMERIC),
			state = @state
		WHERE goal_id = @goal_id
	`, tableRef(client, datasetID, goalsTable)))
	q.Parameters = goalParameters(row)

	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateGoal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateGoal: goal not found: %s", row.GoalID)
	}
	return nil
}

// FindGoalWithClient returns the goal with the given ID, or nil if none exists.
func FindGoalWithClient(ctx context.Context, client *bigquery.Client, datasetID, goalID string) (*GoalRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE goal_id = @goal_id
		LIMIT 1
	`, goalColumns, tableRef(client, datasetID, goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: goalID},
	}

	rows, err := readGoals(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("FindGoal: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListGoalsByUserWithClient returns a user's goals ordered by creation time.
func ListGoalsByUserWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string) ([]*GoalRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, goal_id
	`, goalColumns, tableRef(client, datasetID, goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readGoals(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListGoalsByUser: %w", err)
	}
	return rows, nil
}

// ListAllGoalsWithClient returns every goal ordered by creation time.
func ListAllGoalsWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]*GoalRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_ts, goal_id
	`, goalColumns, tableRef(client, datasetID, goalsTable)))

	rows, err := readGoals(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListAllGoals: %w", err)
	}
	return rows, nil
}

func goalParameters(row *GoalRow) []bigquery.QueryParameter {
	override := bigquery.NullString{}
	if row.WeeklyTargetOverride != nil {
		override = bigquery.NullString{StringVal: row.WeeklyTargetOverride.FloatString(numericScale), Valid: true}
	}

	return []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "user_id", Value: row.UserID},
		{Name: "name", Value: row.Name},
		{Name: "prototype_id", Value: row.PrototypeID},
		{Name: "start_date", Value: row.StartDate},
		{Name: "end_date", Value: row.EndDate},
		{Name: "target", Value: row.Target},
		{Name: "weekly_target_override", Value: override},
		{Name: "state", Value: row.State},
		{Name: "created_ts", Value: row.CreatedTS},
	}
}

func readGoals(ctx context.Context, q *bigquery.Query) ([]*GoalRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []*GoalRow
	for {
		var r GoalRow
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
