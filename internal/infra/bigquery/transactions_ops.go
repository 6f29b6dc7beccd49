package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertGoalTransactionsWithClient streams transaction rows into
// goal_transactions. The transaction ID doubles as the streaming insert ID.
func InsertGoalTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*GoalTransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	schema, err := bigquery.InferSchema(GoalTransactionRow{})
	if err != nil {
		return fmt.Errorf("InsertGoalTransactions: inferring schema: %w", err)
	}

	savers := make([]*bigquery.StructSaver, 0, len(rows))
	for _, r := range rows {
		savers = append(savers, &bigquery.StructSaver{
			Schema:   schema,
			InsertID: r.TransactionID,
			Struct:   r,
		})
	}

	inserter := client.Dataset(datasetID).Table(goalTransactionsTable).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("InsertGoalTransactions: inserting rows: %w", err)
	}
	return nil
}

// ListGoalTransactionsWithClient returns a goal's transactions ordered by
// (transaction_ts, transaction_id).
func ListGoalTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID, goalID string) ([]*GoalTransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			goal_id,
			transaction_ts,
			amount,
			created_ts
		FROM %s
		WHERE goal_id = @goal_id
		ORDER BY transaction_ts, transaction_id
	`, tableRef(client, datasetID, goalTransactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: goalID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoalTransactions: query read: %w", err)
	}

	var rows []*GoalTransactionRow
	for {
		var r GoalTransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoalTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
