// Package bigquery stores goals, transactions and badges in BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/savings-coach/internal/domain"
)

var (
	_ domain.GoalRepository  = (*BigQueryGoalRepository)(nil)
	_ domain.BadgeRepository = (*BigQueryBadgeRepository)(nil)
)

// NewClient creates a BigQuery client for the given project.
func NewClient(ctx context.Context, projectID string) (*bigquery.Client, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewClient: creating client: %w", err)
	}
	return client, nil
}

// BigQueryGoalRepository is the concrete implementation of domain.GoalRepository
// that interacts with BigQuery. The client is shared and owned by the caller.
type BigQueryGoalRepository struct {
	client    *bigquery.Client
	datasetID string
}

// NewBigQueryGoalRepository creates a goal repository on a shared client.
func NewBigQueryGoalRepository(client *bigquery.Client, datasetID string) *BigQueryGoalRepository {
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &BigQueryGoalRepository{client: client, datasetID: datasetID}
}

// InsertGoal delegates to InsertGoalWithClient.
func (r *BigQueryGoalRepository) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	return InsertGoalWithClient(ctx, r.client, r.datasetID, GoalToRow(goal))
}

// UpdateGoal delegates to UpdateGoalWithClient.
func (r *BigQueryGoalRepository) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	return UpdateGoalWithClient(ctx, r.client, r.datasetID, GoalToRow(goal))
}

// FindGoal delegates to FindGoalWithClient.
func (r *BigQueryGoalRepository) FindGoal(ctx context.Context, goalID string) (*domain.Goal, error) {
	row, err := FindGoalWithClient(ctx, r.client, r.datasetID, goalID)
	if err != nil || row == nil {
		return nil, err
	}
	return GoalFromRow(row)
}

// ListGoalsByUser delegates to ListGoalsByUserWithClient.
func (r *BigQueryGoalRepository) ListGoalsByUser(ctx context.Context, userID string) ([]*domain.Goal, error) {
	rows, err := ListGoalsByUserWithClient(ctx, r.client, r.datasetID, userID)
	if err != nil {
		return nil, err
	}
	return goalsFromRows(rows)
}

// ListAllGoals delegates to ListAllGoalsWithClient.
func (r *BigQueryGoalRepository) ListAllGoals(ctx context.Context) ([]*domain.Goal, error) {
	rows, err := ListAllGoalsWithClient(ctx, r.client, r.datasetID)
	if err != nil {
		return nil, err
	}
	return goalsFromRows(rows)
}

// InsertTransactions drops transactions whose (goal, date, amount) is already
// stored or repeated within the batch, then streams the rest.
func (r *BigQueryGoalRepository) InsertTransactions(ctx context.Context, txns []*domain.Transaction) ([]*domain.Transaction, error) {
	seen := make(map[string]struct{})
	loaded := make(map[string]bool)

	var created []*domain.Transaction
	var rows []*GoalTransactionRow
	for _, t := range txns {
		if !loaded[t.GoalID] {
			existing, err := r.ListTransactions(ctx, t.GoalID)
			if err != nil {
				return nil, fmt.Errorf("InsertTransactions: loading existing: %w", err)
			}
			for _, e := range existing {
				seen[e.DedupKey()] = struct{}{}
			}
			loaded[t.GoalID] = true
		}

		row := TransactionToRow(t)
		stored, err := TransactionFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("InsertTransactions: %w", err)
		}
		key := stored.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		rows = append(rows, row)
		created = append(created, stored)
	}

	if err := InsertGoalTransactionsWithClient(ctx, r.client, r.datasetID, rows); err != nil {
		return nil, err
	}
	return created, nil
}

// ListTransactions delegates to ListGoalTransactionsWithClient.
func (r *BigQueryGoalRepository) ListTransactions(ctx context.Context, goalID string) ([]*domain.Transaction, error) {
	rows, err := ListGoalTransactionsWithClient(ctx, r.client, r.datasetID, goalID)
	if err != nil {
		return nil, err
	}

	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := TransactionFromRow(row)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// BigQueryBadgeRepository is the concrete implementation of domain.BadgeRepository
// that interacts with BigQuery.
type BigQueryBadgeRepository struct {
	client    *bigquery.Client
	datasetID string
}

// NewBigQueryBadgeRepository creates a badge repository on a shared client.
func NewBigQueryBadgeRepository(client *bigquery.Client, datasetID string) *BigQueryBadgeRepository {
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &BigQueryBadgeRepository{client: client, datasetID: datasetID}
}

// FindBadge delegates to FindBadgeWithClient.
func (r *BigQueryBadgeRepository) FindBadge(ctx context.Context, badgeID string) (*domain.Badge, error) {
	row, err := FindBadgeWithClient(ctx, r.client, r.datasetID, badgeID)
	if err != nil || row == nil {
		return nil, err
	}
	return BadgeFromRow(row), nil
}

// FindUserBadge delegates to FindUserBadgeWithClient.
func (r *BigQueryBadgeRepository) FindUserBadge(ctx context.Context, userID, badgeID string) (*domain.UserBadge, error) {
	row, err := FindUserBadgeWithClient(ctx, r.client, r.datasetID, userID, badgeID)
	if err != nil || row == nil {
		return nil, err
	}
	return UserBadgeFromRow(row), nil
}

// InsertUserBadge delegates to InsertUserBadgeWithClient.
func (r *BigQueryBadgeRepository) InsertUserBadge(ctx context.Context, ub *domain.UserBadge) error {
	return InsertUserBadgeWithClient(ctx, r.client, r.datasetID, UserBadgeToRow(ub))
}

// ListUserBadges delegates to ListUserBadgesWithClient.
func (r *BigQueryBadgeRepository) ListUserBadges(ctx context.Context, userID string) ([]*domain.UserBadge, error) {
	rows, err := ListUserBadgesWithClient(ctx, r.client, r.datasetID, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.UserBadge, 0, len(rows))
	for _, row := range rows {
		result = append(result, UserBadgeFromRow(row))
	}
	return result, nil
}

// DeleteUserBadges delegates to DeleteUserBadgesWithClient.
func (r *BigQueryBadgeRepository) DeleteUserBadges(ctx context.Context, userID string) (int, error) {
	return DeleteUserBadgesWithClient(ctx, r.client, r.datasetID, userID)
}

func goalsFromRows(rows []*GoalRow) ([]*domain.Goal, error) {
	goals := make([]*domain.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := GoalFromRow(row)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}
