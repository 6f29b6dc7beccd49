package domain

import "context"

// GoalRepository persists goals and their transactions.
// Find methods return nil without an error when nothing matches.
type GoalRepository interface {
	// InsertGoal stores a new goal.
	InsertGoal(ctx context.Context, goal *Goal) error

	// UpdateGoal overwrites an existing goal.
	UpdateGoal(ctx context.Context, goal *Goal) error

	// FindGoal returns the goal with the given ID, or nil.
	FindGoal(ctx context.Context, goalID string) (*Goal, error)

	// ListGoalsByUser returns all goals owned by a user, active or not.
	ListGoalsByUser(ctx context.Context, userID string) ([]*Goal, error)

	// ListAllGoals returns every goal, ordered by creation time.
	ListAllGoals(ctx context.Context) ([]*Goal, error)

	// InsertTransactions stores transactions, skipping any whose
	// (goal, date, amount) already exists. It returns the stored ones.
	InsertTransactions(ctx context.Context, txns []*Transaction) ([]*Transaction, error)

	// ListTransactions returns a goal's transactions ordered by (date, id).
	ListTransactions(ctx context.Context, goalID string) ([]*Transaction, error)
}

// BadgeRepository persists badge reference data and user awards.
type BadgeRepository interface {
	// FindBadge returns the badge with the given ID, or nil.
	FindBadge(ctx context.Context, badgeID string) (*Badge, error)

	// FindUserBadge returns the user's award of a badge, or nil.
	FindUserBadge(ctx context.Context, userID, badgeID string) (*UserBadge, error)

	// InsertUserBadge stores a new award.
	InsertUserBadge(ctx context.Context, ub *UserBadge) error

	// ListUserBadges returns the user's awards for active badges.
	ListUserBadges(ctx context.Context, userID string) ([]*UserBadge, error)

	// DeleteUserBadges removes all of a user's awards and returns how many.
	DeleteUserBadges(ctx context.Context, userID string) (int, error)
}
