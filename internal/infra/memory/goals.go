// Package memory provides map-backed repositories used when no BigQuery
// project is configured, and as fixtures in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/savings-coach/internal/domain"
)

// GoalRepository is an in-memory domain.GoalRepository. It is safe for
// concurrent use. Data is lost on restart.
type GoalRepository struct {
	mu    sync.RWMutex
	goals map[string]*domain.Goal
	txns  map[string][]*domain.Transaction // by goal ID
	keys  map[string]struct{}              // transaction dedup keys
}

// NewGoalRepository creates an empty repository.
func NewGoalRepository() *GoalRepository {
	return &GoalRepository{
		goals: make(map[string]*domain.Goal),
		txns:  make(map[string][]*domain.Transaction),
		keys:  make(map[string]struct{}),
	}
}

// InsertGoal implements domain.GoalRepository.
func (r *GoalRepository) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == "" {
		return fmt.Errorf("goal ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.goals[goal.ID]; exists {
		return fmt.Errorf("goal already exists: %s", goal.ID)
	}
	r.goals[goal.ID] = copyGoal(goal)
	return nil
}

// UpdateGoal implements domain.GoalRepository.
func (r *GoalRepository) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.goals[goal.ID]; !exists {
		return fmt.Errorf("goal not found: %s", goal.ID)
	}
	r.goals[goal.ID] = copyGoal(goal)
	return nil
}

// FindGoal implements domain.GoalRepository.
func (r *GoalRepository) FindGoal(ctx context.Context, goalID string) (*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goal, exists := r.goals[goalID]
	if !exists {
		return nil, nil
	}
	return copyGoal(goal), nil
}

// ListGoalsByUser implements domain.GoalRepository.
func (r *GoalRepository) ListGoalsByUser(ctx context.Context, userID string) ([]*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Goal
	for _, g := range r.goals {
		if g.UserID == userID {
			result = append(result, copyGoal(g))
		}
	}
	sortGoals(result)
	return result, nil
}

// ListAllGoals implements domain.GoalRepository.
func (r *GoalRepository) ListAllGoals(ctx context.Context) ([]*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Goal, 0, len(r.goals))
	for _, g := range r.goals {
		result = append(result, copyGoal(g))
	}
	sortGoals(result)
	return result, nil
}

// InsertTransactions implements domain.GoalRepository.
func (r *GoalRepository) InsertTransactions(ctx context.Context, txns []*domain.Transaction) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored []*domain.Transaction
	for _, tx := range txns {
		if tx.ID == "" {
			return stored, fmt.Errorf("transaction ID is required")
		}
		if _, exists := r.goals[tx.GoalID]; !exists {
			return stored, fmt.Errorf("goal not found: %s", tx.GoalID)
		}
		key := tx.DedupKey()
		if _, dup := r.keys[key]; dup {
			continue
		}
		r.keys[key] = struct{}{}

		txCopy := *tx
		r.txns[tx.GoalID] = append(r.txns[tx.GoalID], &txCopy)
		stored = append(stored, tx)
	}
	return stored, nil
}

// ListTransactions implements domain.GoalRepository.
func (r *GoalRepository) ListTransactions(ctx context.Context, goalID string) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.txns[goalID]
	result := make([]*domain.Transaction, 0, len(src))
	for _, tx := range src {
		txCopy := *tx
		result = append(result, &txCopy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func copyGoal(g *domain.Goal) *domain.Goal {
	c := *g
	if g.WeeklyTargetOverride != nil {
		o := *g.WeeklyTargetOverride
		c.WeeklyTargetOverride = &o
	}
	return &c
}

func sortGoals(goals []*domain.Goal) {
	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.Before(goals[j].CreatedAt)
		}
		return goals[i].ID < goals[j].ID
	})
}

var _ domain.GoalRepository = (*GoalRepository)(nil)
