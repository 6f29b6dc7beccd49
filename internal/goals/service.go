// Package goals is the application service over goals, transactions and
// badges. HTTP handlers, the CLI and the report jobs all go through it.
package goals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/badges"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrGoalNotFound is returned when a goal ID does not exist.
	ErrGoalNotFound = errors.New("goal not found")
	// ErrGoalDeleted is returned when reading or editing a deactivated goal.
	// It matches ErrGoalNotFound with errors.Is.
	ErrGoalDeleted = fmt.Errorf("goal has been deleted: %w", ErrGoalNotFound)
	// ErrGoalInactive is returned when writing to a deactivated goal.
	ErrGoalInactive = errors.New("goal is inactive")
	// ErrInvalidInput is returned for malformed create requests.
	ErrInvalidInput = errors.New("invalid input")
)

// Awarder evaluates badge rules. Implemented by *badges.Awarder.
type Awarder interface {
	Award(ctx context.Context, trig badges.Trigger) (*badges.Result, error)
}

// Service coordinates repositories, metrics and badge awards.
type Service struct {
	goals      domain.GoalRepository
	badges     domain.BadgeRepository
	awarder    Awarder
	prototypes []domain.GoalPrototype
	now        func() time.Time
}

// NewService creates a goals service. awarder may be nil to disable badges.
func NewService(goals domain.GoalRepository, badgeRepo domain.BadgeRepository, awarder Awarder) *Service {
	return &Service{
		goals:   goals,
		badges:  badgeRepo,
		awarder: awarder,
		now:     time.Now,
	}
}

// SetPrototypes installs the goal prototype catalog. With a non-empty catalog,
// new goals may only reference its active prototypes.
func (s *Service) SetPrototypes(prototypes []domain.GoalPrototype) {
	s.prototypes = append([]domain.GoalPrototype(nil), prototypes...)
}

// Prototypes returns the active prototypes in catalog order.
func (s *Service) Prototypes() []domain.GoalPrototype {
	out := make([]domain.GoalPrototype, 0, len(s.prototypes))
	for _, p := range s.prototypes {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) checkPrototype(id string) error {
	if id == "" || len(s.prototypes) == 0 {
		return nil
	}
	for _, p := range s.prototypes {
		if p.ID == id && p.Active {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown prototype %q", ErrInvalidInput, id)
}

// CreateGoalInput holds the fields a user supplies for a new goal.
type CreateGoalInput struct {
	UserID       string
	Name         string
	PrototypeID  string
	StartDate    civil.Date
	EndDate      civil.Date
	Target       decimal.Decimal
	WeeklyTarget *decimal.Decimal
}

// CreateGoalResult is the stored goal and any badges its creation earned.
type CreateGoalResult struct {
	Goal      *domain.Goal
	NewBadges []domain.UserBadge
}

// CreateGoal validates and stores a new active goal.
func (s *Service) CreateGoal(ctx context.Context, in CreateGoalInput) (*CreateGoalResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("CreateGoal: %w: user_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("CreateGoal: %w: name is required", ErrInvalidInput)
	}
	if !in.StartDate.IsValid() || !in.EndDate.IsValid() {
		return nil, fmt.Errorf("CreateGoal: %w: start_date and end_date are required", ErrInvalidInput)
	}
	if err := savings.ValidateRange(in.StartDate, in.EndDate); err != nil {
		return nil, fmt.Errorf("CreateGoal: %w: %w", ErrInvalidInput, err)
	}
	if !in.Target.IsPositive() {
		return nil, fmt.Errorf("CreateGoal: %w: target must be positive", ErrInvalidInput)
	}
	if in.WeeklyTarget != nil && in.WeeklyTarget.IsNegative() {
		return nil, fmt.Errorf("CreateGoal: %w: weekly_target must not be negative", ErrInvalidInput)
	}
	if err := s.checkPrototype(in.PrototypeID); err != nil {
		return nil, fmt.Errorf("CreateGoal: %w", err)
	}

	now := s.now()
	goal := &domain.Goal{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Name:        strings.TrimSpace(in.Name),
		PrototypeID: in.PrototypeID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Target:      in.Target.Round(2),
		State:       domain.GoalStateActive,
		CreatedAt:   now,
	}
	if in.WeeklyTarget != nil {
		wt := in.WeeklyTarget.Round(2)
		goal.WeeklyTargetOverride = &wt
	}

	if err := s.goals.InsertGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("CreateGoal: inserting goal: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("goal_id", goal.ID).
		Str("user_id", goal.UserID).
		Str("target", goal.Target.StringFixed(2)).
		Msg("Goal created")

	result := &CreateGoalResult{Goal: goal}
	if s.awarder == nil {
		return result, nil
	}

	m, err := savings.NewMetrics(goal, nil, now)
	if err != nil {
		return nil, fmt.Errorf("CreateGoal: metrics: %w", err)
	}
	award, err := s.awarder.Award(ctx, badges.Trigger{
		Event:  badges.EventGoalCreated,
		UserID: goal.UserID,
		Goal:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateGoal: awarding badges: %w", err)
	}
	result.NewBadges = award.NewBadges
	return result, nil
}

// GetGoal returns an active goal. Unknown IDs give ErrGoalNotFound and
// deactivated goals give ErrGoalDeleted.
func (s *Service) GetGoal(ctx context.Context, goalID string) (*domain.Goal, error) {
	goal, err := s.findGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("GetGoal: %w", err)
	}
	if !goal.IsActive() {
		return nil, fmt.Errorf("GetGoal: %s: %w", goalID, ErrGoalDeleted)
	}
	return goal, nil
}

// findGoal returns a goal in any state, or ErrGoalNotFound.
func (s *Service) findGoal(ctx context.Context, goalID string) (*domain.Goal, error) {
	goal, err := s.goals.FindGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, fmt.Errorf("%s: %w", goalID, ErrGoalNotFound)
	}
	return goal, nil
}

// ListGoals returns a user's active goals ordered by start date. With
// includeInactive, deactivated goals are listed too.
func (s *Service) ListGoals(ctx context.Context, userID string, includeInactive bool) ([]*domain.Goal, error) {
	all, err := s.goals.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}

	list := make([]*domain.Goal, 0, len(all))
	for _, g := range all {
		if includeInactive || g.IsActive() {
			list = append(list, g)
		}
	}
	// Stable, so goals starting on the same day keep creation order.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartDate.Before(list[j].StartDate)
	})
	return list, nil
}

// UpdateGoalInput holds the editable fields of a goal. Nil fields are left
// unchanged.
type UpdateGoalInput struct {
	Name      *string
	StartDate *civil.Date
	EndDate   *civil.Date
	Target    *decimal.Decimal
}

// UpdateGoal edits an active goal and re-validates its date range.
func (s *Service) UpdateGoal(ctx context.Context, goalID string, in UpdateGoalInput) (*domain.Goal, error) {
	goal, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("UpdateGoal: %w", err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("UpdateGoal: %w: name must not be blank", ErrInvalidInput)
		}
		goal.Name = name
	}
	if in.StartDate != nil {
		goal.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		goal.EndDate = *in.EndDate
	}
	if !goal.StartDate.IsValid() || !goal.EndDate.IsValid() {
		return nil, fmt.Errorf("UpdateGoal: %w: start_date and end_date must be valid dates", ErrInvalidInput)
	}
	if err := savings.ValidateRange(goal.StartDate, goal.EndDate); err != nil {
		return nil, fmt.Errorf("UpdateGoal: %w: %w", ErrInvalidInput, err)
	}
	if in.Target != nil {
		if !in.Target.IsPositive() {
			return nil, fmt.Errorf("UpdateGoal: %w: target must be positive", ErrInvalidInput)
		}
		goal.Target = in.Target.Round(2)
	}

	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("UpdateGoal: updating goal: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("goal_id", goal.ID).
		Str("start_date", goal.StartDate.String()).
		Str("end_date", goal.EndDate.String()).
		Msg("Goal updated")
	return goal, nil
}

// Deactivate soft-deletes a goal. Deactivating twice is a no-op.
func (s *Service) Deactivate(ctx context.Context, goalID string) (*domain.Goal, error) {
	goal, err := s.findGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("Deactivate: %w", err)
	}
	if !goal.IsActive() {
		return goal, nil
	}

	goal.Deactivate()
	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("Deactivate: updating goal: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().Str("goal_id", goalID).Msg("Goal deactivated")
	return goal, nil
}

// TransactionInput is one deposit or withdrawal to record.
type TransactionInput struct {
	Date   time.Time
	Amount decimal.Decimal
}

// TransactionsResult reports what AddTransactions stored.
type TransactionsResult struct {
	Created    []*domain.Transaction
	Duplicates int
	NewBadges  []domain.UserBadge
}

// AddTransactions records transactions against an active goal. Identical
// (date, amount) submissions are skipped and counted as duplicates.
func (s *Service) AddTransactions(ctx context.Context, goalID string, inputs []TransactionInput) (*TransactionsResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("AddTransactions: %w: no transactions", ErrInvalidInput)
	}

	goal, err := s.findGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("AddTransactions: %w", err)
	}
	if !goal.IsActive() {
		return nil, fmt.Errorf("AddTransactions: %s: %w", goalID, ErrGoalInactive)
	}

	now := s.now()
	txns := make([]*domain.Transaction, 0, len(inputs))
	for i, in := range inputs {
		if in.Date.IsZero() {
			return nil, fmt.Errorf("AddTransactions: %w: transaction %d has no date", ErrInvalidInput, i)
		}
		txns = append(txns, &domain.Transaction{
			ID:        uuid.NewString(),
			GoalID:    goal.ID,
			Date:      in.Date.UTC(),
			Amount:    in.Amount.Round(2),
			CreatedAt: now,
		})
	}

	created, err := s.goals.InsertTransactions(ctx, txns)
	if err != nil {
		return nil, fmt.Errorf("AddTransactions: inserting: %w", err)
	}

	result := &TransactionsResult{
		Created:    created,
		Duplicates: len(txns) - len(created),
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("goal_id", goal.ID).
		Int("created", len(created)).
		Int("duplicates", result.Duplicates).
		Msg("Transactions recorded")

	if s.awarder == nil || len(created) == 0 {
		return result, nil
	}

	m, err := s.metrics(ctx, goal, now)
	if err != nil {
		return nil, fmt.Errorf("AddTransactions: %w", err)
	}
	userGoals, err := s.activeMetrics(ctx, goal.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("AddTransactions: %w", err)
	}
	award, err := s.awarder.Award(ctx, badges.Trigger{
		Event:     badges.EventTransactions,
		UserID:    goal.UserID,
		Goal:      m,
		UserGoals: userGoals,
	})
	if err != nil {
		return nil, fmt.Errorf("AddTransactions: awarding badges: %w", err)
	}
	result.NewBadges = award.NewBadges
	return result, nil
}

// Transactions returns a goal's transactions ordered by (date, id). The
// history of deactivated goals stays readable.
func (s *Service) Transactions(ctx context.Context, goalID string) ([]*domain.Transaction, error) {
	if _, err := s.findGoal(ctx, goalID); err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	txns, err := s.goals.ListTransactions(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	return txns, nil
}

// Metrics loads an active goal's transactions and computes its metrics at now.
func (s *Service) Metrics(ctx context.Context, goalID string, now time.Time) (*savings.Metrics, error) {
	goal, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("Metrics: %w", err)
	}
	return s.metrics(ctx, goal, now)
}

func (s *Service) metrics(ctx context.Context, goal *domain.Goal, now time.Time) (*savings.Metrics, error) {
	txns, err := s.goals.ListTransactions(ctx, goal.ID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for goal %s: %w", goal.ID, err)
	}
	m, err := savings.NewMetrics(goal, txns, now)
	if err != nil {
		return nil, fmt.Errorf("metrics for goal %s: %w", goal.ID, err)
	}
	return m, nil
}

func (s *Service) activeMetrics(ctx context.Context, userID string, now time.Time) ([]*savings.Metrics, error) {
	goals, err := s.goals.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing goals for user %s: %w", userID, err)
	}
	var out []*savings.Metrics
	for _, g := range goals {
		if !g.IsActive() {
			continue
		}
		m, err := s.metrics(ctx, g, now)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ClearUserBadges removes every badge the user holds and returns the count.
func (s *Service) ClearUserBadges(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("ClearUserBadges: %w: user_id is required", ErrInvalidInput)
	}
	n, err := s.badges.DeleteUserBadges(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ClearUserBadges: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("user_id", userID).Int("removed", n).Msg("User badges cleared")
	return n, nil
}
