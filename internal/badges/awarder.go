// Package badges decides which engagement badges a user has earned and
// records new awards.
package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settings maps each award rule to a configured badge ID.
// An empty ID disables the rule.
type Settings struct {
	GoalFirstCreated string `yaml:"goal_first_created"`
	GoalHalfway      string `yaml:"goal_halfway"`
	GoalWeekLeft     string `yaml:"goal_week_left"`
	GoalDone         string `yaml:"goal_done"`
	TransactionFirst string `yaml:"transaction_first"`
	WeekStreak2      string `yaml:"week_streak_2"`
	WeekStreak4      string `yaml:"week_streak_4"`
	WeekStreak6      string `yaml:"week_streak_6"`
}

// Event identifies what the user just did.
type Event string

const (
	// EventGoalCreated fires after a goal is stored.
	EventGoalCreated Event = "goal_created"
	// EventTransactions fires after transactions are added to a goal.
	EventTransactions Event = "transactions"
)

// Trigger carries everything the rules look at. Goal is the goal the event
// concerns; UserGoals are all of the user's active goals and feed the week
// streak rules.
type Trigger struct {
	Event     Event
	UserID    string
	Goal      *savings.Metrics
	UserGoals []*savings.Metrics
}

// Result lists badges newly awarded by one evaluation.
type Result struct {
	NewBadges []domain.UserBadge
}

// Awarder evaluates award rules against a trigger.
type Awarder struct {
	repo     domain.BadgeRepository
	settings Settings
	now      func() time.Time
}

// NewAwarder creates an Awarder backed by repo.
func NewAwarder(repo domain.BadgeRepository, settings Settings) *Awarder {
	return &Awarder{
		repo:     repo,
		settings: settings,
		now:      time.Now,
	}
}

type rule struct {
	badgeID string
	earned  bool
}

// Award evaluates the rules for trig and stores any badge the user has
// earned but does not hold yet.
func (a *Awarder) Award(ctx context.Context, trig Trigger) (*Result, error) {
	if trig.UserID == "" {
		return nil, fmt.Errorf("Award: user_id is required")
	}

	rules, err := a.rules(trig)
	if err != nil {
		return nil, fmt.Errorf("Award: evaluating rules: %w", err)
	}

	goalID := ""
	if trig.Goal != nil {
		goalID = trig.Goal.Goal().ID
	}

	result := &Result{}
	for _, r := range rules {
		if r.badgeID == "" || !r.earned {
			continue
		}
		ub, err := a.grant(ctx, trig.UserID, r.badgeID, goalID)
		if err != nil {
			return nil, fmt.Errorf("Award: %w", err)
		}
		if ub != nil {
			result.NewBadges = append(result.NewBadges, *ub)
		}
	}
	return result, nil
}

func (a *Awarder) rules(trig Trigger) ([]rule, error) {
	switch trig.Event {
	case EventGoalCreated:
		return []rule{{a.settings.GoalFirstCreated, trig.Goal != nil}}, nil

	case EventTransactions:
		if trig.Goal == nil {
			return nil, fmt.Errorf("transactions event without a goal")
		}
		m := trig.Goal
		value := m.Value()
		reached := m.IsGoalReached()
		halfway := value.Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(m.Goal().Target)
		daysLeft := m.DaysLeft()

		longest, err := longestOnTarget(trig.UserGoals)
		if err != nil {
			return nil, err
		}

		return []rule{
			{a.settings.GoalDone, reached},
			{a.settings.GoalHalfway, halfway},
			{a.settings.GoalWeekLeft, !reached && daysLeft > 0 && daysLeft <= 7},
			{a.settings.TransactionFirst, len(m.Transactions()) > 0},
			{a.settings.WeekStreak2, longest >= 2},
			{a.settings.WeekStreak4, longest >= 4},
			{a.settings.WeekStreak6, longest >= 6},
		}, nil
	}
	return nil, fmt.Errorf("unknown event %q", trig.Event)
}

// longestOnTarget is the best on-target running streak across goals.
func longestOnTarget(goals []*savings.Metrics) (int, error) {
	longest := 0
	for _, m := range goals {
		if m == nil {
			continue
		}
		s, err := m.Streaks()
		if err != nil {
			return 0, fmt.Errorf("goal %s streaks: %w", m.Goal().ID, err)
		}
		if s.LongestOnTarget > longest {
			longest = s.LongestOnTarget
		}
	}
	return longest, nil
}

// grant stores a new award unless the badge is missing, inactive, or already
// held. It returns nil when nothing was awarded.
func (a *Awarder) grant(ctx context.Context, userID, badgeID, goalID string) (*domain.UserBadge, error) {
	log := logger.FromContext(ctx)

	badge, err := a.repo.FindBadge(ctx, badgeID)
	if err != nil {
		return nil, fmt.Errorf("finding badge %s: %w", badgeID, err)
	}
	if badge == nil || badge.State != domain.BadgeStateActive {
		log.Debug().Str("badge_id", badgeID).Msg("Badge not configured or inactive, skipping")
		return nil, nil
	}

	held, err := a.repo.FindUserBadge(ctx, userID, badgeID)
	if err != nil {
		return nil, fmt.Errorf("finding user badge %s: %w", badgeID, err)
	}
	if held != nil {
		return nil, nil
	}

	ub := &domain.UserBadge{
		ID:        uuid.NewString(),
		UserID:    userID,
		BadgeID:   badgeID,
		GoalID:    goalID,
		AwardedAt: a.now(),
	}
	if err := a.repo.InsertUserBadge(ctx, ub); err != nil {
		return nil, fmt.Errorf("inserting user badge %s: %w", badgeID, err)
	}

	log.Info().
		Str("user_id", userID).
		Str("badge_id", badgeID).
		Str("badge_name", badge.Name).
		Str("goal_id", goalID).
		Msg("Badge awarded")

	return ub, nil
}
