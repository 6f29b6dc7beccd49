package badges

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/infra/memory"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/shopspring/decimal"
)

var testSettings = Settings{
	GoalFirstCreated: "goal_first_created",
	GoalHalfway:      "goal_halfway",
	GoalWeekLeft:     "goal_week_left",
	GoalDone:         "goal_done",
	TransactionFirst: "transaction_first",
	WeekStreak2:      "week_streak_2",
	WeekStreak4:      "week_streak_4",
	WeekStreak6:      "week_streak_6",
}

func seededRepo() *memory.BadgeRepository {
	var all []domain.Badge
	for _, id := range []string{
		testSettings.GoalFirstCreated, testSettings.GoalHalfway, testSettings.GoalWeekLeft,
		testSettings.GoalDone, testSettings.TransactionFirst, testSettings.WeekStreak2,
		testSettings.WeekStreak4, testSettings.WeekStreak6,
	} {
		all = append(all, domain.Badge{ID: id, Name: id, State: domain.BadgeStateActive})
	}
	return memory.NewBadgeRepository(all...)
}

func metrics(t *testing.T, start, end civil.Date, target int64, now time.Time, deposits map[string]int64) *savings.Metrics {
	t.Helper()
	goal := &domain.Goal{
		ID:        "goal-1",
		UserID:    "alice",
		Name:      "Bike",
		StartDate: start,
		EndDate:   end,
		Target:    decimal.NewFromInt(target),
		State:     domain.GoalStateActive,
	}
	var txns []*domain.Transaction
	for day, amount := range deposits {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			t.Fatalf("time.Parse(%q): %v", day, err)
		}
		txns = append(txns, &domain.Transaction{
			ID:     "tx-" + day,
			GoalID: goal.ID,
			Date:   ts.Add(9 * time.Hour),
			Amount: decimal.NewFromInt(amount),
		})
	}
	m, err := savings.NewMetrics(goal, txns, now)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m
}

func badgeIDs(result *Result) []string {
	var out []string
	for _, ub := range result.NewBadges {
		out = append(out, ub.BadgeID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAward(t *testing.T) {
	jan1 := civil.Date{Year: 2024, Month: 1, Day: 1}
	mar31 := civil.Date{Year: 2024, Month: 3, Day: 31}
	jan31 := civil.Date{Year: 2024, Month: 1, Day: 31}

	tests := []struct {
		name string
		trig func(t *testing.T) Trigger
		want []string
	}{
		{
			name: "goal created",
			trig: func(t *testing.T) Trigger {
				m := metrics(t, jan1, mar31, 1300, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), nil)
				return Trigger{Event: EventGoalCreated, UserID: "alice", Goal: m}
			},
			want: []string{"goal_first_created"},
		},
		{
			name: "four on-target weeks",
			trig: func(t *testing.T) Trigger {
				m := metrics(t, jan1, mar31, 1300, time.Date(2024, 1, 24, 12, 0, 0, 0, time.UTC), map[string]int64{
					"2024-01-02": 100, "2024-01-09": 100, "2024-01-16": 100, "2024-01-23": 100,
				})
				return Trigger{Event: EventTransactions, UserID: "alice", Goal: m, UserGoals: []*savings.Metrics{m}}
			},
			want: []string{"transaction_first", "week_streak_2", "week_streak_4"},
		},
		{
			name: "goal reached in one deposit",
			trig: func(t *testing.T) Trigger {
				m := metrics(t, jan1, mar31, 1300, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), map[string]int64{
					"2024-01-02": 1300,
				})
				return Trigger{Event: EventTransactions, UserID: "alice", Goal: m, UserGoals: []*savings.Metrics{m}}
			},
			want: []string{"goal_done", "goal_halfway", "transaction_first"},
		},
		{
			name: "one week left",
			trig: func(t *testing.T) Trigger {
				m := metrics(t, jan1, jan31, 1000, time.Date(2024, 1, 26, 12, 0, 0, 0, time.UTC), map[string]int64{
					"2024-01-25": 10,
				})
				return Trigger{Event: EventTransactions, UserID: "alice", Goal: m, UserGoals: []*savings.Metrics{m}}
			},
			want: []string{"goal_week_left", "transaction_first"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a := NewAwarder(seededRepo(), testSettings)
			trig := tt.trig(t)

			result, err := a.Award(ctx, trig)
			if err != nil {
				t.Fatalf("Award() error = %v", err)
			}
			if got := badgeIDs(result); !equalIDs(got, tt.want) {
				t.Errorf("Award() new badges = %v, want %v", got, tt.want)
			}

			again, err := a.Award(ctx, trig)
			if err != nil {
				t.Fatalf("second Award() error = %v", err)
			}
			if len(again.NewBadges) != 0 {
				t.Errorf("second Award() re-awarded %v", badgeIDs(again))
			}
		})
	}
}

func TestAward_StreakAcrossGoals(t *testing.T) {
	jan1 := civil.Date{Year: 2024, Month: 1, Day: 1}
	mar31 := civil.Date{Year: 2024, Month: 3, Day: 31}
	now := time.Date(2024, 1, 24, 12, 0, 0, 0, time.UTC)

	current := metrics(t, jan1, mar31, 1300, now, map[string]int64{"2024-01-23": 5})
	other := metrics(t, jan1, mar31, 1300, now, map[string]int64{
		"2024-01-02": 100, "2024-01-09": 100,
	})

	a := NewAwarder(seededRepo(), testSettings)
	result, err := a.Award(context.Background(), Trigger{
		Event:     EventTransactions,
		UserID:    "alice",
		Goal:      current,
		UserGoals: []*savings.Metrics{current, other},
	})
	if err != nil {
		t.Fatalf("Award() error = %v", err)
	}
	want := []string{"transaction_first", "week_streak_2"}
	if got := badgeIDs(result); !equalIDs(got, want) {
		t.Errorf("Award() new badges = %v, want %v", got, want)
	}
}

func TestAward_SkipsUnconfiguredAndInactive(t *testing.T) {
	repo := memory.NewBadgeRepository(
		domain.Badge{ID: "goal_first_created", State: domain.BadgeStateInactive},
	)
	settings := Settings{GoalFirstCreated: "goal_first_created", TransactionFirst: "not_in_repo"}
	a := NewAwarder(repo, settings)

	m := metrics(t, civil.Date{Year: 2024, Month: 1, Day: 1}, civil.Date{Year: 2024, Month: 1, Day: 31}, 100,
		time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), map[string]int64{"2024-01-02": 1})

	for _, ev := range []Event{EventGoalCreated, EventTransactions} {
		result, err := a.Award(context.Background(), Trigger{Event: ev, UserID: "alice", Goal: m})
		if err != nil {
			t.Fatalf("Award(%s) error = %v", ev, err)
		}
		if len(result.NewBadges) != 0 {
			t.Errorf("Award(%s) awarded %v, want none", ev, badgeIDs(result))
		}
	}
}

type failingRepo struct {
	domain.BadgeRepository
}

func (failingRepo) FindBadge(ctx context.Context, badgeID string) (*domain.Badge, error) {
	return nil, errors.New("backend down")
}

func TestAward_Errors(t *testing.T) {
	m := metrics(t, civil.Date{Year: 2024, Month: 1, Day: 1}, civil.Date{Year: 2024, Month: 1, Day: 31}, 100,
		time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), nil)

	tests := []struct {
		name string
		trig Trigger
	}{
		{"missing user", Trigger{Event: EventGoalCreated, Goal: m}},
		{"unknown event", Trigger{Event: "bogus", UserID: "alice", Goal: m}},
		{"transactions without goal", Trigger{Event: EventTransactions, UserID: "alice"}},
		{"repository failure", Trigger{Event: EventGoalCreated, UserID: "alice", Goal: m}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAwarder(failingRepo{}, testSettings)
			if _, err := a.Award(context.Background(), tt.trig); err == nil {
				t.Error("Award() expected error")
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	s := Settings{GoalDone: "done", WeekStreak2: "streak2"}
	got := Catalog(s)
	if len(got) != 2 {
		t.Fatalf("Catalog() returned %d badges, want 2", len(got))
	}
	if got[0].ID != "done" || got[1].ID != "streak2" {
		t.Errorf("Catalog() IDs = %s, %s", got[0].ID, got[1].ID)
	}
	for _, b := range got {
		if b.State != domain.BadgeStateActive || b.Name == "" {
			t.Errorf("badge %s = %+v", b.ID, b)
		}
	}
}
