package goals

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/savings-coach/internal/badges"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/infra/memory"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/shopspring/decimal"
)

var testBadges = badges.Settings{
	GoalFirstCreated: "goal_first_created",
	TransactionFirst: "transaction_first",
	WeekStreak2:      "week_streak_2",
	WeekStreak4:      "week_streak_4",
	WeekStreak6:      "week_streak_6",
}

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	badgeRepo := memory.NewBadgeRepository(
		domain.Badge{ID: "goal_first_created", Name: "First goal", State: domain.BadgeStateActive},
		domain.Badge{ID: "transaction_first", Name: "First deposit", State: domain.BadgeStateActive},
		domain.Badge{ID: "week_streak_2", Name: "Two weeks", State: domain.BadgeStateActive},
		domain.Badge{ID: "week_streak_4", Name: "Four weeks", State: domain.BadgeStateActive},
		domain.Badge{ID: "week_streak_6", Name: "Six weeks", State: domain.BadgeStateActive},
	)
	svc := NewService(memory.NewGoalRepository(), badgeRepo, badges.NewAwarder(badgeRepo, testBadges))
	svc.now = func() time.Time { return now }
	return svc
}

func validInput() CreateGoalInput {
	return CreateGoalInput{
		UserID:    "alice",
		Name:      "Bicycle",
		StartDate: civil.Date{Year: 2024, Month: 1, Day: 1},
		EndDate:   civil.Date{Year: 2024, Month: 3, Day: 31},
		Target:    decimal.NewFromInt(1300),
	}
}

func TestCreateGoal_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CreateGoalInput)
	}{
		{"missing user", func(in *CreateGoalInput) { in.UserID = "" }},
		{"blank name", func(in *CreateGoalInput) { in.Name = "   " }},
		{"missing dates", func(in *CreateGoalInput) { in.StartDate = civil.Date{} }},
		{"zero target", func(in *CreateGoalInput) { in.Target = decimal.Zero }},
		{"negative weekly target", func(in *CreateGoalInput) {
			wt := decimal.NewFromInt(-1)
			in.WeeklyTarget = &wt
		}},
		{"end before start", func(in *CreateGoalInput) { in.EndDate = civil.Date{Year: 2023, Month: 12, Day: 31} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
			in := validInput()
			tt.modify(&in)

			_, err := svc.CreateGoal(context.Background(), in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("CreateGoal() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCreateGoal_RangeErrorIsTyped(t *testing.T) {
	svc := newTestService(t, time.Now())
	in := validInput()
	in.StartDate, in.EndDate = in.EndDate, in.StartDate

	_, err := svc.CreateGoal(context.Background(), in)
	var rangeErr *savings.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("CreateGoal() error = %v, want *savings.InvalidRangeError", err)
	}
}

func TestCreateGoal(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	res, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if res.Goal.ID == "" || !res.Goal.IsActive() {
		t.Errorf("CreateGoal() goal = %+v, want active goal with ID", res.Goal)
	}
	if len(res.NewBadges) != 1 || res.NewBadges[0].BadgeID != "goal_first_created" {
		t.Errorf("CreateGoal() new badges = %+v, want goal_first_created", res.NewBadges)
	}

	second, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("second CreateGoal() error = %v", err)
	}
	if len(second.NewBadges) != 0 {
		t.Errorf("second CreateGoal() new badges = %+v, want none", second.NewBadges)
	}

	goals, err := svc.ListGoals(ctx, "alice", false)
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 2 {
		t.Errorf("ListGoals() returned %d goals, want 2", len(goals))
	}
}

func TestGetGoal_NotFound(t *testing.T) {
	svc := newTestService(t, time.Now())

	_, err := svc.GetGoal(context.Background(), "missing")
	if !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("GetGoal() error = %v, want ErrGoalNotFound", err)
	}
	if _, err := svc.Summary(context.Background(), "missing", time.Now()); !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("Summary() error = %v, want ErrGoalNotFound", err)
	}
}

func TestAddTransactions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	created, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	goalID := created.Goal.ID

	jan2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	jan9 := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	res, err := svc.AddTransactions(ctx, goalID, []TransactionInput{
		{Date: jan2, Amount: decimal.NewFromInt(100)},
		{Date: jan2, Amount: decimal.RequireFromString("100.00")},
		{Date: jan9, Amount: decimal.NewFromInt(100)},
	})
	if err != nil {
		t.Fatalf("AddTransactions() error = %v", err)
	}
	if len(res.Created) != 2 || res.Duplicates != 1 {
		t.Errorf("AddTransactions() created=%d duplicates=%d, want 2 and 1", len(res.Created), res.Duplicates)
	}
	var got []string
	for _, ub := range res.NewBadges {
		got = append(got, ub.BadgeID)
	}
	if len(got) != 2 || got[0] != "transaction_first" || got[1] != "week_streak_2" {
		t.Errorf("AddTransactions() new badges = %v, want [transaction_first week_streak_2]", got)
	}

	again, err := svc.AddTransactions(ctx, goalID, []TransactionInput{{Date: jan9, Amount: decimal.NewFromInt(100)}})
	if err != nil {
		t.Fatalf("resubmit AddTransactions() error = %v", err)
	}
	if len(again.Created) != 0 || again.Duplicates != 1 || len(again.NewBadges) != 0 {
		t.Errorf("resubmit = %+v, want only one duplicate", again)
	}

	txns, err := svc.Transactions(ctx, goalID)
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("Transactions() returned %d, want 2", len(txns))
	}
}

func TestAddTransactions_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	created, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	goalID := created.Goal.ID
	deposit := []TransactionInput{{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(5)}}

	if _, err := svc.AddTransactions(ctx, goalID, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty AddTransactions() error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.AddTransactions(ctx, goalID, []TransactionInput{{Amount: decimal.NewFromInt(5)}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("undated AddTransactions() error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.AddTransactions(ctx, "missing", deposit); !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("AddTransactions() on missing goal error = %v, want ErrGoalNotFound", err)
	}

	if _, err := svc.Deactivate(ctx, goalID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if _, err := svc.Deactivate(ctx, goalID); err != nil {
		t.Fatalf("second Deactivate() error = %v", err)
	}
	if _, err := svc.AddTransactions(ctx, goalID, deposit); !errors.Is(err, ErrGoalInactive) {
		t.Errorf("AddTransactions() on inactive goal error = %v, want ErrGoalInactive", err)
	}
}

func TestSummaryAndAchievements(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	created, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	goalID := created.Goal.ID
	if _, err := svc.AddTransactions(ctx, goalID, []TransactionInput{
		{Date: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(100)},
		{Date: time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(150)},
		{Date: time.Date(2024, 1, 9, 11, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(-20)},
	}); err != nil {
		t.Fatalf("AddTransactions() error = %v", err)
	}

	sum, err := svc.Summary(ctx, goalID, now)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !sum.Value.Equal(decimal.NewFromInt(230)) {
		t.Errorf("Value = %s, want 230", sum.Value)
	}
	if sum.Progress != 17 {
		t.Errorf("Progress = %d, want 17", sum.Progress)
	}
	if sum.WeekCount != 13 || sum.WeekCountToNow != 2 || sum.WeeksLeft != 11 {
		t.Errorf("weeks = %d/%d/%d, want 13/2/11", sum.WeekCount, sum.WeekCountToNow, sum.WeeksLeft)
	}
	if !sum.WeeklyTarget.Equal(decimal.NewFromInt(100)) {
		t.Errorf("WeeklyTarget = %s, want 100", sum.WeeklyTarget)
	}
	if sum.WeeklyAverage == nil || !sum.WeeklyAverage.Equal(decimal.NewFromInt(115)) {
		t.Errorf("WeeklyAverage = %v, want 115", sum.WeeklyAverage)
	}
	if len(sum.Weeks) != 13 || !sum.Weeks[1].Value.Equal(decimal.NewFromInt(130)) {
		t.Errorf("Weeks = %+v, want 13 weeks with 130 in the second", sum.Weeks)
	}
	if sum.Breakdown.SavedAbove != 2 || sum.Breakdown.Withdrawals != 1 {
		t.Errorf("Breakdown = %+v, want 2 weeks above target and 1 withdrawal", sum.Breakdown)
	}
	if sum.Streaks.LongestOnTarget != 2 || sum.CurrentStreak != 2 {
		t.Errorf("streaks = %+v current=%d, want longest 2 and current 2", sum.Streaks, sum.CurrentStreak)
	}

	ach, err := svc.Achievements(ctx, "alice", now)
	if err != nil {
		t.Fatalf("Achievements() error = %v", err)
	}
	if ach.WeeklyStreak != 2 {
		t.Errorf("WeeklyStreak = %d, want 2", ach.WeeklyStreak)
	}
	if len(ach.Badges) != 3 {
		t.Errorf("Achievements() badges = %d, want 3", len(ach.Badges))
	}

	n, err := svc.ClearUserBadges(ctx, "alice")
	if err != nil {
		t.Fatalf("ClearUserBadges() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ClearUserBadges() = %d, want 3", n)
	}
	if _, err := svc.ClearUserBadges(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ClearUserBadges(\"\") error = %v, want ErrInvalidInput", err)
	}
}

func TestListGoals_ActiveByStartDate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	create := func(name string, start civil.Date) string {
		t.Helper()
		in := validInput()
		in.Name = name
		in.StartDate = start
		res, err := svc.CreateGoal(ctx, in)
		if err != nil {
			t.Fatalf("CreateGoal(%s) error = %v", name, err)
		}
		return res.Goal.ID
	}
	create("late", civil.Date{Year: 2024, Month: 3, Day: 1})
	dropped := create("dropped", civil.Date{Year: 2024, Month: 1, Day: 1})
	create("early", civil.Date{Year: 2024, Month: 2, Day: 1})
	if _, err := svc.Deactivate(ctx, dropped); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	tests := []struct {
		name            string
		includeInactive bool
		want            []string
	}{
		{"active only", false, []string{"early", "late"}},
		{"with inactive", true, []string{"dropped", "early", "late"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListGoals(ctx, "alice", tt.includeInactive)
			if err != nil {
				t.Fatalf("ListGoals() error = %v", err)
			}
			var got []string
			for _, g := range list {
				got = append(got, g.Name)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListGoals() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ListGoals() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGetGoal_Deleted(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	created, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	goalID := created.Goal.ID
	if _, err := svc.Deactivate(ctx, goalID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	if _, err := svc.GetGoal(ctx, goalID); !errors.Is(err, ErrGoalDeleted) || !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("GetGoal() error = %v, want ErrGoalDeleted wrapping ErrGoalNotFound", err)
	}
	if _, err := svc.Summary(ctx, goalID, time.Now()); !errors.Is(err, ErrGoalDeleted) {
		t.Errorf("Summary() error = %v, want ErrGoalDeleted", err)
	}
	if _, err := svc.Transactions(ctx, goalID); err != nil {
		t.Errorf("Transactions() on deactivated goal error = %v, want history", err)
	}
}

func TestUpdateGoal(t *testing.T) {
	ctx := context.Background()
	name := func(s string) *string { return &s }
	date := func(y int, m time.Month, d int) *civil.Date { return &civil.Date{Year: y, Month: m, Day: d} }
	amount := func(s string) *decimal.Decimal {
		v := decimal.RequireFromString(s)
		return &v
	}

	tests := []struct {
		name    string
		in      UpdateGoalInput
		wantErr error
		check   func(t *testing.T, g *domain.Goal)
	}{
		{
			name: "rename and move end",
			in:   UpdateGoalInput{Name: name("  Road bike "), EndDate: date(2024, 6, 30), Target: amount("1500.555")},
			check: func(t *testing.T, g *domain.Goal) {
				if g.Name != "Road bike" || g.EndDate != *date(2024, 6, 30) {
					t.Errorf("goal = %+v", g)
				}
				if !g.Target.Equal(decimal.RequireFromString("1500.56")) {
					t.Errorf("Target = %s, want 1500.56", g.Target)
				}
			},
		},
		{name: "start after end", in: UpdateGoalInput{StartDate: date(2024, 5, 1)}, wantErr: ErrInvalidInput},
		{name: "blank name", in: UpdateGoalInput{Name: name(" ")}, wantErr: ErrInvalidInput},
		{name: "zero target", in: UpdateGoalInput{Target: amount("0")}, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
			created, err := svc.CreateGoal(ctx, validInput())
			if err != nil {
				t.Fatalf("CreateGoal() error = %v", err)
			}

			got, err := svc.UpdateGoal(ctx, created.Goal.ID, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateGoal() error = %v, want %v", err, tt.wantErr)
				}
				stored, err := svc.GetGoal(ctx, created.Goal.ID)
				if err != nil {
					t.Fatalf("GetGoal() error = %v", err)
				}
				if stored.Name != "Bicycle" || stored.StartDate != created.Goal.StartDate {
					t.Errorf("rejected update was stored: %+v", stored)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateGoal() error = %v", err)
			}
			tt.check(t, got)
			stored, err := svc.GetGoal(ctx, created.Goal.ID)
			if err != nil {
				t.Fatalf("GetGoal() error = %v", err)
			}
			tt.check(t, stored)
		})
	}

	t.Run("deactivated goal", func(t *testing.T) {
		svc := newTestService(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
		created, err := svc.CreateGoal(ctx, validInput())
		if err != nil {
			t.Fatalf("CreateGoal() error = %v", err)
		}
		if _, err := svc.Deactivate(ctx, created.Goal.ID); err != nil {
			t.Fatalf("Deactivate() error = %v", err)
		}
		if _, err := svc.UpdateGoal(ctx, created.Goal.ID, UpdateGoalInput{Name: name("Car")}); !errors.Is(err, ErrGoalDeleted) {
			t.Errorf("UpdateGoal() error = %v, want ErrGoalDeleted", err)
		}
	})
}

func TestPrototypes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	in := validInput()
	in.PrototypeID = "anything"
	if _, err := svc.CreateGoal(ctx, in); err != nil {
		t.Fatalf("CreateGoal() without a catalog error = %v", err)
	}

	svc.SetPrototypes([]domain.GoalPrototype{
		{ID: "bicycle", Name: "Bicycle", Active: true},
		{ID: "school_fees", Name: "School fees"},
		{ID: "holiday", Name: "Holiday", Active: true},
	})
	protos := svc.Prototypes()
	if len(protos) != 2 || protos[0].ID != "bicycle" || protos[1].ID != "holiday" {
		t.Errorf("Prototypes() = %+v, want active bicycle and holiday", protos)
	}

	tests := []struct {
		prototype string
		wantErr   bool
	}{
		{"", false},
		{"bicycle", false},
		{"school_fees", true},
		{"anything", true},
	}
	for _, tt := range tests {
		t.Run("prototype "+tt.prototype, func(t *testing.T) {
			in := validInput()
			in.PrototypeID = tt.prototype
			_, err := svc.CreateGoal(ctx, in)
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("CreateGoal() error = %v, want ErrInvalidInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CreateGoal() error = %v", err)
			}
		})
	}
}

func TestAddTransactions_StoresUTC(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	created, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	goalID := created.Goal.ID

	// Monday 00:30 at UTC+7 is Sunday 17:30 UTC, the last day of week one.
	local := time.Date(2024, 1, 8, 0, 30, 0, 0, time.FixedZone("UTC+7", 7*60*60))
	res, err := svc.AddTransactions(ctx, goalID, []TransactionInput{
		{Date: local, Amount: decimal.NewFromInt(7)},
		{Date: local.Add(time.Second).UTC(), Amount: decimal.NewFromInt(5)},
	})
	if err != nil {
		t.Fatalf("AddTransactions() error = %v", err)
	}
	for _, tx := range res.Created {
		if tx.Date.Location() != time.UTC {
			t.Errorf("stored date %s is not UTC", tx.Date)
		}
	}

	sum, err := svc.Summary(ctx, goalID, now)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !sum.Weeks[0].Value.Equal(decimal.NewFromInt(12)) || !sum.Weeks[1].Value.IsZero() {
		t.Errorf("weeks = %s, %s; want 12 and 0", sum.Weeks[0].Value, sum.Weeks[1].Value)
	}
}
