package savings

import (
	"testing"

	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/shopspring/decimal"
)

func TestDetectStreaks(t *testing.T) {
	tests := []struct {
		name   string
		values []decimal.Decimal
		pred   Predicate
		want   StreakCounts
	}{
		{
			name:   "empty",
			values: nil,
			pred:   AnySaved(),
			want:   StreakCounts{},
		},
		{
			name:   "six unbroken weeks count once",
			values: decimals(5, 5, 5, 5, 5, 5),
			pred:   AnySaved(),
			want:   StreakCounts{Six: 1},
		},
		{
			name:   "seven unbroken weeks stay in six",
			values: decimals(1, 1, 1, 1, 1, 1, 1),
			pred:   AnySaved(),
			want:   StreakCounts{Six: 1},
		},
		{
			name:   "run broken then open at end",
			values: decimals(10, 10, 0, 10, 10, 10, 10),
			pred:   OnTarget(decimal.NewFromInt(10)),
			want:   StreakCounts{Two: 1, Four: 1},
		},
		{
			name:   "single weeks are not streaks",
			values: decimals(1, 0, 1, 0, 1),
			pred:   AnySaved(),
			want:   StreakCounts{},
		},
		{
			name:   "three and five collapse down",
			values: decimals(1, 1, 1, 0, 1, 1, 1, 1, 1, 0),
			pred:   AnySaved(),
			want:   StreakCounts{Two: 1, Four: 1},
		},
		{
			name:   "withdrawal weeks count as saved activity",
			values: decimals(-3, 4),
			pred:   AnySaved(),
			want:   StreakCounts{Two: 1},
		},
		{
			name:   "below target breaks on-target run",
			values: decimals(25, 25, 24, 25, 25),
			pred:   OnTarget(decimal.NewFromInt(25)),
			want:   StreakCounts{Two: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectStreaks(tt.values, tt.pred)
			if got != tt.want {
				t.Errorf("DetectStreaks() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHighestStreak(t *testing.T) {
	tests := []struct {
		name   string
		values []decimal.Decimal
		want   int
	}{
		{"empty", nil, 0},
		{"all zero", decimals(0, 0, 0), 0},
		{"longest in middle", decimals(1, 0, 1, 1, 1, 0, 1, 1), 3},
		{"longest at end", decimals(1, 1, 0, 1, 1, 1, 1, 1, 1, 1), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestStreak(tt.values, AnySaved()); got != tt.want {
				t.Errorf("HighestStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name      string
		txns      []string
		now       string
		weeksBack int
		want      int
	}{
		{
			name: "no transactions",
			now:  "2024-02-14",
			want: 0,
		},
		{
			name: "single week of activity",
			txns: []string{"2024-02-12", "2024-02-13"},
			now:  "2024-02-14",
			want: 1,
		},
		{
			name: "three consecutive weeks",
			txns: []string{"2024-01-31", "2024-02-05", "2024-02-14"},
			now:  "2024-02-14",
			want: 3,
		},
		{
			name: "gap stops the count",
			txns: []string{"2024-01-24", "2024-02-07", "2024-02-14"},
			now:  "2024-02-14",
			want: 2,
		},
		{
			name:      "window limits lookback",
			txns:      []string{"2024-01-17", "2024-01-24", "2024-01-31", "2024-02-07", "2024-02-14"},
			now:       "2024-02-14",
			weeksBack: 2,
			want:      2,
		},
		{
			name: "future transactions ignored",
			txns: []string{"2024-02-21"},
			now:  "2024-02-14",
			want: 0,
		},
		{
			name: "most recent week need not be current",
			txns: []string{"2024-01-24", "2024-01-31"},
			now:  "2024-02-14",
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txns []*domain.Transaction
			for _, d := range tt.txns {
				txns = append(txns, newTx(t, d, "10"))
			}
			got := CurrentStreak(txns, at(t, tt.now), tt.weeksBack)
			if got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}
