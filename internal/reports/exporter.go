package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Type names a report.
type Type string

const (
	// TypeGoals is one row per goal.
	TypeGoals Type = "goals"
	// TypeEngagement is one row per user with active goals.
	TypeEngagement Type = "engagement"
)

// ParseType validates a report type name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeGoals, TypeEngagement:
		return t, nil
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// Source is the read side of the goal repository.
type Source interface {
	ListAllGoals(ctx context.Context) ([]*domain.Goal, error)
	ListTransactions(ctx context.Context, goalID string) ([]*domain.Transaction, error)
}

// Stats describes one export run.
type Stats struct {
	Goals   int `json:"goals"`
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// Report is a rendered CSV export.
type Report struct {
	Type        Type
	Name        string
	Data        []byte
	Stats       Stats
	GeneratedAt time.Time
}

// Exporter computes report rows in parallel across goals.
type Exporter struct {
	src     Source
	workers int
	timeout time.Duration
	now     func() time.Time
}

// NewExporter creates an exporter. workers bounds concurrent goal
// computations; timeout bounds a whole export (0 disables it).
func NewExporter(src Source, workers int, timeout time.Duration) *Exporter {
	if workers <= 0 {
		workers = 4
	}
	return &Exporter{
		src:     src,
		workers: workers,
		timeout: timeout,
		now:     time.Now,
	}
}

// Export builds the named report.
func (e *Exporter) Export(ctx context.Context, t Type) (*Report, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	now := e.now()
	computed, stats, err := e.compute(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("Export: %w", err)
	}

	var header []string
	var records [][]string
	switch t {
	case TypeGoals:
		header = GoalHeader
		for _, c := range computed {
			records = append(records, c.row.Record())
		}
	case TypeEngagement:
		header = EngagementHeader
		rows, skipped, err := engagementRows(ctx, computed)
		if err != nil {
			return nil, fmt.Errorf("Export: %w", err)
		}
		stats.Skipped += skipped
		for _, r := range rows {
			records = append(records, r.Record())
		}
	default:
		return nil, fmt.Errorf("Export: unknown report type %q", t)
	}
	stats.Rows = len(records)

	data, err := writeCSV(header, records)
	if err != nil {
		return nil, fmt.Errorf("Export: writing csv: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("report_type", string(t)).
		Int("goals", stats.Goals).
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Msg("Report exported")

	return &Report{
		Type:        t,
		Name:        reportName(t, now),
		Data:        data,
		Stats:       stats,
		GeneratedAt: now,
	}, nil
}

// reportName is <type>_<HHMMSS>_<suffix>. The random suffix keeps two exports
// started within the same second from sharing an archive object.
func reportName(t Type, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", t, now.UTC().Format("150405"), uuid.NewString()[:8])
}

type computedGoal struct {
	metrics *savings.Metrics
	row     GoalRow
}

// compute loads every goal's transactions and derives its metrics and goal
// row. Output order follows ListAllGoals. A goal whose metrics cannot be
// computed is logged and skipped; a storage error aborts the export.
func (e *Exporter) compute(ctx context.Context, now time.Time) ([]computedGoal, Stats, error) {
	log := logger.FromContext(ctx)

	goals, err := e.src.ListAllGoals(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("listing goals: %w", err)
	}

	results := make([]*computedGoal, len(goals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, goal := range goals {
		g.Go(func() error {
			txns, err := e.src.ListTransactions(gctx, goal.ID)
			if err != nil {
				return fmt.Errorf("listing transactions for goal %s: %w", goal.ID, err)
			}

			m, err := savings.NewMetrics(goal, txns, now)
			if err != nil {
				log.Warn().Err(err).Str("goal_id", goal.ID).Msg("Skipping goal with invalid metrics")
				return nil
			}
			row, err := NewGoalRow(m)
			if err != nil {
				log.Warn().Err(err).Str("goal_id", goal.ID).Msg("Skipping goal with invalid metrics")
				return nil
			}
			results[i] = &computedGoal{metrics: m, row: row}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Goals: len(goals)}
	out := make([]computedGoal, 0, len(goals))
	for _, r := range results {
		if r == nil {
			stats.Skipped++
			continue
		}
		out = append(out, *r)
	}
	return out, stats, nil
}

// engagementRows groups active goals by user, ordered by user ID.
func engagementRows(ctx context.Context, computed []computedGoal) ([]EngagementRow, int, error) {
	byUser := make(map[string][]*savings.Metrics)
	for _, c := range computed {
		if !c.metrics.Goal().IsActive() {
			continue
		}
		uid := c.metrics.Goal().UserID
		byUser[uid] = append(byUser[uid], c.metrics)
	}

	users := make([]string, 0, len(byUser))
	for uid := range byUser {
		users = append(users, uid)
	}
	sort.Strings(users)

	skipped := 0
	rows := make([]EngagementRow, 0, len(users))
	for _, uid := range users {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		row, err := NewEngagementRow(uid, byUser[uid])
		if err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("user_id", uid).Msg("Skipping user")
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func writeCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
