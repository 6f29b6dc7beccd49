package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/savings"
	"github.com/jomei/notionapi"
)

// pageSize is the Notion database query page size (API maximum).
const pageSize = 100

// GoalSource is the read side of the goal repository.
type GoalSource interface {
	ListAllGoals(ctx context.Context) ([]*domain.Goal, error)
	ListTransactions(ctx context.Context, goalID string) ([]*domain.Transaction, error)
}

// SyncStats counts what a sync did (or would do, in dry-run mode).
type SyncStats struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncGoals pushes one page per active goal into the Notion database.
// Pages are matched by their Goal ID title: existing ones are updated, new
// goals get a page, and pages for unknown or inactive goals are archived.
// Individual page failures are logged and counted, not returned.
func SyncGoals(ctx context.Context, src GoalSource, notionClient NotionService, notionDBID string, now time.Time, dryRun bool) (*SyncStats, error) {
	log := logger.FromContext(ctx)

	log.Info().
		Bool("dry_run", dryRun).
		Time("now", now).
		Msg("Starting goal sync to Notion")

	all, err := src.ListAllGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("SyncGoals: listing goals: %w", err)
	}

	var summaries []*goals.Summary
	active := make(map[string]bool)
	for _, g := range all {
		if !g.IsActive() {
			continue
		}
		txns, err := src.ListTransactions(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("SyncGoals: listing transactions for goal %s: %w", g.ID, err)
		}
		m, err := savings.NewMetrics(g, txns, now)
		if err != nil {
			log.Warn().Err(err).Str("goal_id", g.ID).Msg("Skipping goal with invalid metrics")
			continue
		}
		sum, err := goals.Summarize(m)
		if err != nil {
			log.Warn().Err(err).Str("goal_id", g.ID).Msg("Skipping goal with invalid summary")
			continue
		}
		summaries = append(summaries, sum)
		active[g.ID] = true
	}

	log.Info().Int("goal_count", len(summaries)).Msg("Computed active goal summaries")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return nil, fmt.Errorf("SyncGoals: %w", err)
	}

	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	stats := &SyncStats{}
	pageByGoal := make(map[string]string)
	for _, page := range pages {
		goalID := extractGoalID(page)
		_, dup := pageByGoal[goalID]
		if goalID != "" && active[goalID] && !dup {
			pageByGoal[goalID] = string(page.ID)
			continue
		}

		// Pages without a Goal ID, for inactive goals, or duplicates are stale.
		plog := log.With().Str("goal_id", goalID).Str("page_id", string(page.ID)).Logger()
		if dryRun {
			plog.Info().Msg("[DRY RUN] Would archive stale Notion page")
			stats.Archived++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			plog.Warn().Err(err).Msg("Failed to archive stale Notion page")
			stats.Failed++
			continue
		}
		plog.Info().Msg("Archived stale Notion page")
		stats.Archived++
	}

	for _, sum := range summaries {
		goalID := sum.Goal.ID
		pageID, exists := pageByGoal[goalID]
		glog := log.With().Str("goal_id", goalID).Logger()

		if dryRun {
			if exists {
				glog.Info().Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				stats.Updated++
			} else {
				glog.Info().Msg("[DRY RUN] Would create Notion page")
				stats.Created++
			}
			continue
		}

		props := GoalToNotionProperties(sum)
		if exists {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				glog.Warn().Err(err).Str("page_id", pageID).Msg("Failed to update Notion page")
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			glog.Warn().Err(err).Msg("Failed to create Notion page")
			stats.Failed++
			continue
		}
		glog.Debug().Str("page_id", string(page.ID)).Msg("Created Notion page")
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Goal sync completed")

	return stats, nil
}

// queryAllNotionPages retrieves all pages from a Notion database, following pagination.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: pageSize,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
