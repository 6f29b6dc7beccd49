package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/savings-coach/internal/app"
	"github.com/dvloznov/savings-coach/internal/config"
	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/reports"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	switch os.Args[1] {
	case "summary":
		runSummary()
	case "streak":
		runStreak()
	case "report":
		runReport()
	case "fetch-report":
		runFetchReport()
	case "clear-badges":
		runClearBadges()
	case "tip":
		runTip()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Savings Coach CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  summary        Show a goal's progress, weeks and streaks")
	fmt.Println("  streak         Show a user's weekly streak and badges")
	fmt.Println("  report         Export a CSV report to a file or the archive bucket")
	fmt.Println("  fetch-report   Download an archived report")
	fmt.Println("  clear-badges   Remove all badges awarded to a user")
	fmt.Println("  tip            Ask the coach for a weekly tip on a goal")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads config and builds dependencies. The returned context carries
// the logger and is bounded by timeout.
func setup(timeout time.Duration) (context.Context, context.CancelFunc, *app.App, zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = logger.WithContext(ctx, log)

	deps, err := app.New(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	return ctx, func() {
		_ = deps.Close()
		cancel()
	}, deps, log
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encoding output: %v\n", err)
		os.Exit(1)
	}
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	goalID := fs.String("goal-id", "", "Goal ID")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	fs.Parse(os.Args[2:])

	ctx, done, deps, log := setup(time.Minute)
	defer done()

	if *goalID == "" {
		log.Fatal().Msg("Error: --goal-id is required")
	}

	sum, err := deps.Service.Summary(ctx, *goalID, time.Now())
	if err != nil {
		log.Fatal().Err(err).Str("goal_id", *goalID).Msg("Failed to compute summary")
	}

	if *asJSON {
		printJSON(sum)
		return
	}
	printSummary(sum)
}

func printSummary(sum *goals.Summary) {
	g := sum.Goal
	fmt.Println("\n=== Goal ===")
	fmt.Printf("ID:        %s\n", g.ID)
	fmt.Printf("Name:      %s\n", g.Name)
	fmt.Printf("User:      %s\n", g.UserID)
	fmt.Printf("Period:    %s .. %s\n", g.StartDate, g.EndDate)
	fmt.Printf("State:     %s\n", g.State)

	fmt.Println("\n=== Progress ===")
	fmt.Printf("Saved:          %s of %s (%d%%)\n", sum.Value.StringFixed(2), g.Target.StringFixed(2), sum.Progress)
	fmt.Printf("Reached:        %t\n", sum.IsGoalReached)
	fmt.Printf("Weeks:          %d to date of %d, %d left\n", sum.WeekCountToNow, sum.WeekCount, sum.WeeksLeft)
	fmt.Printf("Weekly target:  %s\n", sum.WeeklyTarget.StringFixed(2))
	if sum.WeeklyAverage != nil {
		fmt.Printf("Weekly average: %s\n", sum.WeeklyAverage.StringFixed(2))
	}

	b := sum.Breakdown
	fmt.Println("\n=== Weeks ===")
	fmt.Printf("Saved %d (below target %d, on target %d), not saved %d, withdrawals %d\n",
		b.Saved, b.SavedBelow, b.SavedAbove, b.NotSaved, b.Withdrawals)
	for _, w := range sum.Weeks {
		fmt.Printf("  %2d. %s .. %s  %10s\n", w.Index, w.Start, w.End, w.Value.StringFixed(2))
	}

	s := sum.Streaks
	fmt.Println("\n=== Streaks ===")
	fmt.Printf("Current:            %d\n", sum.CurrentStreak)
	fmt.Printf("Longest saved:      %d\n", s.LongestSaved)
	fmt.Printf("Longest on target:  %d\n", s.LongestOnTarget)
	fmt.Printf("On target 2/4/6:    %d/%d/%d\n", s.OnTarget.Two, s.OnTarget.Four, s.OnTarget.Six)
	fmt.Println()
}

func runStreak() {
	fs := flag.NewFlagSet("streak", flag.ExitOnError)
	userID := fs.String("user-id", "", "User ID")
	fs.Parse(os.Args[2:])

	ctx, done, deps, log := setup(time.Minute)
	defer done()

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}

	ach, err := deps.Service.Achievements(ctx, *userID, time.Now())
	if err != nil {
		log.Fatal().Err(err).Str("user_id", *userID).Msg("Failed to load achievements")
	}

	fmt.Printf("Weekly streak: %d\n", ach.WeeklyStreak)
	fmt.Printf("\n=== Badges (%d) ===\n", len(ach.Badges))
	for _, b := range ach.Badges {
		fmt.Printf("  %-22s awarded %s\n", b.BadgeID, b.AwardedAt.Format(time.RFC3339))
	}
}

func runReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	reportType := fs.String("type", string(reports.TypeGoals), "Report type (goals, engagement)")
	out := fs.String("out", "", "Write the CSV to this file (default stdout)")
	archive := fs.Bool("archive", false, "Upload the report to the configured bucket")
	fs.Parse(os.Args[2:])

	t, err := reports.ParseType(*reportType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, done, deps, log := setup(15 * time.Minute)
	defer done()

	report, err := deps.Exporter.Export(ctx, t)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	if *archive {
		a := deps.Archive(deps.Config.Storage.Bucket)
		if a == nil {
			log.Fatal().Msg("Error: --archive needs storage.bucket (GCS_BUCKET)")
		}
		uri, err := a.Publish(ctx, report)
		if err != nil {
			log.Fatal().Err(err).Msg("Archive failed")
		}
		fmt.Printf("Archived %s (%d rows, %d skipped) to %s\n", report.Name, report.Stats.Rows, report.Stats.Skipped, uri)
		return
	}

	if *out == "" {
		os.Stdout.Write(report.Data)
		return
	}
	if err := os.WriteFile(*out, report.Data, 0o644); err != nil {
		log.Fatal().Err(err).Str("file", *out).Msg("Failed to write report")
	}
	fmt.Printf("Wrote %s (%d rows, %d skipped) to %s\n", report.Name, report.Stats.Rows, report.Stats.Skipped, *out)
}

func runFetchReport() {
	fs := flag.NewFlagSet("fetch-report", flag.ExitOnError)
	uri := fs.String("uri", "", "gs:// URI of an archived report")
	fs.Parse(os.Args[2:])

	ctx, done, deps, log := setup(5 * time.Minute)
	defer done()

	if *uri == "" {
		log.Fatal().Msg("Error: --uri is required")
	}
	a := deps.Archive(deps.Config.Storage.Bucket)
	if a == nil {
		log.Fatal().Msg("Error: fetch-report needs storage.bucket (GCS_BUCKET)")
	}

	data, err := a.Fetch(ctx, *uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetch failed")
	}
	os.Stdout.Write(data)
}

func runClearBadges() {
	fs := flag.NewFlagSet("clear-badges", flag.ExitOnError)
	userID := fs.String("user-id", "", "User ID")
	fs.Parse(os.Args[2:])

	ctx, done, deps, log := setup(time.Minute)
	defer done()

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}

	n, err := deps.Service.ClearUserBadges(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", *userID).Msg("Failed to clear badges")
	}
	fmt.Printf("Removed %d badges from user %s\n", n, *userID)
}

func runTip() {
	fs := flag.NewFlagSet("tip", flag.ExitOnError)
	goalID := fs.String("goal-id", "", "Goal ID")
	fs.Parse(os.Args[2:])

	ctx, done, deps, log := setup(2 * time.Minute)
	defer done()

	if *goalID == "" {
		log.Fatal().Msg("Error: --goal-id is required")
	}

	c, err := deps.NewCoach(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize coach")
	}
	if c == nil {
		log.Fatal().Msg("Error: coach is disabled (set coach.enabled or COACH_ENABLED)")
	}

	sum, err := deps.Service.Summary(ctx, *goalID, time.Now())
	if err != nil {
		log.Fatal().Err(err).Str("goal_id", *goalID).Msg("Failed to compute summary")
	}
	tip, err := c.WeeklyTip(ctx, sum)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate tip")
	}
	fmt.Println(tip)
}
