// Package coach asks Gemini for a short weekly savings tip based on a goal
// summary.
package coach

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/dvloznov/savings-coach/internal/logger"
)

// DefaultModelName is the default Gemini model used for tips.
const DefaultModelName = "gemini-2.5-flash"

// maxTipRunes caps tips so they fit a push notification.
const maxTipRunes = 280

// TipGenerator turns a prompt into raw model text.
type TipGenerator interface {
	GenerateTip(ctx context.Context, prompt string) (string, error)
}

// Coach produces weekly tips.
type Coach struct {
	gen TipGenerator
}

// New creates a coach backed by gen.
func New(gen TipGenerator) *Coach {
	return &Coach{gen: gen}
}

// WeeklyTip returns one short, plain-text tip for the goal.
func (c *Coach) WeeklyTip(ctx context.Context, sum *goals.Summary) (string, error) {
	if sum == nil || sum.Goal == nil {
		return "", fmt.Errorf("WeeklyTip: summary is required")
	}

	raw, err := c.gen.GenerateTip(ctx, BuildPrompt(sum))
	if err != nil {
		return "", fmt.Errorf("WeeklyTip: generate: %w", err)
	}

	tip := CleanTip(raw)
	if tip == "" {
		return "", fmt.Errorf("WeeklyTip: empty response from model")
	}

	log := logger.FromContext(ctx)

	log.Debug().
		Str("goal_id", sum.Goal.ID).
		Int("tip_len", len(tip)).
		Msg("Generated weekly tip")
	return tip, nil
}

// BuildPrompt describes the goal's state for the model.
func BuildPrompt(sum *goals.Summary) string {
	var b strings.Builder
	b.WriteString("You are a friendly savings coach for young people.\n")
	b.WriteString("Write ONE encouraging, practical tip (max two sentences) for this week.\n")
	b.WriteString("Plain text only. No Markdown, no lists, no quotes.\n\n")

	b.WriteString("Goal:\n")
	fmt.Fprintf(&b, "- name: %s\n", sum.Goal.Name)
	fmt.Fprintf(&b, "- target: %s\n", sum.Goal.Target.StringFixed(2))
	fmt.Fprintf(&b, "- saved so far: %s (%d%%)\n", sum.Value.StringFixed(2), sum.Progress)
	fmt.Fprintf(&b, "- weekly target: %s\n", sum.WeeklyTarget.StringFixed(2))
	if sum.WeeklyAverage != nil {
		fmt.Fprintf(&b, "- weekly average: %s\n", sum.WeeklyAverage.StringFixed(2))
	}
	fmt.Fprintf(&b, "- weeks left: %d (days left: %d)\n", sum.WeeksLeft, sum.DaysLeft)
	fmt.Fprintf(&b, "- current weekly streak: %d\n", sum.CurrentStreak)
	fmt.Fprintf(&b, "- goal reached: %t\n", sum.IsGoalReached)

	recent := recentWeeks(sum, 4)
	if len(recent) > 0 {
		b.WriteString("\nRecent weeks (oldest first):\n")
		for _, w := range recent {
			fmt.Fprintf(&b, "- week %d (%s): %s\n", w.Index, w.Start, w.Value.StringFixed(2))
		}
	}

	if sum.IsGoalReached {
		b.WriteString("\nThe goal is reached: congratulate them and suggest what to do next.\n")
	}
	return b.String()
}

func recentWeeks(sum *goals.Summary, n int) []goals.Week {
	elapsed := sum.WeekCountToNow
	if elapsed > len(sum.Weeks) {
		elapsed = len(sum.Weeks)
	}
	weeks := sum.Weeks[:elapsed]
	if len(weeks) > n {
		weeks = weeks[len(weeks)-n:]
	}
	return weeks
}

// CleanTip strips Markdown wrappers, quotes and labels the model adds despite
// instructions, and truncates long answers at a word boundary.
func CleanTip(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))

	for _, prefix := range []string{"Tip:", "tip:", "**Tip:**"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	s = strings.Trim(s, "\"'*")
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) <= maxTipRunes {
		return s
	}
	runes := []rune(s)[:maxTipRunes]
	cut := string(runes)
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
