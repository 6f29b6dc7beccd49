package notionsync

import (
	"time"

	"github.com/dvloznov/savings-coach/internal/goals"
	"github.com/jomei/notionapi"
)

// Property names of the goal progress database.
const (
	propGoalID        = "Goal ID"
	propName          = "Name"
	propUser          = "User"
	propTarget        = "Target"
	propSaved         = "Saved"
	propProgress      = "Progress"
	propWeeklyTarget  = "Weekly Target"
	propLongestStreak = "Longest Streak"
	propReached       = "Reached"
	propEndDate       = "End Date"
)

// GoalToNotionProperties converts a goal summary to Notion properties.
func GoalToNotionProperties(sum *goals.Summary) notionapi.Properties {
	g := sum.Goal
	end := notionapi.Date(time.Date(g.EndDate.Year, g.EndDate.Month, g.EndDate.Day, 0, 0, 0, 0, time.UTC))

	return notionapi.Properties{
		propGoalID: notionapi.TitleProperty{
			Title: []notionapi.RichText{text(g.ID)},
		},
		propName: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{text(g.Name)},
		},
		propUser: notionapi.SelectProperty{
			Select: notionapi.Option{Name: g.UserID},
		},
		propTarget: notionapi.NumberProperty{
			Number: g.Target.InexactFloat64(),
		},
		propSaved: notionapi.NumberProperty{
			Number: sum.Value.InexactFloat64(),
		},
		propProgress: notionapi.NumberProperty{
			Number: float64(sum.Progress),
		},
		propWeeklyTarget: notionapi.NumberProperty{
			Number: sum.WeeklyTarget.InexactFloat64(),
		},
		propLongestStreak: notionapi.NumberProperty{
			Number: float64(sum.Streaks.LongestOnTarget),
		},
		propReached: notionapi.CheckboxProperty{
			Checkbox: sum.IsGoalReached,
		},
		propEndDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &end},
		},
	}
}

func text(s string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}
}

// extractGoalID returns the Goal ID title of a page, or "" if it has none.
func extractGoalID(page notionapi.Page) string {
	var title []notionapi.RichText
	switch p := page.Properties[propGoalID].(type) {
	case *notionapi.TitleProperty:
		title = p.Title
	case notionapi.TitleProperty:
		title = p.Title
	}
	if len(title) == 0 {
		return ""
	}
	if title[0].PlainText != "" {
		return title[0].PlainText
	}
	if title[0].Text != nil {
		return title[0].Text.Content
	}
	return ""
}
