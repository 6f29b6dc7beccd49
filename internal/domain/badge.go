package domain

import "time"

// BadgeState toggles whether a badge is shown to users.
type BadgeState string

const (
	BadgeStateActive   BadgeState = "ACTIVE"
	BadgeStateInactive BadgeState = "INACTIVE"
)

// Badge is a reference record describing an award.
type Badge struct {
	ID          string
	Name        string
	Description string
	State       BadgeState
}

// UserBadge records that a user earned a badge. (UserID, BadgeID) is unique.
type UserBadge struct {
	ID        string
	UserID    string
	BadgeID   string
	GoalID    string // goal that triggered the award, if any
	AwardedAt time.Time
}
