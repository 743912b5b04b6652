// Package events carries progress notifications from the progression engine to subscribers
// (the SSE stream and the leaderboard cache).
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeCompleted          = "progress.completed"
	TypeReverted           = "progress.reverted"
	TypeAchievement        = "achievement.unlocked"
	TypeLeaderboardUpdated = "leaderboard.updated"
)

// Event describes a committed state change for one user.
type Event struct {
	Type          string    `json:"type"`
	UserID        uint      `json:"user_id"`
	QuestionID    string    `json:"question_id,omitempty"`
	TotalCoins    int       `json:"total_coins"`
	CurrentStreak int       `json:"current_streak"`
	DailyCount    int       `json:"daily_count"`
	Achievement   string    `json:"achievement,omitempty"`
	At            time.Time `json:"at"`
}

// Bus publishes events and fans them out to local subscribers.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events and a cancel func that closes it.
	Subscribe() (<-chan Event, func())
	Close() error
}
