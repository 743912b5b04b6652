package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/winterarc/events"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(0, 180))
	assert.Equal(t, 1.1, percent(2, 180))
	assert.Equal(t, 50.0, percent(1, 2))
	assert.Equal(t, 100.0, percent(3, 2))
	assert.Equal(t, 0.0, percent(1, 0))
}

func TestProjectEventForViewer(t *testing.T) {
	at := time.Now()
	own := events.Event{Type: events.TypeAchievement, UserID: 1, Achievement: "coins_100", At: at}
	out, ok := project(own, 1)
	assert.True(t, ok)
	assert.Equal(t, own, out)

	_, ok = project(own, 2)
	assert.False(t, ok, "other users' achievements stay private")

	out, ok = project(events.Event{Type: events.TypeCompleted, UserID: 1, TotalCoins: 50, At: at}, 2)
	assert.True(t, ok)
	assert.Equal(t, events.Event{Type: events.TypeLeaderboardUpdated, At: at}, out)
}

func TestNormalizeEmailAndDisplayName(t *testing.T) {
	email, ok := normalizeEmail("  Bob@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "bob@example.com", email)
	_, ok = normalizeEmail("Bob <bob@example.com>")
	assert.False(t, ok)
	_, ok = normalizeEmail("")
	assert.False(t, ok)

	name, ok := cleanDisplayName("<i>Bob</i>")
	assert.True(t, ok)
	assert.Equal(t, "Bob", name)
	_, ok = cleanDisplayName("   ")
	assert.False(t, ok)
}
