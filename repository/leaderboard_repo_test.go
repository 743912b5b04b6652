package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/winterarc/services/leaderboard"
	"github.com/cppla/winterarc/testutil"
)

func TestLeaderboardOrderingAndCounts(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a", 50, 0, "")
	b := testutil.CreateUser(t, db, "b", 80, 0, "")
	c := testutil.CreateUser(t, db, "c", 50, 0, "")

	repo := NewLeaderboardRepository(db)
	entries, err := repo.ListProfilesByCoinsDescending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []uint{b.ID, a.ID, c.ID}, []uint{entries[0].UserID, entries[1].UserID, entries[2].UserID})
	assert.Equal(t, "b", entries[0].DisplayName)

	n, err := repo.CountProfilesWithCoinsGreaterThan(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLeaderboardEleventhProfileRank(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		testutil.CreateUser(t, db, fmt.Sprintf("top%d", i), 1000-i*50, 0, "")
	}
	eleventh := testutil.CreateUser(t, db, "eleventh", 100, 0, "")

	svc := leaderboard.NewService(NewLeaderboardRepository(db), nil, 10, 0, nil)
	board, err := svc.Board(ctx, eleventh.ID)
	require.NoError(t, err)

	assert.Len(t, board.Entries, 10)
	assert.False(t, board.InTop)
	// rank is measured against the leader's 1000 coins, not the user's own 100
	assert.Equal(t, 1, board.UserRank)
}
