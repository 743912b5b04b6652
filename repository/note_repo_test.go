package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/testutil"
)

func TestNoteUpsertReplacesContent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "noter", 0, 0, "")
	repo := NewNoteRepository(db)

	_, found, err := repo.Get(ctx, u.ID, "two-sum")
	require.NoError(t, err)
	assert.False(t, found)

	first, err := repo.Upsert(ctx, u.ID, "two-sum", "use a hash map")
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, u.ID, "two-sum", "one pass is enough")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "one pass is enough", second.NoteContent)

	all, err := repo.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"two-sum": "one pass is enough"}, all)
}

func TestQuestionSeedIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	cat, err := catalog.Default()
	require.NoError(t, err)

	repo := NewQuestionRepository(db)
	require.NoError(t, repo.Seed(ctx, cat.Questions()))
	require.NoError(t, repo.Seed(ctx, cat.Questions()))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, catalog.TotalQuestions, n)

	var q models.Question
	require.NoError(t, db.First(&q, "id = ?", "two-sum").Error)
	assert.Equal(t, 10, q.Coins)
}

func TestAchievementsNewestFirst(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "winner", 0, 0, "")
	store := NewProgressStore(db)

	require.NoError(t, store.WithinTx(ctx, func(tx progression.Tx) error {
		for _, typ := range []string{catalog.Coins100, catalog.Streak7} {
			if _, err := tx.InsertAchievementIfAbsent(ctx, u.ID, typ, typ); err != nil {
				return err
			}
		}
		inserted, err := tx.InsertAchievementIfAbsent(ctx, u.ID, catalog.Coins100, "again")
		assert.False(t, inserted)
		return err
	}))

	list, err := NewAchievementRepository(db).ListForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, catalog.Streak7, list[0].AchievementType)
}
