// Package repository implements the persistence capabilities used by the services on top of gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/services/progression"
)

// ProgressStore is the gorm-backed progression.Store.
type ProgressStore struct {
	db *gorm.DB
}

// NewProgressStore wraps db.
func NewProgressStore(db *gorm.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// WithinTx runs fn inside a database transaction.
func (s *ProgressStore) WithinTx(ctx context.Context, fn func(tx progression.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&progressTx{db: tx, lockRows: supportsRowLocks(tx)})
	})
}

// supportsRowLocks reports whether SELECT ... FOR UPDATE is available. SQLite serializes writers instead.
func supportsRowLocks(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return true
	default:
		return false
	}
}

type progressTx struct {
	db       *gorm.DB
	lockRows bool
}

func (t *progressTx) GetProfile(ctx context.Context, userID uint) (progression.Profile, error) {
	q := t.db.WithContext(ctx)
	if t.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user models.User
	if err := q.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return progression.Profile{}, progression.ErrProfileNotFound
		}
		return progression.Profile{}, fmt.Errorf("load profile %d: %w", userID, err)
	}
	return ProfileFromUser(user)
}

func (t *progressTx) PutProfile(ctx context.Context, p progression.Profile) error {
	var last *string
	if p.LastActivityDate != nil {
		s := progression.FormatDay(*p.LastActivityDate)
		last = &s
	}
	res := t.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", p.UserID).Updates(map[string]interface{}{
		"total_coins":        p.TotalCoins,
		"current_streak":     p.CurrentStreak,
		"last_activity_date": last,
		"updated_at":         time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update profile %d: %w", p.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return progression.ErrProfileNotFound
	}
	return nil
}

func (t *progressTx) InsertCompletionRecord(ctx context.Context, userID uint, questionID string, coins int, at time.Time) error {
	db := t.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.UserProgress{}).Where("user_id = ? AND question_id = ?", userID, questionID).Count(&n).Error; err != nil {
		return fmt.Errorf("check completion: %w", err)
	}
	if n > 0 {
		return progression.ErrAlreadyCompleted
	}
	rec := models.UserProgress{UserID: userID, QuestionID: questionID, CoinsEarned: coins, CompletedAt: at}
	if err := db.Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return progression.ErrAlreadyCompleted
		}
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (t *progressTx) DeleteCompletionRecord(ctx context.Context, userID uint, questionID string) error {
	err := t.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&models.UserProgress{}).Error
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

func (t *progressTx) CompletedQuestionIDs(ctx context.Context, userID uint) ([]string, error) {
	ids := []string{}
	err := t.db.WithContext(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Order("completed_at ASC, id ASC").
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return ids, nil
}

func (t *progressTx) GetDailyCounter(ctx context.Context, userID uint, day time.Time) (progression.DailyCounter, bool, error) {
	var row models.DailyProgress
	err := t.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, progression.FormatDay(day)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return progression.DailyCounter{UserID: userID, Date: day}, false, nil
		}
		return progression.DailyCounter{}, false, fmt.Errorf("load daily counter: %w", err)
	}
	return progression.DailyCounter{UserID: userID, Date: day, QuestionsCompleted: row.QuestionsCompleted}, true, nil
}

func (t *progressTx) UpsertDailyCounter(ctx context.Context, userID uint, day time.Time, count int) error {
	now := time.Now()
	row := models.DailyProgress{UserID: userID, Date: progression.FormatDay(day), QuestionsCompleted: count, CreatedAt: now, UpdatedAt: now}
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"questions_completed": count, "updated_at": now}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert daily counter: %w", err)
	}
	return nil
}

func (t *progressTx) InsertAchievementIfAbsent(ctx context.Context, userID uint, achievementType, name string) (bool, error) {
	row := models.Achievement{UserID: userID, AchievementType: achievementType, AchievementName: name, EarnedAt: time.Now()}
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert achievement: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ProfileFromUser converts the persisted user row into a progression profile.
func ProfileFromUser(u models.User) (progression.Profile, error) {
	p := progression.Profile{
		UserID:        u.ID,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		TotalCoins:    u.TotalCoins,
		CurrentStreak: u.CurrentStreak,
	}
	if u.LastActivityDate != nil && *u.LastActivityDate != "" {
		d, err := progression.ParseDay(*u.LastActivityDate)
		if err != nil {
			return progression.Profile{}, fmt.Errorf("profile %d: bad last_activity_date %q: %w", u.ID, *u.LastActivityDate, err)
		}
		p.LastActivityDate = &d
	}
	return p, nil
}
