package progression

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDailyCapReached rejects a completion once the day's limit is used up.
	ErrDailyCapReached = errors.New("daily question limit reached")
	// ErrAlreadyCompleted rejects a second completion of the same question.
	ErrAlreadyCompleted = errors.New("question already completed")
	// ErrUnknownQuestion rejects ids outside the catalog.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrProfileNotFound is returned when the user has no profile.
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile is the progression state of one user.
type Profile struct {
	UserID           uint       `json:"user_id"`
	DisplayName      string     `json:"display_name"`
	AvatarURL        string     `json:"avatar_url"`
	TotalCoins       int        `json:"total_coins"`
	CurrentStreak    int        `json:"current_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
}

// DailyCounter is the per-day completion aggregate.
type DailyCounter struct {
	UserID             uint      `json:"user_id"`
	Date               time.Time `json:"date"`
	QuestionsCompleted int       `json:"questions_completed"`
}

// ProfileStore reads and writes profiles. Inside a transaction GetProfile locks the row.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uint) (Profile, error)
	PutProfile(ctx context.Context, p Profile) error
}

// ProgressLog holds completion records and daily counters.
type ProgressLog interface {
	// InsertCompletionRecord returns ErrAlreadyCompleted on a duplicate (user, question).
	InsertCompletionRecord(ctx context.Context, userID uint, questionID string, coins int, at time.Time) error
	// DeleteCompletionRecord is a no-op when the record does not exist.
	DeleteCompletionRecord(ctx context.Context, userID uint, questionID string) error
	CompletedQuestionIDs(ctx context.Context, userID uint) ([]string, error)
	// GetDailyCounter reports found=false when the day has no counter yet.
	GetDailyCounter(ctx context.Context, userID uint, day time.Time) (DailyCounter, bool, error)
	UpsertDailyCounter(ctx context.Context, userID uint, day time.Time, count int) error
}

// AchievementStore inserts achievements idempotently.
type AchievementStore interface {
	// InsertAchievementIfAbsent reports inserted=false when the achievement already exists.
	InsertAchievementIfAbsent(ctx context.Context, userID uint, achievementType, name string) (bool, error)
}

// Tx is the set of capabilities available inside one atomic unit.
type Tx interface {
	ProfileStore
	ProgressLog
	AchievementStore
}

// Store runs fn atomically: either every write made through tx commits or none does.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Locker serializes operations per key across callers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
