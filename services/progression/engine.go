// Package progression turns question completion events into coin, streak, daily-counter and
// achievement updates.
package progression

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/winterarc/events"
	"github.com/cppla/winterarc/models"
)

// DefaultDailyLimit is the number of questions that count towards progress per day.
const DefaultDailyLimit = 2

// QuestionSource resolves catalog questions.
type QuestionSource interface {
	Lookup(id string) (models.Question, bool)
}

// Publisher receives events after a successful commit.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Unlock is an achievement awarded by a completion.
type Unlock struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Completion is the result of RecordCompletion.
type Completion struct {
	QuestionID  string       `json:"question_id"`
	CoinsEarned int          `json:"coins_earned"`
	Profile     Profile      `json:"profile"`
	Daily       DailyCounter `json:"daily"`
	Unlocked    []Unlock     `json:"unlocked"`
}

// Snapshot is a consistent read of a user's progression state.
type Snapshot struct {
	Profile   Profile      `json:"profile"`
	Daily     DailyCounter `json:"daily"`
	Completed []string     `json:"completed"`
}

// Engine applies the progression rules. It is safe for concurrent use; calls for the same
// user are serialized through the Locker.
type Engine struct {
	store      Store
	questions  QuestionSource
	locker     Locker
	publisher  Publisher
	dailyLimit int
	now        func() time.Time
	log        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker replaces the default in-process per-user lock.
func WithLocker(l Locker) Option { return func(e *Engine) { e.locker = l } }

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option { return func(e *Engine) { e.publisher = p } }

// WithDailyLimit overrides the daily cap, which is also the streak goal.
func WithDailyLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.dailyLimit = n
		}
	}
}

// WithClock overrides the timestamp source for completion records.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine builds an engine over store and the question catalog.
func NewEngine(store Store, questions QuestionSource, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		questions:  questions,
		locker:     NewLocalLocker(),
		dailyLimit: DefaultDailyLimit,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DailyLimit reports the configured daily cap.
func (e *Engine) DailyLimit() int { return e.dailyLimit }

// RecordCompletion marks questionID complete for userID on the calendar day today.
// All writes happen in one transaction; a rejected call has no side effects.
func (e *Engine) RecordCompletion(ctx context.Context, userID uint, questionID string, today time.Time) (Completion, error) {
	q, ok := e.questions.Lookup(questionID)
	if !ok {
		return Completion{}, ErrUnknownQuestion
	}
	day := DateOf(today, nil)

	unlock, err := e.locker.Lock(ctx, lockKey(userID))
	if err != nil {
		return Completion{}, err
	}
	defer unlock()

	var res Completion
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		counter, _, err := tx.GetDailyCounter(ctx, userID, day)
		if err != nil {
			return err
		}
		if counter.QuestionsCompleted >= e.dailyLimit {
			return ErrDailyCapReached
		}

		if err := tx.InsertCompletionRecord(ctx, userID, q.ID, q.Coins, e.now()); err != nil {
			return err
		}

		count := counter.QuestionsCompleted + 1
		if err := tx.UpsertDailyCounter(ctx, userID, day, count); err != nil {
			return err
		}

		next := p
		next.TotalCoins = p.TotalCoins + q.Coins
		next.CurrentStreak = NextStreak(p.CurrentStreak, p.LastActivityDate, day, count, e.dailyLimit)
		d := day
		next.LastActivityDate = &d
		if err := tx.PutProfile(ctx, next); err != nil {
			return err
		}

		var unlocked []Unlock
		for _, t := range CrossedAchievements(next.TotalCoins, next.CurrentStreak) {
			inserted, err := tx.InsertAchievementIfAbsent(ctx, userID, t.Type, t.Name)
			if err != nil {
				return err
			}
			if inserted {
				unlocked = append(unlocked, Unlock{Type: t.Type, Name: t.Name})
			}
		}

		res = Completion{
			QuestionID:  q.ID,
			CoinsEarned: q.Coins,
			Profile:     next,
			Daily:       DailyCounter{UserID: userID, Date: day, QuestionsCompleted: count},
			Unlocked:    unlocked,
		}
		return nil
	})
	if err != nil {
		return Completion{}, err
	}

	e.log.Info("question completed",
		zap.Uint("user_id", userID),
		zap.String("question_id", q.ID),
		zap.Int("total_coins", res.Profile.TotalCoins),
		zap.Int("streak", res.Profile.CurrentStreak),
		zap.Int("daily_count", res.Daily.QuestionsCompleted),
	)

	at := e.now()
	e.publish(ctx, events.Event{
		Type:          events.TypeCompleted,
		UserID:        userID,
		QuestionID:    q.ID,
		TotalCoins:    res.Profile.TotalCoins,
		CurrentStreak: res.Profile.CurrentStreak,
		DailyCount:    res.Daily.QuestionsCompleted,
		At:            at,
	})
	for _, u := range res.Unlocked {
		e.publish(ctx, events.Event{
			Type:          events.TypeAchievement,
			UserID:        userID,
			TotalCoins:    res.Profile.TotalCoins,
			CurrentStreak: res.Profile.CurrentStreak,
			DailyCount:    res.Daily.QuestionsCompleted,
			Achievement:   u.Type,
			At:            at,
		})
	}
	return res, nil
}

// RevertCompletion deletes the completion record only. Coins, streak and the daily counter
// are left as they are. It returns the remaining completed question ids.
func (e *Engine) RevertCompletion(ctx context.Context, userID uint, questionID string) ([]string, error) {
	if _, ok := e.questions.Lookup(questionID); !ok {
		return nil, ErrUnknownQuestion
	}

	unlock, err := e.locker.Lock(ctx, lockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		remaining []string
		profile   Profile
	)
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		profile = p
		if err := tx.DeleteCompletionRecord(ctx, userID, questionID); err != nil {
			return err
		}
		remaining, err = tx.CompletedQuestionIDs(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("question reverted", zap.Uint("user_id", userID), zap.String("question_id", questionID))
	e.publish(ctx, events.Event{
		Type:          events.TypeReverted,
		UserID:        userID,
		QuestionID:    questionID,
		TotalCoins:    profile.TotalCoins,
		CurrentStreak: profile.CurrentStreak,
		At:            e.now(),
	})
	return remaining, nil
}

// Snapshot reads the profile, today's counter and the completed set in one transaction.
// It is also the reconciliation read path for clients that lost track of their state.
func (e *Engine) Snapshot(ctx context.Context, userID uint, today time.Time) (Snapshot, error) {
	day := DateOf(today, nil)
	var snap Snapshot
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		counter, _, err := tx.GetDailyCounter(ctx, userID, day)
		if err != nil {
			return err
		}
		completed, err := tx.CompletedQuestionIDs(ctx, userID)
		if err != nil {
			return err
		}
		counter.UserID = userID
		counter.Date = day
		snap = Snapshot{Profile: p, Daily: counter, Completed: completed}
		return nil
	})
	return snap, err
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event failed", zap.String("type", ev.Type), zap.Uint("user_id", ev.UserID), zap.Error(err))
	}
}

func lockKey(userID uint) string {
	return "progress:user:" + strconv.FormatUint(uint64(userID), 10)
}

// LocalLocker is an in-process keyed mutex.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*keyLock{}}
}

// Lock blocks until key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
