// Package leaderboard ranks profiles by total coins.
package leaderboard

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/winterarc/events"
)

const cachePrefix = "cache:leaderboard:"

// Entry is one ranked profile.
type Entry struct {
	Rank          int    `json:"rank"`
	UserID        uint   `json:"user_id"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url"`
	TotalCoins    int    `json:"total_coins"`
	CurrentStreak int    `json:"current_streak"`
}

// Source provides the two ranking queries.
type Source interface {
	ListProfilesByCoinsDescending(ctx context.Context, limit int) ([]Entry, error)
	CountProfilesWithCoinsGreaterThan(ctx context.Context, n int) (int, error)
}

// Cache stores serialized top-N slices.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// Board is the leaderboard as seen by one user.
type Board struct {
	Entries  []Entry `json:"entries"`
	UserRank int     `json:"user_rank"`
	InTop    bool    `json:"in_top"`
}

// Service builds boards, caching the top-N slice when a Cache is configured.
type Service struct {
	src   Source
	cache Cache
	size  int
	ttl   time.Duration
	log   *zap.Logger
}

// NewService creates a Service. cache and log may be nil.
func NewService(src Source, cache Cache, size int, ttl time.Duration, log *zap.Logger) *Service {
	if size <= 0 {
		size = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{src: src, cache: cache, size: size, ttl: ttl, log: log}
}

// Board returns the top-N slice and userID's rank.
func (s *Service) Board(ctx context.Context, userID uint) (Board, error) {
	top, err := s.top(ctx)
	if err != nil {
		return Board{}, err
	}
	rank, inTop, err := Rank(top, userID, func(n int) (int, error) {
		return s.src.CountProfilesWithCoinsGreaterThan(ctx, n)
	})
	if err != nil {
		return Board{}, err
	}
	return Board{Entries: top, UserRank: rank, InTop: inTop}, nil
}

func (s *Service) top(ctx context.Context) ([]Entry, error) {
	key := cachePrefix + "top:" + strconv.Itoa(s.size)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached []Entry
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	entries, err := s.src.ListProfilesByCoinsDescending(ctx, s.size)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			s.cache.Set(ctx, key, raw, s.ttl)
		}
	}
	return entries, nil
}

// Rank places userID against a top slice ordered by coins. Inside the slice the rank is the
// position. Outside it the rank is one plus the number of profiles with more coins than the
// slice's first entry, so anyone off the board is usually ranked 1.
func Rank(top []Entry, userID uint, countAbove func(n int) (int, error)) (int, bool, error) {
	for i, e := range top {
		if e.UserID == userID {
			return i + 1, true, nil
		}
	}
	threshold := 0
	if len(top) > 0 {
		threshold = top[0].TotalCoins
	}
	n, err := countAbove(threshold)
	if err != nil {
		return 0, false, err
	}
	return n + 1, false, nil
}

// Invalidate drops cached slices.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePrefix(ctx, cachePrefix)
	}
}

// Watch invalidates the cache for every progress event until ctx is done or the bus closes.
func (s *Service) Watch(ctx context.Context, bus events.Bus) {
	ch, cancel := bus.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				switch ev.Type {
				case events.TypeCompleted, events.TypeReverted:
					s.Invalidate(ctx)
					s.log.Debug("leaderboard cache invalidated", zap.String("type", ev.Type), zap.Uint("user_id", ev.UserID))
				}
			}
		}
	}()
}
