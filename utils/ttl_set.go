package utils

import (
	"context"
	"sync"
	"time"
)

// ttlSet is a set of keys that expire. It lives in Redis when available and in process memory otherwise.
type ttlSet struct {
	prefix string
	mu     sync.Mutex
	local  map[string]time.Time
}

func newTTLSet(prefix string) *ttlSet {
	return &ttlSet{prefix: prefix, local: map[string]time.Time{}}
}

func (s *ttlSet) add(member string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, s.prefix+member, "1", ttl).Err(); err == nil {
			return
		}
	}
	now := time.Now()
	s.mu.Lock()
	s.local[member] = now.Add(ttl)
	// opportunistic sweep keeps the map bounded by live entries
	for k, exp := range s.local {
		if now.After(exp) {
			delete(s.local, k)
		}
	}
	s.mu.Unlock()
}

func (s *ttlSet) contains(member string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, s.prefix+member).Result(); err == nil && n > 0 {
			return true
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.local[member]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.local, member)
		return false
	}
	return true
}

// take removes member and reports whether it was present and live.
func (s *ttlSet) take(member string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := rc.GetDel(ctx, s.prefix+member).Result(); err == nil && v != "" {
			return true
		}
	}
	s.mu.Lock()
	exp, ok := s.local[member]
	delete(s.local, member)
	s.mu.Unlock()
	return ok && time.Now().Before(exp)
}

var (
	oauthStates = newTTLSet("oauth:state:")
	revoked     = newTTLSet("jwt:blacklist:")
)

// SaveState stores an OAuth state token with TTL to mitigate CSRF.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	oauthStates.add(state, ttl)
}

// ConsumeState validates and removes a state token. Each state is single use.
func ConsumeState(state string) bool {
	if state == "" {
		return false
	}
	return oauthStates.take(state)
}

// BlacklistToken revokes a token until its natural expiration.
func BlacklistToken(token string, expiresAt time.Time) {
	revoked.add(token, time.Until(expiresAt))
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(token string) bool {
	return revoked.contains(token)
}
