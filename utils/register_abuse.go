package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/winterarc/config"
)

// Registration guards are keyed by client IP. Without Redis they fall back to a
// process-local counter map; Redis errors fail open.

func regKey(parts ...string) string {
	return "reg:" + strings.Join(parts, ":")
}

type localCounter struct {
	n   int
	exp time.Time
}

var (
	regLocal   = map[string]localCounter{}
	regLocalMu sync.Mutex
)

func localIncr(key string, ttl time.Duration) int {
	now := time.Now()
	regLocalMu.Lock()
	defer regLocalMu.Unlock()
	c := regLocal[key]
	if now.After(c.exp) {
		c = localCounter{exp: now.Add(ttl)}
	}
	c.n++
	regLocal[key] = c
	return c.n
}

func localGet(key string) int {
	regLocalMu.Lock()
	defer regLocalMu.Unlock()
	c, ok := regLocal[key]
	if !ok || time.Now().After(c.exp) {
		delete(regLocal, key)
		return 0
	}
	return c.n
}

func regCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 500*time.Millisecond)
}

func untilTomorrow() time.Duration {
	now := time.Now()
	return time.Until(now.Truncate(24 * time.Hour).Add(24 * time.Hour))
}

// RegistrationCooldownTry enforces a short cooldown between attempts per IP.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	key := regKey("cooldown", ip)
	ttl := time.Duration(sec) * time.Second
	cli := GetRedis()
	if cli == nil {
		return localIncr(key, ttl) == 1
	}
	ctx, cancel := regCtx()
	defer cancel()
	ok, err := cli.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck allows up to N successful registrations per day per IP.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	key := regKey("succday", ip, time.Now().Format("20060102"))
	cli := GetRedis()
	if cli == nil {
		return localGet(key) < limit
	}
	ctx, cancel := regCtx()
	defer cancel()
	n, err := cli.Get(ctx, key).Int()
	if err == redis.Nil {
		n = 0
	} else if err != nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement increments the success counter for today.
func RegistrationDailyIncrement(ip string) {
	key := regKey("succday", ip, time.Now().Format("20060102"))
	cli := GetRedis()
	if cli == nil {
		localIncr(key, untilTomorrow())
		return
	}
	ctx, cancel := regCtx()
	defer cancel()
	if err := cli.Incr(ctx, key).Err(); err == nil {
		_ = cli.Expire(ctx, key, untilTomorrow()).Err()
	}
}

// RegistrationFailRecord increments the failure count for the current hour and bans the IP
// once the configured threshold is reached. It returns the current count.
func RegistrationFailRecord(ip string) int {
	key := regKey("failhour", ip, time.Now().Format("2006010215"))
	var n int
	if cli := GetRedis(); cli != nil {
		ctx, cancel := regCtx()
		v, err := cli.Incr(ctx, key).Result()
		if err == nil {
			_ = cli.Expire(ctx, key, time.Hour).Err()
		}
		cancel()
		n = int(v)
	} else {
		n = localIncr(key, time.Hour)
	}
	if max := config.Get().RegisterFailedMaxPerIPPerHour; max > 0 && n >= max {
		RegistrationBan(ip)
	}
	return n
}

// RegistrationIsBanned checks temporary ban status for IP.
func RegistrationIsBanned(ip string) bool {
	key := regKey("ban", ip)
	cli := GetRedis()
	if cli == nil {
		return localGet(key) > 0
	}
	ctx, cancel := regCtx()
	defer cancel()
	exists, err := cli.Exists(ctx, key).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// RegistrationBan sets a temporary ban for IP.
func RegistrationBan(ip string) {
	minutes := config.Get().RegisterTempBanMinutes
	if minutes <= 0 {
		minutes = 60
	}
	key := regKey("ban", ip)
	ttl := time.Duration(minutes) * time.Minute
	cli := GetRedis()
	if cli == nil {
		localIncr(key, ttl)
		return
	}
	ctx, cancel := regCtx()
	defer cancel()
	_ = cli.Set(ctx, key, "ban-"+ip, ttl).Err()
}
