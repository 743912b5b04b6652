package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/winterarc/config"
)

func init() {
	config.Override(config.AppConfig{JWTSecret: "utils-test-secret"})
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "x@example.com", time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "x@example.com", claims.Email)

	expired, err := GenerateToken(7, "x@example.com", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
}

func TestStateIsSingleUse(t *testing.T) {
	SaveState("state-1", time.Minute)
	assert.True(t, ConsumeState("state-1"))
	assert.False(t, ConsumeState("state-1"))
	assert.False(t, ConsumeState(""))

	SaveState("state-2", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.False(t, ConsumeState("state-2"))
}

func TestBlacklist(t *testing.T) {
	BlacklistToken("tok-a", time.Now().Add(time.Minute))
	assert.True(t, IsTokenBlacklisted("tok-a"))
	assert.False(t, IsTokenBlacklisted("tok-b"))

	// already expired tokens are not stored
	BlacklistToken("tok-c", time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted("tok-c"))
}

func TestRegistrationGuardsWithoutRedis(t *testing.T) {
	ip := "203.0.113.9"
	assert.True(t, RegistrationCooldownTry(ip))
	assert.False(t, RegistrationCooldownTry(ip), "second attempt inside the cooldown")

	for i := 0; i < config.Get().RegisterMaxPerIPPerDay; i++ {
		assert.True(t, RegistrationDailyLimitCheck(ip))
		RegistrationDailyIncrement(ip)
	}
	assert.False(t, RegistrationDailyLimitCheck(ip))

	other := "203.0.113.10"
	assert.False(t, RegistrationIsBanned(other))
	for i := 0; i < config.Get().RegisterFailedMaxPerIPPerHour; i++ {
		RegistrationFailRecord(other)
	}
	assert.True(t, RegistrationIsBanned(other))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hi", SanitizePlain("  <script>x</script>hi "))
	assert.Equal(t, "<b>bold</b>", Sanitize("<b>bold</b><script>x</script>"))
}

func TestNilRedisCacheIsNoop(t *testing.T) {
	c := NewRedisCache(nil)
	c.Set(context.Background(), "k", []byte("v"), 0)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	c.InvalidatePrefix(context.Background(), "k")
}
