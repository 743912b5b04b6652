package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedEngine(t *testing.T, h gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	r := gin.New()
	r.Use(Ginzap(logger, time.RFC3339, true), RecoveryWithZap(logger, false))
	r.GET("/api/v1/events", h)
	return r, logs
}

func assertNoSecret(t *testing.T, logs *observer.ObservedLogs, secret string) {
	t.Helper()
	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, secret)
		for k, v := range entry.ContextMap() {
			s, ok := v.(string)
			if ok {
				assert.NotContains(t, s, secret, "field %q", k)
			}
		}
	}
}

func TestGinzapMasksAccessToken(t *testing.T) {
	r, logs := observedEngine(t, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?access_token=SECRETJWT&since=5", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assertNoSecret(t, logs, "SECRETJWT")
	query, _ := logs.All()[0].ContextMap()["query"].(string)
	assert.Contains(t, query, "since=5")
	assert.Contains(t, query, "access_token=")
}

func TestRecoveryMasksCredentials(t *testing.T) {
	r, logs := observedEngine(t, func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?access_token=SECRETJWT", nil)
	req.Header.Set("Authorization", "Bearer SECRETHEADER")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assertNoSecret(t, logs, "SECRETJWT")
	assertNoSecret(t, logs, "SECRETHEADER")
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "", redactQuery(""))
	assert.Equal(t, "topic=arrays", redactQuery("topic=arrays"))
	assert.Equal(t, "access_token=%2A%2A%2A", redactQuery("access_token=abc"))
	assert.Equal(t, "[unparsable]", redactQuery("access_token=abc;x=%zz"))
}
