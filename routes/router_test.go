package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/config"
	"github.com/cppla/winterarc/events"
	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/repository"
	"github.com/cppla/winterarc/services/leaderboard"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/testutil"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	engine *progression.Engine
	bus    *events.MemoryBus
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	config.Override(config.AppConfig{
		JWTSecret:                  "test-secret",
		GinMode:                    "test",
		GinPath:                    filepath.Join(t.TempDir(), "gin.log"),
		RateLimitPerMinute:         6000,
		RegisterAttemptCooldownSec: -1,
		RegisterMaxPerIPPerDay:     -1,
	})

	db := testutil.OpenTestDB(t)
	cat, err := catalog.Default()
	require.NoError(t, err)
	bus := events.NewMemoryBus(nil)
	t.Cleanup(func() { _ = bus.Close() })

	engine := progression.NewEngine(repository.NewProgressStore(db), cat, progression.WithPublisher(bus))
	board := leaderboard.NewService(repository.NewLeaderboardRepository(db), nil, 10, 0, nil)

	r := SetupRouter(Deps{
		DB:          db,
		Catalog:     cat,
		Engine:      engine,
		Leaderboard: board,
		Bus:         bus,
		Location:    time.UTC,
	})
	return &testApp{router: r, db: db, engine: engine, bus: bus}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *testApp) register(t *testing.T, email, name string) (string, uint) {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        email,
		"password":     "secret123",
		"display_name": name,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token, data.User.ID
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestRegisterLoginAndProfile(t *testing.T) {
	app := newTestApp(t)
	token, id := app.register(t, "Alice@Example.com", "  <b>Alice</b> ")

	status, env := app.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		ID          uint   `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		TotalCoins  int    `json:"total_coins"`
	}
	decode(t, env.Data, &me)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, "Alice", me.DisplayName)
	assert.Equal(t, 0, me.TotalCoins)

	status, env = app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "secret123", "display_name": "again",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 40901, env.Code)

	status, env = app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "short@example.com", "password": "123", "display_name": "short",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40106, env.Code)

	status, _ = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)

	status, env = app.do(t, http.MethodPatch, "/api/v1/auth/profile", token, map[string]string{
		"display_name": "Alice A.", "avatar_url": "https://img.example.com/a.png",
	})
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &me)
	assert.Equal(t, "Alice A.", me.DisplayName)

	status, env = app.do(t, http.MethodPatch, "/api/v1/auth/profile", token, map[string]string{"avatar_url": "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40032, env.Code)
}

func TestLocalIdentityIsUnique(t *testing.T) {
	app := newTestApp(t)

	// a row committed between the duplicate check and the insert
	require.NoError(t, app.db.Create(&models.User{
		Provider:    "local",
		ProviderID:  "racer@example.com",
		DisplayName: "first",
	}).Error)
	status, env := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "racer@example.com", "password": "secret123", "display_name": "second",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 40901, env.Code)

	dup := models.User{Email: "racer@example.com", Provider: "local", ProviderID: "racer@example.com", DisplayName: "third"}
	assert.ErrorIs(t, app.db.Create(&dup).Error, gorm.ErrDuplicatedKey)

	// the same address may still sign in through an OAuth provider
	oauth := models.User{Email: "racer@example.com", Provider: "github", ProviderID: "42", DisplayName: "gh"}
	assert.NoError(t, app.db.Create(&oauth).Error)
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register(t, "logout@example.com", "Leaver")

	status, _ := app.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := app.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40104, env.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	status, env := app.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40101, env.Code)

	status, env = app.do(t, http.MethodGet, "/api/v1/dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40105, env.Code)

	status, env = app.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40400, env.Code)
}

func TestCompletionFlow(t *testing.T) {
	app := newTestApp(t)
	token, id := app.register(t, "runner@example.com", "Runner")

	status, env := app.do(t, http.MethodPost, "/api/v1/questions/two-sum/complete", token, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var res struct {
		CoinsEarned    int `json:"coins_earned"`
		TotalCoins     int `json:"total_coins"`
		CurrentStreak  int `json:"current_streak"`
		TodayCompleted int `json:"today_completed"`
		DailyLimit     int `json:"daily_limit"`
	}
	decode(t, env.Data, &res)
	assert.Equal(t, 10, res.CoinsEarned)
	assert.Equal(t, 10, res.TotalCoins)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 1, res.TodayCompleted)
	assert.Equal(t, 2, res.DailyLimit)

	status, env = app.do(t, http.MethodPost, "/api/v1/questions/two-sum/complete", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 40911, env.Code)

	status, env = app.do(t, http.MethodPost, "/api/v1/questions/no-such-question/complete", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40420, env.Code)

	status, _ = app.do(t, http.MethodPost, "/api/v1/questions/product-of-array-except-self/complete", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = app.do(t, http.MethodPost, "/api/v1/questions/contains-duplicate/complete", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 40910, env.Code)

	status, env = app.do(t, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	var dash struct {
		Profile struct {
			TotalCoins int `json:"total_coins"`
		} `json:"profile"`
		TotalCompleted  int     `json:"total_completed"`
		TodayCompleted  int     `json:"today_completed"`
		OverallProgress float64 `json:"overall_progress"`
		DailyProgress   float64 `json:"daily_progress"`
	}
	decode(t, env.Data, &dash)
	assert.Equal(t, 30, dash.Profile.TotalCoins)
	assert.Equal(t, 2, dash.TotalCompleted)
	assert.Equal(t, 2, dash.TodayCompleted)
	assert.InDelta(t, 1.1, dash.OverallProgress, 0.001)
	assert.InDelta(t, 100.0, dash.DailyProgress, 0.001)

	status, env = app.do(t, http.MethodDelete, "/api/v1/questions/two-sum/complete", token, nil)
	require.Equal(t, http.StatusOK, status)
	var undo struct {
		Completed []string `json:"completed"`
	}
	decode(t, env.Data, &undo)
	assert.Equal(t, []string{"product-of-array-except-self"}, undo.Completed)

	var u models.User
	require.NoError(t, app.db.First(&u, id).Error)
	assert.Equal(t, 30, u.TotalCoins)

	status, env = app.do(t, http.MethodGet, "/api/v1/questions?topic=arrays", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Items []struct {
			ID        string `json:"id"`
			Topic     string `json:"topic"`
			Completed bool   `json:"completed"`
		} `json:"items"`
		Topics []string `json:"topics"`
	}
	decode(t, env.Data, &list)
	require.NotEmpty(t, list.Items)
	assert.Contains(t, list.Topics, "arrays")
	for _, item := range list.Items {
		assert.Equal(t, "arrays", item.Topic)
		assert.Equal(t, item.ID == "product-of-array-except-self", item.Completed, item.ID)
	}
}

func TestNotes(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register(t, "notes@example.com", "Noter")

	status, env := app.do(t, http.MethodGet, "/api/v1/questions/two-sum/note", token, nil)
	require.Equal(t, http.StatusOK, status)
	var note struct {
		NoteContent string `json:"note_content"`
	}
	decode(t, env.Data, &note)
	assert.Empty(t, note.NoteContent)

	status, env = app.do(t, http.MethodPut, "/api/v1/questions/two-sum/note", token, map[string]string{
		"note_content": `hash map <script>alert(1)</script><b>O(n)</b>`,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env.Data, &note)
	assert.NotContains(t, note.NoteContent, "<script>")
	assert.Contains(t, note.NoteContent, "<b>O(n)</b>")

	status, env = app.do(t, http.MethodPut, "/api/v1/questions/two-sum/note", token, map[string]string{
		"note_content": strings.Repeat("x", 5001),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40021, env.Code)

	status, env = app.do(t, http.MethodPut, "/api/v1/questions/nope/note", token, map[string]string{"note_content": "x"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40420, env.Code)
}

func TestLeaderboardAndAchievements(t *testing.T) {
	app := newTestApp(t)
	token, id := app.register(t, "leader@example.com", "Leader")
	testutil.CreateUser(t, app.db, "rich", 400, 0, "")
	require.NoError(t, app.db.Model(&models.User{}).Where("id = ?", id).Update("total_coins", 95).Error)

	status, _ := app.do(t, http.MethodPost, "/api/v1/questions/two-sum/complete", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := app.do(t, http.MethodGet, "/api/v1/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	var board leaderboard.Board
	decode(t, env.Data, &board)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "rich", board.Entries[0].DisplayName)
	assert.Equal(t, 105, board.Entries[1].TotalCoins)
	assert.Equal(t, 2, board.UserRank)
	assert.True(t, board.InTop)

	status, env = app.do(t, http.MethodGet, "/api/v1/achievements", token, nil)
	require.Equal(t, http.StatusOK, status)
	var ach struct {
		Earned []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"earned"`
		Catalog []catalog.AchievementInfo `json:"catalog"`
	}
	decode(t, env.Data, &ach)
	require.Len(t, ach.Earned, 1)
	assert.Equal(t, catalog.Coins100, ach.Earned[0].Type)
	assert.Equal(t, "Century Club", ach.Earned[0].Name)
	assert.Len(t, ach.Catalog, 8)

	status, env = app.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		UserCount        int `json:"user_count"`
		CompletionCount  int `json:"completion_count"`
		ActiveTodayCount int `json:"active_today_count"`
	}
	decode(t, env.Data, &stats)
	assert.Equal(t, 2, stats.UserCount)
	assert.Equal(t, 1, stats.CompletionCount)
	assert.Equal(t, 1, stats.ActiveTodayCount)
}

func TestRulesArePublic(t *testing.T) {
	app := newTestApp(t)
	status, env := app.do(t, http.MethodGet, "/api/v1/config/rules", "", nil)
	require.Equal(t, http.StatusOK, status)

	var rules struct {
		TotalDays      int            `json:"total_days"`
		TotalQuestions int            `json:"total_questions"`
		DailyLimit     int            `json:"daily_limit"`
		Coins          map[string]int `json:"coins"`
		Achievements   []struct {
			Type string `json:"type"`
		} `json:"achievements"`
	}
	decode(t, env.Data, &rules)
	assert.Equal(t, 90, rules.TotalDays)
	assert.Equal(t, 180, rules.TotalQuestions)
	assert.Equal(t, progression.DefaultDailyLimit, rules.DailyLimit)
	assert.Equal(t, 20, rules.Coins["medium"])
	assert.Len(t, rules.Achievements, 8)
}

func TestEventStream(t *testing.T) {
	app := newTestApp(t)
	token, id := app.register(t, "stream@example.com", "Streamer")
	other := testutil.CreateUser(t, app.db, "other", 0, 0, "")

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?access_token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "event:") {
				return strings.TrimPrefix(l, "event:")
			}
		}
		return ""
	}
	require.Equal(t, "ready", next())

	today := progression.DateOf(time.Now(), time.UTC)
	_, err = app.engine.RecordCompletion(ctx, other.ID, "two-sum", today)
	require.NoError(t, err)
	assert.Equal(t, events.TypeLeaderboardUpdated, next())

	_, err = app.engine.RecordCompletion(ctx, id, "two-sum", today)
	require.NoError(t, err)
	assert.Equal(t, events.TypeCompleted, next())
}
