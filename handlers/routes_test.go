package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatihyuksel3109/mathlearn/badges"
	"github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/database"
	"github.com/fatihyuksel3109/mathlearn/periods"
	"github.com/fatihyuksel3109/mathlearn/services"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC))
	cal := periods.NewCalendar(time.UTC)
	progression := services.NewProgressionService(db, cal, clock)
	badgeSvc := services.NewBadgeService(db, badges.MustLoad(), cal, clock)
	champions := services.NewChampionService(db, cal, clock, nil)
	leaderboards := services.NewLeaderboardService(db, champions, nil)
	games := services.NewGameService(db, progression, badgeSvc, champions, clock)
	games.Leaderboards = leaderboards

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	SetupGameRoutes(app, games, services.NewLevelService(db))
	SetupProgressionRoutes(app, ProgressionDeps{
		Progression:    progression,
		Badges:         badgeSvc,
		Leaderboards:   leaderboards,
		Champions:      champions,
		StreamInterval: time.Second,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Name", "Ada")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestGameFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodPost, "/games/start", "u1", map[string]any{"game_type": "quick-race"})
	if status != fiber.StatusCreated {
		t.Fatalf("start: %d %v", status, body)
	}
	sessionID, _ := body["session_id"].(string)

	answers := make([]map[string]any, 5)
	for i := range answers {
		answers[i] = map[string]any{"question_type": "×", "is_correct": true, "time_spent": 2}
	}
	status, body = call(t, app, http.MethodPost, "/games/submit", "u1", map[string]any{
		"session_id": sessionID, "correct": 5, "wrong": 0, "time_spent": 10, "question_answers": answers,
	})
	if status != fiber.StatusOK {
		t.Fatalf("submit: %d %v", status, body)
	}
	if body["xp_earned"].(float64) != 50 || body["streak"].(float64) != 1 {
		t.Errorf("submit body = %v", body)
	}

	status, _ = call(t, app, http.MethodPost, "/games/submit", "u1", map[string]any{"session_id": sessionID, "correct": 5})
	if status != fiber.StatusConflict {
		t.Errorf("resubmit: %d", status)
	}

	status, body = call(t, app, http.MethodGet, "/leaderboard?period=daily", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("leaderboard: %d %v", status, body)
	}
	users, _ := body["users"].([]any)
	if len(users) != 1 || body["champion"] == nil {
		t.Errorf("leaderboard = %v", body)
	}

	status, body = call(t, app, http.MethodGet, "/user", "u1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("user: %d %v", status, body)
	}
	if u := body["user"].(map[string]any); u["name"] != "Ada" || u["xp"].(float64) != 50 {
		t.Errorf("user = %v", u)
	}
}

func TestValidationAndErrors(t *testing.T) {
	app := newTestApp(t)

	if status, _ := call(t, app, http.MethodPost, "/games/start", "", map[string]any{"game_type": "quick-race"}); status != fiber.StatusUnauthorized {
		t.Errorf("no user: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/games/start", "u1", map[string]any{}); status != fiber.StatusBadRequest {
		t.Errorf("missing game_type: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/games/start", "u1", map[string]any{"game_type": "chess"}); status != fiber.StatusBadRequest {
		t.Errorf("unknown game: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/games/submit", "u1", map[string]any{"session_id": "nope"}); status != fiber.StatusNotFound {
		t.Errorf("unknown session: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/levels/complete", "u1", map[string]any{"level_id": "level-1", "stars": 9}); status != fiber.StatusBadRequest {
		t.Errorf("stars out of range: %d", status)
	}
	if status, _ := call(t, app, http.MethodGet, "/leaderboard?period=yearly", "", nil); status != fiber.StatusBadRequest {
		t.Errorf("bad period: %d", status)
	}
	if status, _ := call(t, app, http.MethodGet, "/user", "nobody", nil); status != fiber.StatusNotFound {
		t.Errorf("unknown user: %d", status)
	}
}

func TestCatalogAndChampions(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/badges", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("badges: %d", status)
	}
	if list := body["badges"].([]any); len(list) != 65 {
		t.Errorf("catalog size = %d", len(list))
	}

	status, body = call(t, app, http.MethodGet, "/champions", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("champions: %d %v", status, body)
	}
	current := body["current"].(map[string]any)
	for _, p := range []string{"daily", "weekly", "monthly"} {
		if v, ok := current[p]; !ok || v != nil {
			t.Errorf("current[%s] = %v", p, v)
		}
	}

	status, body = call(t, app, http.MethodPost, "/badges/check", "u1", nil)
	if status != fiber.StatusOK || body["message"] != "No new badges earned" {
		t.Errorf("check: %d %v", status, body)
	}
}
