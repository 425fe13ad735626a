package services

import (
	"testing"
	"time"

	"github.com/fatihyuksel3109/mathlearn/badges"
	"github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/database"
	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	clock       *clockwork.FakeClock
	cal         *periods.Calendar
	progression *ProgressionService
	badges      *BadgeService
	champions   *ChampionService
	games       *GameService
}

// Wednesday 2024-03-13 15:00 UTC.
var testNow = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := clockwork.NewFakeClockAt(testNow)
	cal := periods.NewCalendar(time.UTC)
	f := &fixture{db: db, clock: clock, cal: cal}
	f.progression = NewProgressionService(db, cal, clock)
	f.badges = NewBadgeService(db, badges.MustLoad(), cal, clock)
	f.champions = NewChampionService(db, cal, clock, nil)
	f.games = NewGameService(db, f.progression, f.badges, f.champions, clock)
	return f
}

func (f *fixture) profile(t *testing.T, id, name string, xp int64) {
	t.Helper()
	p := models.UserProfile{ID: id, Name: name, Avatar: "owl", XP: xp}
	if err := f.db.Create(&p).Error; err != nil {
		t.Fatalf("create profile %s: %v", id, err)
	}
}

func (f *fixture) session(t *testing.T, userID, gameType string, correct, wrong int, at time.Time) models.GameSession {
	t.Helper()
	s := models.GameSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		GameType:        gameType,
		Difficulty:      1,
		Correct:         correct,
		Wrong:           wrong,
		XPEarned:        CalculateXP(correct, wrong),
		Date:            at.UTC(),
		QuestionAnswers: []models.QuestionAnswer{},
		Submitted:       true,
	}
	if err := f.db.Create(&s).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func answers(n int, correct bool, secs float64) []AnswerInput {
	out := make([]AnswerInput, n)
	for i := range out {
		out[i] = AnswerInput{QuestionType: "+", IsCorrect: correct, TimeSpent: secs}
	}
	return out
}
