package services

import (
	"context"
	"testing"

	"github.com/fatihyuksel3109/mathlearn/models"
)

func TestCompleteLevelKeepsBestStars(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	levels := NewLevelService(f.db)

	got, err := levels.CompleteLevel(ctx, "u1", CompleteLevelInput{LevelID: "level-1", Stars: 3})
	if err != nil {
		t.Fatalf("CompleteLevel: %v", err)
	}
	if !got.Completed || got.Stars != 3 {
		t.Fatalf("got %+v", got)
	}

	got, err = levels.CompleteLevel(ctx, "u1", CompleteLevelInput{LevelID: "level-1", Stars: 1})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got.Stars != 3 {
		t.Errorf("stars dropped to %d", got.Stars)
	}

	var n int64
	f.db.Model(&models.LevelProgress{}).Where("user_id = ?", "u1").Count(&n)
	if n != 1 {
		t.Errorf("rows = %d", n)
	}
}

func TestLevelProgressCountsAdventureAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	levels := NewLevelService(f.db)

	if _, err := levels.CompleteLevel(ctx, "u1", CompleteLevelInput{LevelID: "level-2", Stars: 2}); err != nil {
		t.Fatalf("CompleteLevel: %v", err)
	}
	a := f.session(t, "u1", models.GameTypeAdventure, 4, 0, testNow)
	f.db.Model(&a).Update("level_id", "level-2")
	b := f.session(t, "u1", models.GameTypeAdventure, 3, 1, testNow)
	f.db.Model(&b).Update("level_id", "level-2")
	f.session(t, "u1", models.GameTypeQuickRace, 10, 0, testNow)

	out, err := levels.Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(out.Levels) != 1 || out.Levels[0].Stars != 2 {
		t.Errorf("levels = %+v", out.Levels)
	}
	if out.CorrectAnswersByLevel["level-2"] != 7 || len(out.CorrectAnswersByLevel) != 1 {
		t.Errorf("correct by level = %v", out.CorrectAnswersByLevel)
	}
}

func TestLevelCompletionFeedsBadges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "u1", "Ada", 0)
	if _, err := NewLevelService(f.db).CompleteLevel(ctx, "u1", CompleteLevelInput{LevelID: "level-1", Stars: 1}); err != nil {
		t.Fatalf("CompleteLevel: %v", err)
	}
	f.session(t, "u1", models.GameTypeAdventure, 1, 0, testNow)

	got, err := f.badges.EvaluateLatest(ctx, "u1")
	if err != nil {
		t.Fatalf("EvaluateLatest: %v", err)
	}
	found := false
	for _, id := range got {
		found = found || id == "macera_baslangic"
	}
	if !found {
		t.Errorf("macera_baslangic not in %v", got)
	}
}
