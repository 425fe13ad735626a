package services

import (
	"context"
	"testing"
	"time"

	"github.com/fatihyuksel3109/mathlearn/models"

	"github.com/jonboulle/clockwork"
)

func TestChampionSchedulerSweepsOnStart(t *testing.T) {
	f := newFixture(t)
	f.champions.Clock = clockwork.NewRealClock()
	f.profile(t, "u1", "Ada", 0)
	f.session(t, "u1", models.GameTypeQuickRace, 4, 0, time.Now().UTC().Add(-24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched, err := f.champions.StartChampionScheduler(ctx, time.Hour)
	if err != nil {
		t.Fatalf("StartChampionScheduler: %v", err)
	}
	defer func() { _ = sched.Shutdown() }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var n int64
		f.db.Model(&models.Champion{}).Where("period_type = ?", "daily").Count(&n)
		if n == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("daily champion not frozen by the sweep")
}
