package workers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/database"
	"github.com/fatihyuksel3109/mathlearn/models"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func strp(s string) *string { return &s }

func TestSyncOnceMirrorsDisplayFields(t *testing.T) {
	db := openDB(t)
	if err := db.Create(&models.UserProfile{ID: "u1", Name: "old", Avatar: "owl", XP: 250, Streak: 4}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	var gotSince []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Service-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		gotSince = append(gotSince, r.URL.Query().Get("since"))
		if len(gotSince) > 1 {
			_ = json.NewEncoder(w).Encode(profileChanges{})
			return
		}
		_ = json.NewEncoder(w).Encode(profileChanges{Users: []RemoteProfile{
			{ExternalID: "u1", Username: "ada99", FirstName: strp("Ada"), AccountStatus: "active", UpdatedAt: t1},
			{ExternalID: "u2", Username: "bo", Avatar: strp("cat"), AccountStatus: "active", UpdatedAt: t2},
			{ExternalID: "u3", Username: "gone", AccountStatus: "deactivated", UpdatedAt: t1},
		}})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, config.SyncConfig{BaseURL: srv.URL, Path: "/api/v1/public/profiles", Interval: time.Minute}, "tok")
	if err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	var u1 models.UserProfile
	db.First(&u1, "id = ?", "u1")
	if u1.Name != "Ada" || u1.Avatar != "owl" || u1.XP != 250 || u1.Streak != 4 {
		t.Errorf("u1 = %+v", u1)
	}
	var u2 models.UserProfile
	db.First(&u2, "id = ?", "u2")
	if u2.Name != "bo" || u2.Avatar != "cat" {
		t.Errorf("u2 = %+v", u2)
	}
	var n int64
	db.Model(&models.UserProfile{}).Where("id = ?", "u3").Count(&n)
	if n != 0 {
		t.Error("deactivated account mirrored")
	}

	if err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("second SyncOnce: %v", err)
	}
	if len(gotSince) != 2 || gotSince[1] != t2.Format(time.RFC3339) {
		t.Errorf("since params = %v", gotSince)
	}
}

func TestSyncOnceSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(openDB(t), config.SyncConfig{BaseURL: srv.URL, Path: "/p", Interval: time.Minute}, "tok")
	if err := w.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// feed serves the profiles updated at or after the since parameter and
// records every since it was asked for.
type feed struct {
	profiles []RemoteProfile
	asked    []string
}

func (f *feed) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("since")
		f.asked = append(f.asked, raw)
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			t.Errorf("since %q: %v", raw, err)
		}
		out := profileChanges{Users: []RemoteProfile{}}
		for _, p := range f.profiles {
			if !p.UpdatedAt.Before(since) {
				out.Users = append(out.Users, p)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

func TestSyncOnceRetriesFailedUpsertAndResumesAfterRestart(t *testing.T) {
	db := openDB(t)
	failID := "u2"
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_profile", func(tx *gorm.DB) {
		if p, ok := tx.Statement.Dest.(*models.UserProfile); ok && p.ID == failID {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &feed{profiles: []RemoteProfile{
		{ExternalID: "u3", Username: "cy", AccountStatus: "active", UpdatedAt: t1.Add(2 * time.Hour)},
		{ExternalID: "u1", Username: "ada", AccountStatus: "active", UpdatedAt: t1},
		{ExternalID: "u2", Username: "bo", AccountStatus: "active", UpdatedAt: t1.Add(time.Hour)},
	}}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	cfg := config.SyncConfig{BaseURL: srv.URL, Path: "/p", Interval: time.Minute}

	w := NewProfileSyncWorker(db, cfg, "tok")
	if err := w.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected the failed upsert to surface")
	}
	var n int64
	db.Model(&models.UserProfile{}).Where("id IN ?", []string{"u2", "u3"}).Count(&n)
	if n != 0 {
		t.Fatalf("rows after the failed one were applied: %d", n)
	}

	failID = ""
	if err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.asked[1] != t1.Format(time.RFC3339) {
		t.Errorf("retry asked since %s, want %s", f.asked[1], t1.Format(time.RFC3339))
	}
	db.Model(&models.UserProfile{}).Where("id IN ?", []string{"u1", "u2", "u3"}).Count(&n)
	if n != 3 {
		t.Fatalf("profiles after retry = %d", n)
	}

	restarted := NewProfileSyncWorker(db, cfg, "tok")
	if err := restarted.SyncOnce(context.Background()); err != nil {
		t.Fatalf("after restart: %v", err)
	}
	want := t1.Add(2 * time.Hour).Format(time.RFC3339)
	if last := f.asked[len(f.asked)-1]; last != want {
		t.Errorf("restart asked since %s, want %s", last, want)
	}
}
