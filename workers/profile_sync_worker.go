// workers/profile_sync_worker.go
package workers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/metrics"
	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/utils"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// breakerFailureThreshold consecutive failed fetches open the breaker.
const breakerFailureThreshold = 3

// RemoteProfile is one entry of the profile service's change feed.
type RemoteProfile struct {
	ExternalID    string    `json:"external_id"`
	Username      string    `json:"username"`
	FirstName     *string   `json:"first_name,omitempty"`
	Avatar        *string   `json:"avatar,omitempty"`
	AccountStatus string    `json:"account_status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayName prefers the first name over the username.
func (p RemoteProfile) DisplayName() string {
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		return strings.TrimSpace(*p.FirstName)
	}
	return p.Username
}

type profileChanges struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker mirrors display names and avatars from the profile
// service into user_profiles. XP and streak are never touched.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[[]RemoteProfile]

	since time.Time
}

func NewProfileSyncWorker(db *gorm.DB, cfg config.SyncConfig, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     cfg.Interval,
		baseURL:      cfg.BaseURL,
		endpointPath: cfg.Path,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
		breaker: gobreaker.NewCircuitBreaker[[]RemoteProfile](gobreaker.Settings{
			Name:    "profile-sync",
			Timeout: 4 * cfg.Interval,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("⚠️ [SYNC] circuit breaker state change")
			},
		}),
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	logging.Info().Dur("interval", w.interval).Msg("🔁 [SYNC] profile sync worker starting")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if err := w.SyncOnce(ctx); err != nil {
		logging.Warn().Err(err).Msg("⚠️ [SYNC] initial sync failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("❌ [SYNC] sync batch failed")
			}
		case <-ctx.Done():
			logging.Info().Msg("⏹️ [SYNC] profile sync worker stopped")
			return
		}
	}
}

// SyncOnce fetches changes since the cursor and applies them oldest first.
// The batch stops at the first failed upsert so that row is fetched again
// next time.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) error {
	since := w.cursor(ctx)
	users, err := w.breaker.Execute(func() ([]RemoteProfile, error) {
		return w.fetch(ctx, since)
	})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		logging.Debug().Time("since", since).Msg("[SYNC] no profile changes")
		return nil
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].UpdatedAt.Before(users[j].UpdatedAt) })

	var upserted, skipped int
	for _, u := range users {
		if u.ExternalID == "" || isInactive(u.AccountStatus) {
			skipped++
			metrics.ProfileSyncs.WithLabelValues("skipped").Inc()
			w.advance(u.UpdatedAt)
			continue
		}
		if err := w.upsert(ctx, u); err != nil {
			metrics.ProfileSyncs.WithLabelValues("error").Inc()
			logging.Warn().Err(err).Str("external_id", u.ExternalID).Int("upserted", upserted).
				Msg("⚠️ [SYNC] upsert failed, batch stopped")
			return fmt.Errorf("upsert profile %s: %w", u.ExternalID, err)
		}
		upserted++
		metrics.ProfileSyncs.WithLabelValues("upserted").Inc()
		w.advance(u.UpdatedAt)
	}

	logging.Info().
		Int("received", len(users)).
		Int("upserted", upserted).
		Int("skipped", skipped).
		Time("latest", w.since).
		Msg("✅ [SYNC] profile batch applied")
	return nil
}

// cursor is the newest remote update already applied: the later of the
// stored profiles and the rows skipped in this process.
func (w *ProfileSyncWorker) cursor(ctx context.Context) time.Time {
	var last models.UserProfile
	err := w.db.WithContext(ctx).
		Select("remote_updated_at").
		Where("remote_updated_at IS NOT NULL").
		Order("remote_updated_at DESC").
		Take(&last).Error
	if err == nil && last.RemoteUpdatedAt != nil && last.RemoteUpdatedAt.After(w.since) {
		w.since = last.RemoteUpdatedAt.UTC()
	}
	return w.since
}

func (w *ProfileSyncWorker) advance(t time.Time) {
	if t.After(w.since) {
		w.since = t.UTC()
	}
}

func isInactive(status string) bool {
	switch strings.ToLower(status) {
	case "deactivated", "suspended", "deleted":
		return true
	}
	return false
}

func (w *ProfileSyncWorker) upsert(ctx context.Context, u RemoteProfile) error {
	remote := u.UpdatedAt.UTC()
	row := models.UserProfile{
		ID:              u.ExternalID,
		Name:            u.DisplayName(),
		Avatar:          models.DefaultAvatar,
		RemoteUpdatedAt: &remote,
	}
	cols := []string{"name", "remote_updated_at", "updated_at"}
	if u.Avatar != nil && *u.Avatar != "" {
		row.Avatar = *u.Avatar
		cols = append(cols, "avatar")
	}
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&row).Error
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned %d: %s", resp.StatusCode, body)
	}

	var out profileChanges
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return out.Users, nil
}
