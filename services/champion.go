package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/metrics"
	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultHistoryLimit is how many frozen champions History returns per period.
const DefaultHistoryLimit = 5

// Leader is a user's XP total inside one window.
type Leader struct {
	UserID string `json:"user_id"`
	Name   string `json:"user_name"`
	Avatar string `json:"user_avatar"`
	XP     int64  `json:"xp"`
}

// ChampionArchiver publishes a frozen champion somewhere outside the store.
type ChampionArchiver interface {
	ArchiveChampion(ctx context.Context, c *models.Champion) error
}

type ChampionService struct {
	DB       *gorm.DB
	Calendar *periods.Calendar
	Clock    clockwork.Clock
	Archiver ChampionArchiver

	group singleflight.Group
}

func NewChampionService(db *gorm.DB, cal *periods.Calendar, clock clockwork.Clock, archiver ChampionArchiver) *ChampionService {
	return &ChampionService{DB: db, Calendar: cal, Clock: clock, Archiver: archiver}
}

type xpRow struct {
	UserID   string
	XPEarned int64
	Date     time.Time
}

type standing struct {
	userID string
	xp     int64
	first  time.Time
}

// Standings ranks users by XP earned in [start, end]. Ties go to whoever
// earned XP first in the window, then to the smaller user id. Users without
// a profile are left out.
func (s *ChampionService) Standings(ctx context.Context, start, end time.Time, limit int) ([]Leader, error) {
	db := s.DB.WithContext(ctx)

	var rows []xpRow
	err := db.Model(&models.GameSession{}).
		Select("user_id", "xp_earned", "date").
		Where("xp_earned > 0 AND date >= ? AND date <= ?", start.UTC(), end.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load xp for window: %w", err)
	}
	if len(rows) == 0 {
		return []Leader{}, nil
	}

	byUser := map[string]*standing{}
	for _, r := range rows {
		st, ok := byUser[r.UserID]
		if !ok {
			st = &standing{userID: r.UserID, first: r.Date}
			byUser[r.UserID] = st
		}
		st.xp += r.XPEarned
		if r.Date.Before(st.first) {
			st.first = r.Date
		}
	}

	ranked := make([]*standing, 0, len(byUser))
	ids := make([]string, 0, len(byUser))
	for id, st := range byUser {
		ranked = append(ranked, st)
		ids = append(ids, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.xp != b.xp {
			return a.xp > b.xp
		}
		if !a.first.Equal(b.first) {
			return a.first.Before(b.first)
		}
		return a.userID < b.userID
	})

	var profiles []models.UserProfile
	if err := db.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("load profiles for window: %w", err)
	}
	known := make(map[string]models.UserProfile, len(profiles))
	for _, p := range profiles {
		known[p.ID] = p
	}

	out := make([]Leader, 0, len(ranked))
	for _, st := range ranked {
		p, ok := known[st.userID]
		if !ok {
			continue
		}
		out = append(out, Leader{UserID: p.ID, Name: p.DisplayName(), Avatar: p.DisplayAvatar(), XP: st.xp})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ComputeLeader returns the top user for [start, end], or nil when nobody
// earned XP in it.
func (s *ChampionService) ComputeLeader(ctx context.Context, p periods.Type, start, end time.Time) (*Leader, error) {
	standings, err := s.Standings(ctx, start, end, 1)
	if err != nil {
		return nil, fmt.Errorf("compute %s leader: %w", p, err)
	}
	if len(standings) == 0 {
		return nil, nil
	}
	return &standings[0], nil
}

// SaveChampion freezes leader as the champion of the period. It reports
// whether this call created the record; an existing record is left as is.
func (s *ChampionService) SaveChampion(ctx context.Context, p periods.Type, start, end time.Time, leader *Leader) (bool, error) {
	if leader == nil {
		return false, nil
	}
	db := s.DB.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Champion{}).
		Where("period_type = ? AND period_start = ?", string(p), start.UTC()).
		Count(&existing).Error; err != nil {
		return false, fmt.Errorf("check %s champion: %w", p, err)
	}
	if existing > 0 {
		return false, nil
	}

	rec := models.Champion{
		ID:          uuid.NewString(),
		PeriodType:  string(p),
		PeriodStart: start.UTC(),
		PeriodEnd:   end.UTC(),
		UserID:      leader.UserID,
		UserName:    leader.Name,
		UserAvatar:  leader.Avatar,
		XPEarned:    leader.XP,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("save %s champion: %w", p, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	metrics.ChampionsFrozen.WithLabelValues(string(p)).Inc()
	logging.Info().
		Str("period", string(p)).
		Time("period_start", rec.PeriodStart).
		Str("user_id", rec.UserID).
		Int64("xp", rec.XPEarned).
		Msg("🏆 [CHAMPIONS] champion frozen")

	if s.Archiver != nil {
		go func(c models.Champion) {
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := s.Archiver.ArchiveChampion(actx, &c); err != nil {
				logging.Warn().Err(err).Str("champion_id", c.ID).Msg("[CHAMPIONS] archive failed")
			}
		}(rec)
	}
	return true, nil
}

// ReconcileExpiredPeriods freezes the champion of the period just before
// now, for every period type that has none yet. A failing period does not
// stop the others; the joined error is for logging.
func (s *ChampionService) ReconcileExpiredPeriods(ctx context.Context, now time.Time) error {
	key := strconv.FormatInt(now.Unix(), 10)
	// merged callers share one run; it must not die with the first caller
	_, err, _ := s.group.Do(key, func() (interface{}, error) {
		return nil, s.reconcile(context.WithoutCancel(ctx), now)
	})
	return err
}

func (s *ChampionService) reconcile(ctx context.Context, now time.Time) error {
	var errs []error
	for _, p := range periods.All {
		if err := s.reconcileOne(ctx, p, now); err != nil {
			metrics.ReconcileErrors.WithLabelValues(string(p)).Inc()
			logging.Error().Err(err).Str("period", string(p)).Msg("[CHAMPIONS] reconcile failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ChampionService) reconcileOne(ctx context.Context, p periods.Type, now time.Time) error {
	prev := s.Calendar.Previous(p, now).UTC()

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Champion{}).
		Where("period_type = ? AND period_start = ?", string(p), prev.Start).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check %s champion: %w", p, err)
	}
	if existing > 0 {
		return nil
	}

	leader, err := s.ComputeLeader(ctx, p, prev.Start, prev.End)
	if err != nil {
		return err
	}
	if leader == nil {
		return nil
	}
	_, err = s.SaveChampion(ctx, p, prev.Start, prev.End, leader)
	return err
}

// CurrentLeader is the leader of the still-open period. It is never saved.
func (s *ChampionService) CurrentLeader(ctx context.Context, p periods.Type) (*Leader, error) {
	r := s.Calendar.Bounds(p, s.Clock.Now()).UTC()
	return s.ComputeLeader(ctx, p, r.Start, r.End)
}

// ChampionView is a champion as the API shows it. Saved is false for the
// live leader of an open period.
type ChampionView struct {
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserAvatar  string    `json:"user_avatar"`
	XP          int64     `json:"xp"`
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Saved       bool      `json:"saved"`
}

func viewOf(c models.Champion) ChampionView {
	return ChampionView{
		UserID:      c.UserID,
		UserName:    c.UserName,
		UserAvatar:  c.UserAvatar,
		XP:          c.XPEarned,
		Period:      c.PeriodType,
		PeriodStart: c.PeriodStart,
		PeriodEnd:   c.PeriodEnd,
		Saved:       true,
	}
}

// CurrentChampion returns the saved record for the current period if there
// is one, otherwise the live leader. Nil when nobody has earned XP.
func (s *ChampionService) CurrentChampion(ctx context.Context, p periods.Type) (*ChampionView, error) {
	r := s.Calendar.Bounds(p, s.Clock.Now()).UTC()

	var saved models.Champion
	err := s.DB.WithContext(ctx).
		Where("period_type = ? AND period_start = ?", string(p), r.Start).
		First(&saved).Error
	if err == nil {
		v := viewOf(saved)
		return &v, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load current %s champion: %w", p, err)
	}

	leader, err := s.ComputeLeader(ctx, p, r.Start, r.End)
	if err != nil || leader == nil {
		return nil, err
	}
	return &ChampionView{
		UserID:      leader.UserID,
		UserName:    leader.Name,
		UserAvatar:  leader.Avatar,
		XP:          leader.XP,
		Period:      string(p),
		PeriodStart: r.Start,
		PeriodEnd:   r.End,
	}, nil
}

// History lists frozen champions of type p, newest period first.
func (s *ChampionService) History(ctx context.Context, p periods.Type, limit int) ([]ChampionView, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rows []models.Champion
	err := s.DB.WithContext(ctx).
		Where("period_type = ?", string(p)).
		Order("period_start DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s champions: %w", p, err)
	}
	out := make([]ChampionView, 0, len(rows))
	for _, c := range rows {
		out = append(out, viewOf(c))
	}
	return out, nil
}

// ChampionsOverview is the current champion and recent history per period.
type ChampionsOverview struct {
	Current    map[string]*ChampionView  `json:"current"`
	Historical map[string][]ChampionView `json:"historical"`
}

// Overview reconciles expired periods first; a reconcile failure is logged
// and does not fail the read.
func (s *ChampionService) Overview(ctx context.Context) (*ChampionsOverview, error) {
	_ = s.ReconcileExpiredPeriods(ctx, s.Clock.Now())

	out := &ChampionsOverview{
		Current:    make(map[string]*ChampionView, len(periods.All)),
		Historical: make(map[string][]ChampionView, len(periods.All)),
	}
	for _, p := range periods.All {
		cur, err := s.CurrentChampion(ctx, p)
		if err != nil {
			return nil, err
		}
		out.Current[string(p)] = cur

		hist, err := s.History(ctx, p, DefaultHistoryLimit)
		if err != nil {
			return nil, err
		}
		out.Historical[string(p)] = hist
	}
	return out, nil
}

// ParsePeriod maps a leaderboard selector to a period type. The second
// result is false for all-time.
func ParsePeriod(sel string) (periods.Type, bool, error) {
	switch strings.ToLower(strings.TrimSpace(sel)) {
	case "", "all-time", "alltime", "all":
		return "", false, nil
	}
	p, err := periods.ParseType(sel)
	if err != nil {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidPeriod, sel)
	}
	return p, true, nil
}
