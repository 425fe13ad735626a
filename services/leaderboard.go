package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fatihyuksel3109/mathlearn/cache"
	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"

	"gorm.io/gorm"
)

// LeaderboardSize is how many users a board shows.
const LeaderboardSize = 20

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	XP         int64  `json:"xp"`
	BadgeCount int64  `json:"badge_count"`
}

type Leaderboard struct {
	Period   string             `json:"period"`
	Window   *periods.Range     `json:"window,omitempty"`
	Users    []LeaderboardEntry `json:"users"`
	Champion *ChampionView      `json:"champion,omitempty"`
}

type LeaderboardService struct {
	DB        *gorm.DB
	Champions *ChampionService
	Cache     cache.Leaderboard
}

func NewLeaderboardService(db *gorm.DB, champions *ChampionService, c cache.Leaderboard) *LeaderboardService {
	if c == nil {
		c = cache.Noop{}
	}
	return &LeaderboardService{DB: db, Champions: champions, Cache: c}
}

// Get returns the board for selector ("all-time", "daily", "weekly" or
// "monthly"). Period boards first freeze any expired champions; a failure
// there is logged and the board is still served.
func (s *LeaderboardService) Get(ctx context.Context, selector string) (*Leaderboard, error) {
	p, windowed, err := ParsePeriod(selector)
	if err != nil {
		return nil, err
	}
	key := "all-time"
	var window periods.Range
	if windowed {
		now := s.Champions.Clock.Now()
		if err := s.Champions.ReconcileExpiredPeriods(ctx, now); err != nil {
			logging.Warn().Err(err).Str("period", string(p)).Msg("[LEADERBOARD] reconcile failed, serving anyway")
		}
		// keyed by window so a board never outlives its period
		window = s.Champions.Calendar.Bounds(p, now).UTC()
		key = string(p) + ":" + window.Start.Format(time.RFC3339)
	}

	var cached Leaderboard
	if hit, err := s.Cache.Get(ctx, key, &cached); err != nil {
		logging.Warn().Err(err).Str("period", key).Msg("[LEADERBOARD] cache read failed")
	} else if hit {
		return &cached, nil
	}

	var board *Leaderboard
	if windowed {
		board, err = s.period(ctx, p, window)
	} else {
		board, err = s.allTime(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Cache.Set(ctx, key, board); err != nil {
		logging.Warn().Err(err).Str("period", key).Msg("[LEADERBOARD] cache write failed")
	}
	return board, nil
}

// Invalidate drops cached boards after XP changes.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		logging.Warn().Err(err).Msg("[LEADERBOARD] cache invalidate failed")
	}
}

func (s *LeaderboardService) allTime(ctx context.Context) (*Leaderboard, error) {
	var users []models.UserProfile
	err := s.DB.WithContext(ctx).
		Order("xp DESC").Order("id ASC").
		Limit(LeaderboardSize).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := s.badgeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{Period: "all-time", Users: make([]LeaderboardEntry, 0, len(users))}
	for i, u := range users {
		board.Users = append(board.Users, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     u.ID,
			Name:       u.DisplayName(),
			Avatar:     u.DisplayAvatar(),
			XP:         u.XP,
			BadgeCount: counts[u.ID],
		})
	}
	return board, nil
}

func (s *LeaderboardService) period(ctx context.Context, p periods.Type, window periods.Range) (*Leaderboard, error) {
	standings, err := s.Champions.Standings(ctx, window.Start, window.End, LeaderboardSize)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(standings))
	for _, l := range standings {
		ids = append(ids, l.UserID)
	}
	counts, err := s.badgeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	champion, err := s.Champions.CurrentChampion(ctx, p)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{
		Period:   string(p),
		Window:   &window,
		Users:    make([]LeaderboardEntry, 0, len(standings)),
		Champion: champion,
	}
	for i, l := range standings {
		board.Users = append(board.Users, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     l.UserID,
			Name:       l.Name,
			Avatar:     l.Avatar,
			XP:         l.XP,
			BadgeCount: counts[l.UserID],
		})
	}
	return board, nil
}

func (s *LeaderboardService) badgeCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		UserID string
		N      int64
	}
	err := s.DB.WithContext(ctx).Model(&models.UserBadge{}).
		Select("user_id, COUNT(*) AS n").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count badges: %w", err)
	}
	for _, r := range rows {
		out[r.UserID] = r.N
	}
	return out, nil
}
