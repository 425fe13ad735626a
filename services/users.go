package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fatihyuksel3109/mathlearn/models"
)

// gamesForFullProgress is how many rounds of one game type count as 100%.
const gamesForFullProgress = 20

type RecentGame struct {
	GameType string    `json:"game_type"`
	Correct  int       `json:"correct"`
	Wrong    int       `json:"wrong"`
	XPEarned int64     `json:"xp_earned"`
	Date     time.Time `json:"date"`
}

type ChartPoint struct {
	Date string `json:"date"`
	Day  string `json:"day"`
	XP   int64  `json:"xp"`
}

type GameProgress struct {
	GameType     string `json:"game_type"`
	Progress     int    `json:"progress"`
	GamesPlayed  int    `json:"games_played"`
	TotalXP      int64  `json:"total_xp"`
	TotalCorrect int    `json:"total_correct"`
	TotalWrong   int    `json:"total_wrong"`
}

type ProfileSummary struct {
	User         models.UserProfile `json:"user"`
	BadgeCount   int64              `json:"badge_count"`
	RecentGames  []RecentGame       `json:"recent_games"`
	ChartData    []ChartPoint       `json:"chart_data"`
	GameProgress []GameProgress     `json:"game_progress"`
}

// Summary builds the profile page: last five active games, XP per day for
// the past week and per-game-type totals.
func (s *ProgressionService) Summary(ctx context.Context, userID string) (*ProfileSummary, error) {
	prof, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var badgeCount int64
	if err := db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&badgeCount).Error; err != nil {
		return nil, fmt.Errorf("count badges for %s: %w", userID, err)
	}

	var all []models.GameSession
	if err := db.Select("game_type", "correct", "wrong", "xp_earned", "date").
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", userID, err)
	}

	out := &ProfileSummary{
		User:        *prof,
		BadgeCount:  badgeCount,
		RecentGames: []RecentGame{},
	}

	for _, g := range all {
		if len(out.RecentGames) == 5 {
			break
		}
		if g.Correct == 0 && g.Wrong == 0 {
			continue
		}
		out.RecentGames = append(out.RecentGames, RecentGame{
			GameType: g.GameType, Correct: g.Correct, Wrong: g.Wrong, XPEarned: g.XPEarned, Date: g.Date,
		})
	}

	today := s.Calendar.StartOfDay(s.Clock.Now())
	byDay := map[string]int64{}
	keys := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		k := s.Calendar.DateKey(d)
		keys = append(keys, k)
		byDay[k] = 0
		out.ChartData = append(out.ChartData, ChartPoint{Date: k, Day: d.Weekday().String()[:3]})
	}
	for _, g := range all {
		if _, ok := byDay[s.Calendar.DateKey(g.Date)]; ok {
			byDay[s.Calendar.DateKey(g.Date)] += g.XPEarned
		}
	}
	for i, k := range keys {
		out.ChartData[i].XP = byDay[k]
	}

	stats := make(map[string]*GameProgress, len(models.KnownGameTypes))
	for _, gt := range models.KnownGameTypes {
		stats[gt] = &GameProgress{GameType: gt}
	}
	for _, g := range all {
		st, ok := stats[g.GameType]
		if !ok {
			continue
		}
		st.GamesPlayed++
		st.TotalXP += g.XPEarned
		st.TotalCorrect += g.Correct
		st.TotalWrong += g.Wrong
	}
	for _, gt := range models.KnownGameTypes {
		st := stats[gt]
		pct := math.Round(float64(st.GamesPlayed) / gamesForFullProgress * 100)
		st.Progress = int(math.Min(100, pct))
		out.GameProgress = append(out.GameProgress, *st)
	}
	return out, nil
}
