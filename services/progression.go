package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPPerCorrect is awarded for every correct answer in a round with no mistakes.
const XPPerCorrect = 10

// CalculateXP: a round with any wrong answer earns nothing.
func CalculateXP(correct, wrong int) int64 {
	if wrong > 0 || correct <= 0 {
		return 0
	}
	return int64(correct) * XPPerCorrect
}

// ComputeStreak counts consecutive local calendar days ending at the most
// recent play date.
func ComputeStreak(dates []time.Time, cal *periods.Calendar) int {
	seen := map[string]struct{}{}
	for _, d := range dates {
		seen[cal.DateKey(d)] = struct{}{}
	}
	if len(seen) == 0 {
		return 0
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	streak := 1
	prev, _ := time.Parse(time.DateOnly, keys[0])
	for _, k := range keys[1:] {
		day, _ := time.Parse(time.DateOnly, k)
		if prev.Sub(day) != 24*time.Hour {
			break
		}
		streak++
		prev = day
	}
	return streak
}

type ProgressionService struct {
	DB       *gorm.DB
	Calendar *periods.Calendar
	Clock    clockwork.Clock
}

func NewProgressionService(db *gorm.DB, cal *periods.Calendar, clock clockwork.Clock) *ProgressionService {
	return &ProgressionService{DB: db, Calendar: cal, Clock: clock}
}

// EnsureProfile makes sure a profile row exists (idempotent). Non-empty
// name and avatar from the gateway overwrite the stored values.
func (s *ProgressionService) EnsureProfile(ctx context.Context, userID, name, avatar string) (*models.UserProfile, error) {
	db := s.DB.WithContext(ctx)
	prof := models.UserProfile{ID: userID, Name: name, Avatar: avatar}
	if prof.Avatar == "" {
		prof.Avatar = models.DefaultAvatar
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&prof).Error; err != nil {
		return nil, fmt.Errorf("create profile %s: %w", userID, err)
	}

	var stored models.UserProfile
	if err := db.Where("id = ?", userID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}

	updates := map[string]interface{}{}
	if name != "" && name != stored.Name {
		updates["name"] = name
	}
	if avatar != "" && avatar != stored.Avatar {
		updates["avatar"] = avatar
	}
	if len(updates) > 0 {
		if err := db.Model(&models.UserProfile{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update profile %s: %w", userID, err)
		}
		if name != "" {
			stored.Name = name
		}
		if avatar != "" {
			stored.Avatar = avatar
		}
	}
	return &stored, nil
}

// GetProfile returns ErrProfileNotFound when the user never played.
func (s *ProgressionService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var prof models.UserProfile
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// ApplySessionResult adds xp atomically and recomputes the streak from play
// dates. It runs on tx so it commits together with the session update.
func (s *ProgressionService) ApplySessionResult(ctx context.Context, tx *gorm.DB, userID string, xp int64) (*models.UserProfile, error) {
	tx = tx.WithContext(ctx)
	if xp > 0 {
		res := tx.Model(&models.UserProfile{}).Where("id = ?", userID).
			UpdateColumn("xp", gorm.Expr("xp + ?", xp))
		if res.Error != nil {
			return nil, fmt.Errorf("add xp for %s: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrProfileNotFound
		}
	}

	var dates []time.Time
	if err := tx.Model(&models.GameSession{}).Where("user_id = ?", userID).Pluck("date", &dates).Error; err != nil {
		return nil, fmt.Errorf("load play dates for %s: %w", userID, err)
	}
	streak := ComputeStreak(dates, s.Calendar)
	if err := tx.Model(&models.UserProfile{}).Where("id = ?", userID).UpdateColumn("streak", streak).Error; err != nil {
		return nil, fmt.Errorf("update streak for %s: %w", userID, err)
	}

	var prof models.UserProfile
	if err := tx.Where("id = ?", userID).First(&prof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}
