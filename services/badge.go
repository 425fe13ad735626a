package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatihyuksel3109/mathlearn/badges"
	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/metrics"
	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB       *gorm.DB
	Catalog  *badges.Catalog
	Calendar *periods.Calendar
	Clock    clockwork.Clock
}

func NewBadgeService(db *gorm.DB, catalog *badges.Catalog, cal *periods.Calendar, clock clockwork.Clock) *BadgeService {
	return &BadgeService{DB: db, Catalog: catalog, Calendar: cal, Clock: clock}
}

// Evaluate runs every rule the user has not yet earned against their full
// history plus current, and persists the new badges. Only badges this call
// actually inserted are returned, so concurrent callers never both report
// the same badge. A missing profile yields an empty result.
func (s *BadgeService) Evaluate(ctx context.Context, userID string, current *models.GameSession) ([]string, error) {
	started := time.Now()
	defer func() { metrics.BadgeEvaluationDuration.Observe(time.Since(started).Seconds()) }()

	db := s.DB.WithContext(ctx)

	var prof models.UserProfile
	if err := db.Where("id = ?", userID).First(&prof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}

	var held []models.UserBadge
	if err := db.Where("user_id = ?", userID).Find(&held).Error; err != nil {
		return nil, fmt.Errorf("load badges for %s: %w", userID, err)
	}
	heldSet := make(map[string]bool, len(held))
	for _, b := range held {
		heldSet[b.BadgeID] = true
	}

	var history []models.GameSession
	if err := db.Where("user_id = ?", userID).Order("date ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("load sessions for %s: %w", userID, err)
	}

	var levels []models.LevelProgress
	if err := db.Where("user_id = ?", userID).Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("load level progress for %s: %w", userID, err)
	}

	now := s.Clock.Now()
	bctx := badges.NewContext(current, history, prof, levels, len(heldSet), now, s.Calendar)
	res := s.Catalog.Evaluate(bctx, heldSet)

	for _, f := range res.Failures {
		metrics.BadgeRuleFailures.WithLabelValues(f.BadgeID).Inc()
		logging.Error().Err(f.Err).Str("user_id", userID).Str("badge_id", f.BadgeID).
			Msg("[BADGES] rule failed, skipping")
	}
	if len(res.Earned) == 0 {
		return []string{}, nil
	}

	awarded, err := s.persist(ctx, userID, res.Earned, now)
	if err != nil {
		return nil, err
	}
	for _, id := range awarded {
		metrics.BadgesAwarded.WithLabelValues(id).Inc()
		logging.Info().Str("user_id", userID).Str("badge_id", id).Msg("🎖️ [BADGES] badge awarded")
	}
	return awarded, nil
}

// persist inserts the earned badges in one transaction. Rows that already
// exist are skipped and not reported.
func (s *BadgeService) persist(ctx context.Context, userID string, ids []string, at time.Time) ([]string, error) {
	awarded := make([]string, 0, len(ids))
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			row := models.UserBadge{
				ID:        uuid.NewString(),
				UserID:    userID,
				BadgeID:   id,
				AwardedAt: at.UTC(),
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("award %s to %s: %w", id, userID, res.Error)
			}
			if res.RowsAffected == 1 {
				awarded = append(awarded, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return awarded, nil
}

// EvaluateLatest re-runs evaluation against the user's most recent session.
func (s *BadgeService) EvaluateLatest(ctx context.Context, userID string) ([]string, error) {
	var latest models.GameSession
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("date DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest session for %s: %w", userID, err)
	}
	return s.Evaluate(ctx, userID, &latest)
}

// EarnedBadge is a held badge joined with its catalog metadata.
type EarnedBadge struct {
	badges.Definition
	AwardedAt time.Time `json:"awarded_at"`
}

// UserBadges lists held badges, oldest first. Ids no longer in the catalog are dropped.
func (s *BadgeService) UserBadges(ctx context.Context, userID string) ([]EarnedBadge, error) {
	return s.AwardedSince(ctx, userID, time.Time{})
}

// AwardedSince lists badges awarded strictly after since, oldest first.
func (s *BadgeService) AwardedSince(ctx context.Context, userID string, since time.Time) ([]EarnedBadge, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("awarded_at > ?", since.UTC())
	}
	var rows []models.UserBadge
	if err := q.Order("awarded_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list badges for %s: %w", userID, err)
	}
	out := make([]EarnedBadge, 0, len(rows))
	for _, r := range rows {
		def, ok := s.Catalog.Lookup(r.BadgeID)
		if !ok {
			continue
		}
		out = append(out, EarnedBadge{Definition: def, AwardedAt: r.AwardedAt})
	}
	return out, nil
}
