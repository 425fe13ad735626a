package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// NormalizeGameType slugifies a client game type ("Quick Race", "quick_race")
// and checks it against the known set.
func NormalizeGameType(raw string) (string, error) {
	gt := strings.ReplaceAll(slug.Make(raw), "_", "-")
	if !slices.Contains(models.KnownGameTypes, gt) {
		return "", fmt.Errorf("%w: %q", ErrUnknownGameType, raw)
	}
	return gt, nil
}

type GameService struct {
	DB          *gorm.DB
	Progression *ProgressionService
	Badges      *BadgeService
	Champions   *ChampionService
	Clock       clockwork.Clock

	// Leaderboards is optional; its cache is dropped when a submit earns XP.
	Leaderboards *LeaderboardService
}

func NewGameService(db *gorm.DB, progression *ProgressionService, badges *BadgeService, champions *ChampionService, clock clockwork.Clock) *GameService {
	return &GameService{DB: db, Progression: progression, Badges: badges, Champions: champions, Clock: clock}
}

type StartInput struct {
	GameType   string `json:"game_type" validate:"required"`
	Difficulty int    `json:"difficulty" validate:"omitempty,min=1,max=10"`
	LevelID    string `json:"level_id" validate:"omitempty,max=32"`
}

// StartSession creates an empty session for the user and returns it.
func (s *GameService) StartSession(ctx context.Context, userID string, in StartInput) (*models.GameSession, error) {
	gt, err := NormalizeGameType(in.GameType)
	if err != nil {
		return nil, err
	}
	difficulty := in.Difficulty
	if difficulty <= 0 {
		difficulty = 1
	}

	session := &models.GameSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		GameType:        gt,
		Difficulty:      difficulty,
		LevelID:         in.LevelID,
		Date:            s.Clock.Now().UTC(),
		QuestionAnswers: []models.QuestionAnswer{},
	}
	if err := s.DB.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logging.Debug().Str("user_id", userID).Str("session_id", session.ID).Str("game_type", gt).
		Msg("[GAME] session started")
	return session, nil
}

type AnswerInput struct {
	QuestionType string     `json:"question_type" validate:"required,max=32"`
	IsCorrect    bool       `json:"is_correct"`
	TimeSpent    float64    `json:"time_spent" validate:"gte=0"`
	Timestamp    *time.Time `json:"timestamp"`
}

type SubmitInput struct {
	SessionID       string        `json:"session_id" validate:"required"`
	Correct         int           `json:"correct" validate:"gte=0"`
	Wrong           int           `json:"wrong" validate:"gte=0"`
	TimeSpent       float64       `json:"time_spent" validate:"gte=0"`
	QuestionAnswers []AnswerInput `json:"question_answers" validate:"omitempty,dive"`
}

type SubmitResult struct {
	XPEarned          int64    `json:"xp_earned"`
	TotalXP           int64    `json:"total_xp"`
	Streak            int      `json:"streak"`
	NewlyEarnedBadges []string `json:"newly_earned_badges"`
}

// SubmitSession finalizes a session, credits XP and streak, then evaluates
// badges against the finalized in-memory session. Badge failures never fail
// the submission.
func (s *GameService) SubmitSession(ctx context.Context, userID, name, avatar string, in SubmitInput) (*SubmitResult, error) {
	if _, err := s.Progression.EnsureProfile(ctx, userID, name, avatar); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	xp := CalculateXP(in.Correct, in.Wrong)
	answers := make([]models.QuestionAnswer, 0, len(in.QuestionAnswers))
	for _, qa := range in.QuestionAnswers {
		ts := now.UTC()
		if qa.Timestamp != nil {
			ts = qa.Timestamp.UTC()
		}
		answers = append(answers, models.QuestionAnswer{
			QuestionType: qa.QuestionType,
			IsCorrect:    qa.IsCorrect,
			TimeSpent:    qa.TimeSpent,
			Timestamp:    ts,
		})
	}

	var (
		session models.GameSession
		profile *models.UserProfile
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", in.SessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("load session %s: %w", in.SessionID, err)
		}
		if session.UserID != userID {
			return ErrSessionOwnership
		}
		if session.Submitted {
			return ErrSessionSubmitted
		}

		session.Correct = in.Correct
		session.Wrong = in.Wrong
		session.TimeSpent = in.TimeSpent
		session.XPEarned = xp
		session.QuestionAnswers = answers
		session.Submitted = true

		res := tx.Model(&models.GameSession{}).
			Where("id = ? AND user_id = ? AND submitted = ?", session.ID, userID, false).
			Select("correct", "wrong", "time_spent", "xp_earned", "question_answers", "submitted").
			Updates(&session)
		if res.Error != nil {
			return fmt.Errorf("finalize session %s: %w", session.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSessionSubmitted
		}

		var err error
		profile, err = s.Progression.ApplySessionResult(ctx, tx, userID, xp)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		XPEarned:          xp,
		TotalXP:           profile.XP,
		Streak:            profile.Streak,
		NewlyEarnedBadges: []string{},
	}

	earned, err := s.Badges.Evaluate(ctx, userID, &session)
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Str("session_id", session.ID).
			Msg("[BADGES] evaluation failed, submitting without badges")
	} else {
		result.NewlyEarnedBadges = earned
	}

	if xp > 0 && s.Leaderboards != nil {
		s.Leaderboards.Invalidate(ctx)
	}
	if s.Champions != nil {
		if err := s.Champions.ReconcileExpiredPeriods(ctx, now); err != nil {
			logging.Warn().Err(err).Msg("[CHAMPIONS] reconcile after submit failed")
		}
	}

	logging.Info().
		Str("user_id", userID).
		Str("session_id", session.ID).
		Int64("xp_earned", xp).
		Int("badges", len(result.NewlyEarnedBadges)).
		Msg("✅ [GAME] session submitted")
	return result, nil
}
