package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatihyuksel3109/mathlearn/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LevelService struct {
	DB *gorm.DB
}

func NewLevelService(db *gorm.DB) *LevelService {
	return &LevelService{DB: db}
}

type CompleteLevelInput struct {
	LevelID string `json:"level_id" validate:"required,max=32"`
	Stars   int    `json:"stars" validate:"gte=0,lte=3"`
}

// CompleteLevel marks a level completed. Stars only ever go up.
func (s *LevelService) CompleteLevel(ctx context.Context, userID string, in CompleteLevelInput) (*models.LevelProgress, error) {
	stars := min(max(in.Stars, 0), models.MaxStars)
	row := models.LevelProgress{
		ID:        uuid.NewString(),
		UserID:    userID,
		LevelID:   in.LevelID,
		Completed: true,
		Stars:     stars,
	}

	db := s.DB.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "level_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed":  true,
			"stars":      gorm.Expr("CASE WHEN level_progresses.stars > excluded.stars THEN level_progresses.stars ELSE excluded.stars END"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("complete level %s for %s: %w", in.LevelID, userID, err)
	}

	var stored models.LevelProgress
	if err := db.Where("user_id = ? AND level_id = ?", userID, in.LevelID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load level %s for %s: %w", in.LevelID, userID, err)
	}
	return &stored, nil
}

type LevelProgressView struct {
	LevelID   string `json:"level_id"`
	Completed bool   `json:"completed"`
	Stars     int    `json:"stars"`
}

type LevelOverview struct {
	Levels                []LevelProgressView `json:"level_progresses"`
	CorrectAnswersByLevel map[string]int      `json:"correct_answers_by_level"`
}

// Progress lists level results plus correct answers summed per level over
// adventure sessions.
func (s *LevelService) Progress(ctx context.Context, userID string) (*LevelOverview, error) {
	db := s.DB.WithContext(ctx)

	var rows []models.LevelProgress
	if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list levels for %s: %w", userID, err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LevelID < rows[j].LevelID })

	var sessions []models.GameSession
	if err := db.Select("level_id", "correct").
		Where("user_id = ? AND game_type = ? AND level_id <> ''", userID, models.GameTypeAdventure).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list adventure sessions for %s: %w", userID, err)
	}

	out := &LevelOverview{
		Levels:                make([]LevelProgressView, 0, len(rows)),
		CorrectAnswersByLevel: map[string]int{},
	}
	for _, r := range rows {
		out.Levels = append(out.Levels, LevelProgressView{LevelID: r.LevelID, Completed: r.Completed, Stars: r.Stars})
	}
	for _, gs := range sessions {
		out.CorrectAnswersByLevel[gs.LevelID] += gs.Correct
	}
	return out, nil
}
