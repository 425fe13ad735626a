package models

import (
	"time"
)

// Game types played in the client. Stored slugified.
const (
	GameTypeQuickRace   = "quick-race"
	GameTypeBalloonPop  = "balloon-pop"
	GameTypeAdventure   = "adventure"
	GameTypeFractions   = "fractions"
	GameTypeGeometry    = "geometry"
	GameTypeWordStories = "word-stories"
)

// KnownGameTypes is the set accepted by game start.
var KnownGameTypes = []string{
	GameTypeQuickRace,
	GameTypeBalloonPop,
	GameTypeAdventure,
	GameTypeFractions,
	GameTypeGeometry,
	GameTypeWordStories,
}

// QuestionAnswer is one answered question inside a session.
// QuestionType is an operation tag ('+', '-', '×', '/', '÷') or a game-specific category.
type QuestionAnswer struct {
	QuestionType string    `json:"question_type"`
	IsCorrect    bool      `json:"is_correct"`
	TimeSpent    float64   `json:"time_spent"` // seconds
	Timestamp    time.Time `json:"timestamp"`
}

// GameSession is one played round. Created at game start and finalized once at submit.
type GameSession struct {
	ID              string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string           `gorm:"type:varchar(64);not null;index:idx_sessions_user_date,priority:1" json:"user_id"`
	GameType        string           `gorm:"type:varchar(32);not null;index" json:"game_type"`
	Difficulty      int              `gorm:"default:1" json:"difficulty"`
	LevelID         string           `gorm:"type:varchar(32)" json:"level_id,omitempty"`
	Correct         int              `gorm:"default:0" json:"correct"`
	Wrong           int              `gorm:"default:0" json:"wrong"`
	TimeSpent       float64          `gorm:"default:0" json:"time_spent"` // seconds
	XPEarned        int64            `gorm:"column:xp_earned;default:0" json:"xp_earned"`
	Date            time.Time        `gorm:"not null;index:idx_sessions_user_date,priority:2" json:"date"`
	QuestionAnswers []QuestionAnswer `gorm:"serializer:json;type:text" json:"question_answers"`
	Submitted       bool             `gorm:"default:false" json:"submitted"`
}

// AnswerTime sums the per-question times of the session.
func (s *GameSession) AnswerTime() float64 {
	var total float64
	for _, qa := range s.QuestionAnswers {
		total += qa.TimeSpent
	}
	return total
}
