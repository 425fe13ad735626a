package services

import "errors"

var (
	ErrSessionNotFound  = errors.New("game session not found")
	ErrSessionOwnership = errors.New("game session belongs to another user")
	ErrSessionSubmitted = errors.New("game session already submitted")
	ErrProfileNotFound  = errors.New("user profile not found")
	ErrUnknownGameType  = errors.New("unknown game type")
	ErrInvalidPeriod    = errors.New("invalid leaderboard period")
)
