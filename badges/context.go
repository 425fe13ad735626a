package badges

import (
	"time"

	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"
)

// Context is the read-only snapshot a rule is evaluated against.
// History always contains Current exactly once.
type Context struct {
	Current   *models.GameSession
	History   []models.GameSession
	Profile   models.UserProfile
	Levels    []models.LevelProgress
	HeldCount int
	Now       time.Time
	Calendar  *periods.Calendar
}

// NewContext builds a Context, replacing any stored copy of current in
// history with the in-memory one.
func NewContext(current *models.GameSession, history []models.GameSession, profile models.UserProfile,
	levels []models.LevelProgress, heldCount int, at time.Time, cal *periods.Calendar) *Context {
	if cal == nil {
		cal = periods.NewCalendar(nil)
	}
	merged := make([]models.GameSession, 0, len(history)+1)
	for _, s := range history {
		if current != nil && s.ID == current.ID {
			continue
		}
		merged = append(merged, s)
	}
	if current != nil {
		merged = append(merged, *current)
	} else {
		current = &models.GameSession{}
	}
	return &Context{
		Current:   current,
		History:   merged,
		Profile:   profile,
		Levels:    levels,
		HeldCount: heldCount,
		Now:       at,
		Calendar:  cal,
	}
}

func (c *Context) answers() []models.QuestionAnswer {
	return c.Current.QuestionAnswers
}

// lastAnswers returns the final k answers, or nil when fewer exist.
func (c *Context) lastAnswers(k int) []models.QuestionAnswer {
	qa := c.answers()
	if k <= 0 || len(qa) < k {
		return nil
	}
	return qa[len(qa)-k:]
}

// lastCorrect returns the final k correct answers, or nil when fewer exist.
func (c *Context) lastCorrect(k int) []models.QuestionAnswer {
	if k <= 0 {
		return nil
	}
	var correct []models.QuestionAnswer
	for _, qa := range c.answers() {
		if qa.IsCorrect {
			correct = append(correct, qa)
		}
	}
	if len(correct) < k {
		return nil
	}
	return correct[len(correct)-k:]
}

// sessionsIn returns sessions whose date falls in r.
func (c *Context) sessionsIn(r periods.Range) []models.GameSession {
	var out []models.GameSession
	for _, s := range c.History {
		if r.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out
}
