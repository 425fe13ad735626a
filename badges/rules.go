package badges

import (
	"sort"
	"time"

	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"
)

// Rule decides whether a badge is earned. Rules must be pure: they read
// the Context and nothing else.
type Rule func(*Context) bool

// Operation tags used by lifetime counters.
var (
	OpAddition       = []string{"+"}
	OpSubtraction    = []string{"-"}
	OpMultiplication = []string{"×"}
	OpDivision       = []string{"/", "÷"}
)

// SessionCorrect: the current session is of gameType with at least k correct.
func SessionCorrect(gameType string, k int) Rule {
	return func(c *Context) bool {
		return c.Current.GameType == gameType && c.Current.Correct >= k
	}
}

// FastCorrect: the last k correct answers of the current session took at most maxSeconds in total.
func FastCorrect(k int, maxSeconds float64) Rule {
	return func(c *Context) bool {
		window := c.lastCorrect(k)
		if window == nil {
			return false
		}
		var total float64
		for _, qa := range window {
			total += qa.TimeSpent
		}
		return total <= maxSeconds
	}
}

// CorrectStreak: the last k answers are all correct.
func CorrectStreak(k int) Rule {
	return func(c *Context) bool {
		window := c.lastAnswers(k)
		if window == nil {
			return false
		}
		for _, qa := range window {
			if !qa.IsCorrect {
				return false
			}
		}
		return true
	}
}

// PerfectBlock: exactly k of the last k answers are correct.
func PerfectBlock(k int) Rule {
	return func(c *Context) bool {
		window := c.lastAnswers(k)
		if window == nil {
			return false
		}
		n := 0
		for _, qa := range window {
			if qa.IsCorrect {
				n++
			}
		}
		return n == k
	}
}

// OperationCorrect: lifetime correct answers tagged with any of tags reach k.
func OperationCorrect(k int, tags ...string) Rule {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[t] = struct{}{}
	}
	return func(c *Context) bool {
		n := 0
		for _, s := range c.History {
			for _, qa := range s.QuestionAnswers {
				if _, ok := want[qa.QuestionType]; ok && qa.IsCorrect {
					n++
				}
			}
		}
		return n >= k
	}
}

// GameTypeCorrect: lifetime correct count across sessions of gameType reaches k.
func GameTypeCorrect(gameType string, k int) Rule {
	return func(c *Context) bool {
		n := 0
		for _, s := range c.History {
			if s.GameType == gameType {
				n += s.Correct
			}
		}
		return n >= k
	}
}

// TotalCorrect: lifetime correct count across all sessions reaches k.
func TotalCorrect(k int) Rule {
	return func(c *Context) bool {
		n := 0
		for _, s := range c.History {
			n += s.Correct
		}
		return n >= k
	}
}

func StreakAtLeast(k int) Rule {
	return func(c *Context) bool { return c.Profile.Streak >= k }
}

func XPAtLeast(k int64) Rule {
	return func(c *Context) bool { return c.Profile.XP >= k }
}

// PeriodXP: XP earned in the period containing Now reaches k.
func PeriodXP(p periods.Type, k int64) Rule {
	return func(c *Context) bool {
		var total int64
		for _, s := range c.sessionsIn(c.Calendar.Bounds(p, c.Now)) {
			total += s.XPEarned
		}
		return total >= k
	}
}

// WeeklyActiveDays: distinct local dates played this week reach k.
func WeeklyActiveDays(k int) Rule {
	return func(c *Context) bool {
		days := map[string]struct{}{}
		for _, s := range c.sessionsIn(c.Calendar.Bounds(periods.Weekly, c.Now)) {
			days[c.Calendar.DateKey(s.Date)] = struct{}{}
		}
		return len(days) >= k
	}
}

// HourBetween: the current session started in local hour [from, to).
func HourBetween(from, to int) Rule {
	return func(c *Context) bool {
		if c.Current.Date.IsZero() {
			return false
		}
		h := c.Current.Date.In(c.Calendar.Location()).Hour()
		return h >= from && h < to
	}
}

// WeekendPlayer: at least one Saturday session and one Sunday session, any weeks.
func WeekendPlayer() Rule {
	return func(c *Context) bool {
		var sat, sun bool
		for _, s := range c.History {
			switch s.Date.In(c.Calendar.Location()).Weekday() {
			case time.Saturday:
				sat = true
			case time.Sunday:
				sun = true
			}
			if sat && sun {
				return true
			}
		}
		return false
	}
}

// PerfectWeek looks at sessions since local midnight seven days ago. It
// needs at least 7 sessions over at least 7 dates, and each of the 7 most
// recent dates must have a round with no wrong answers and at least one right.
func PerfectWeek() Rule {
	const days = 7
	return func(c *Context) bool {
		since := c.Calendar.StartOfDay(c.Now).AddDate(0, 0, -days)
		perfect := map[string]bool{}
		sessions := 0
		for _, s := range c.History {
			if s.Date.Before(since) {
				continue
			}
			sessions++
			key := c.Calendar.DateKey(s.Date)
			if s.Wrong == 0 && s.Correct > 0 {
				perfect[key] = true
			} else if _, seen := perfect[key]; !seen {
				perfect[key] = false
			}
		}
		if sessions < days || len(perfect) < days {
			return false
		}
		keys := make([]string, 0, len(perfect))
		for k := range perfect {
			keys = append(keys, k)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
		for _, k := range keys[:days] {
			if !perfect[k] {
				return false
			}
		}
		return true
	}
}

// CompletedLevels: completed level records reach k.
func CompletedLevels(k int) Rule {
	return func(c *Context) bool {
		n := 0
		for _, l := range c.Levels {
			if l.Completed {
				n++
			}
		}
		return n >= k
	}
}

// LevelsMastered: at least known level records exist and every one is
// completed with the maximum stars.
func LevelsMastered(known int) Rule {
	return func(c *Context) bool {
		if len(c.Levels) < known {
			return false
		}
		for _, l := range c.Levels {
			if !l.Completed || l.Stars != models.MaxStars {
				return false
			}
		}
		return true
	}
}

// LevelsUnlocked: distinct level ids with progress reach k.
func LevelsUnlocked(k int) Rule {
	return func(c *Context) bool {
		ids := map[string]struct{}{}
		for _, l := range c.Levels {
			ids[l.LevelID] = struct{}{}
		}
		return len(ids) >= k
	}
}

// LevelSpeedRecord: the current adventure round's answer time is under
// maxSeconds and strictly below every earlier timed round on the same level.
func LevelSpeedRecord(maxSeconds float64) Rule {
	return func(c *Context) bool {
		cur := c.Current
		if cur.GameType != models.GameTypeAdventure || cur.LevelID == "" || len(cur.QuestionAnswers) == 0 {
			return false
		}
		elapsed := cur.AnswerTime()
		if elapsed >= maxSeconds {
			return false
		}
		for _, s := range c.History {
			if s.ID == cur.ID || s.GameType != models.GameTypeAdventure || s.LevelID != cur.LevelID {
				continue
			}
			if s.TimeSpent > 0 && elapsed >= s.TimeSpent {
				return false
			}
		}
		return true
	}
}

// HeldBadges: badges held before this evaluation reach k.
func HeldBadges(k int) Rule {
	return func(c *Context) bool { return c.HeldCount >= k }
}
