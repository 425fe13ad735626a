// periods/periods.go
package periods

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Type is the length of a champion window.
type Type string

const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
)

// All lists the period types in reconciliation order.
var All = []Type{Daily, Weekly, Monthly}

// ParseType accepts "daily", "weekly" or "monthly" (case-insensitive).
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown period type %q", s)
}

// Range is an inclusive window. End is the last millisecond of the period.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls in [Start, End].
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// UTC returns the range with both ends normalized to UTC for storage queries.
func (r Range) UTC() Range {
	return Range{Start: r.Start.UTC(), End: r.End.UTC()}
}

// Calendar computes wall-clock period boundaries in a fixed location.
// Weeks start on Sunday.
type Calendar struct {
	loc *time.Location
	cfg *now.Config
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{
		loc: loc,
		cfg: &now.Config{WeekStartDay: time.Sunday, TimeLocation: loc},
	}
}

func (c *Calendar) Location() *time.Location { return c.loc }

func (c *Calendar) at(t time.Time) *now.Now {
	return c.cfg.With(t.In(c.loc))
}

// StartOfDay returns local midnight of the day containing t.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	return c.at(t).BeginningOfDay()
}

// StartOfWeek returns local midnight of the Sunday on or before t.
func (c *Calendar) StartOfWeek(t time.Time) time.Time {
	return c.at(t).BeginningOfWeek()
}

// StartOfMonth returns local midnight of the first day of t's month.
func (c *Calendar) StartOfMonth(t time.Time) time.Time {
	return c.at(t).BeginningOfMonth()
}

// DateKey is the local calendar date of t as YYYY-MM-DD.
func (c *Calendar) DateKey(t time.Time) string {
	return t.In(c.loc).Format(time.DateOnly)
}

// Bounds returns the period of type p that contains ref.
func (c *Calendar) Bounds(p Type, ref time.Time) Range {
	var start, next time.Time
	switch p {
	case Weekly:
		start = c.StartOfWeek(ref)
		next = start.AddDate(0, 0, 7)
	case Monthly:
		start = c.StartOfMonth(ref)
		next = start.AddDate(0, 1, 0)
	default:
		start = c.StartOfDay(ref)
		next = start.AddDate(0, 0, 1)
	}
	return Range{Start: start, End: next.Add(-time.Millisecond)}
}

// Previous returns the period immediately before the one containing ref.
// The shift is applied to the period start so that month lengths never
// cause a period to be skipped (March 31 maps to February).
func (c *Calendar) Previous(p Type, ref time.Time) Range {
	switch p {
	case Weekly:
		return c.Bounds(p, c.StartOfWeek(ref).AddDate(0, 0, -7))
	case Monthly:
		return c.Bounds(p, c.StartOfMonth(ref).AddDate(0, -1, 0))
	default:
		return c.Bounds(p, c.StartOfDay(ref).AddDate(0, 0, -1))
	}
}
