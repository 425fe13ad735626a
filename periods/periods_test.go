package periods

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, layout, v string, loc *time.Location) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation(layout, v, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", v, err)
	}
	return ts
}

const msLayout = "2006-01-02T15:04:05.000"

func TestBounds(t *testing.T) {
	t.Parallel()
	cal := NewCalendar(time.UTC)
	ref := mustTime(t, time.DateTime, "2024-03-15 13:45:00", time.UTC)

	tests := []struct {
		name      string
		period    Type
		wantStart string
		wantEnd   string
	}{
		{"daily", Daily, "2024-03-15T00:00:00.000", "2024-03-15T23:59:59.999"},
		{"weekly starts sunday", Weekly, "2024-03-10T00:00:00.000", "2024-03-16T23:59:59.999"},
		{"monthly", Monthly, "2024-03-01T00:00:00.000", "2024-03-31T23:59:59.999"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := cal.Bounds(tt.period, ref)
			if s := got.Start.Format(msLayout); s != tt.wantStart {
				t.Errorf("start = %s, want %s", s, tt.wantStart)
			}
			if e := got.End.Format(msLayout); e != tt.wantEnd {
				t.Errorf("end = %s, want %s", e, tt.wantEnd)
			}
		})
	}
}

func TestBoundsOnSunday(t *testing.T) {
	t.Parallel()
	cal := NewCalendar(time.UTC)
	sunday := mustTime(t, time.DateTime, "2024-03-10 00:00:00", time.UTC)

	got := cal.Bounds(Weekly, sunday)
	if !got.Start.Equal(sunday) {
		t.Fatalf("start = %v, want %v", got.Start, sunday)
	}
}

func TestPrevious(t *testing.T) {
	t.Parallel()
	cal := NewCalendar(time.UTC)

	tests := []struct {
		name      string
		period    Type
		ref       string
		wantStart string
		wantEnd   string
	}{
		{"month across year", Monthly, "2024-01-15 10:00:00", "2023-12-01T00:00:00.000", "2023-12-31T23:59:59.999"},
		{"month from the 31st", Monthly, "2024-03-31 10:00:00", "2024-02-01T00:00:00.000", "2024-02-29T23:59:59.999"},
		{"day across month", Daily, "2024-03-01 00:00:00", "2024-02-29T00:00:00.000", "2024-02-29T23:59:59.999"},
		{"week across year", Weekly, "2024-01-02 08:00:00", "2023-12-24T00:00:00.000", "2023-12-30T23:59:59.999"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := cal.Previous(tt.period, mustTime(t, time.DateTime, tt.ref, time.UTC))
			if s := got.Start.Format(msLayout); s != tt.wantStart {
				t.Errorf("start = %s, want %s", s, tt.wantStart)
			}
			if e := got.End.Format(msLayout); e != tt.wantEnd {
				t.Errorf("end = %s, want %s", e, tt.wantEnd)
			}
		})
	}
}

func TestBoundsUseCalendarLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+3", 3*60*60)
	cal := NewCalendar(loc)

	// 22:30 UTC on the 14th is already the 15th at UTC+3.
	ref := mustTime(t, time.DateTime, "2024-03-14 22:30:00", time.UTC)
	got := cal.Bounds(Daily, ref)
	if s := got.Start.Format(msLayout); s != "2024-03-15T00:00:00.000" {
		t.Fatalf("local start = %s", s)
	}
	if s := got.UTC().Start.Format(msLayout); s != "2024-03-14T21:00:00.000" {
		t.Fatalf("utc start = %s", s)
	}
	if key := cal.DateKey(ref); key != "2024-03-15" {
		t.Fatalf("date key = %s", key)
	}
}

func TestRangeContainsIsInclusive(t *testing.T) {
	t.Parallel()
	cal := NewCalendar(time.UTC)
	r := cal.Bounds(Daily, time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC))

	if !r.Contains(r.Start) || !r.Contains(r.End) {
		t.Fatal("range must include both ends")
	}
	if r.Contains(r.End.Add(time.Millisecond)) {
		t.Fatal("range must exclude the next period start")
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"daily", "WEEKLY", " monthly "} {
		if _, err := ParseType(in); err != nil {
			t.Errorf("ParseType(%q): %v", in, err)
		}
	}
	if _, err := ParseType("all-time"); err == nil {
		t.Error("all-time is not a champion period")
	}
}
