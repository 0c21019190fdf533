package reconcile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"heat_sequencing/internal/models"
)

// DefaultRolloverThreshold is how far a time may fall before its predecessor before it is
// read as a next-day continuation instead of an out-of-order entry.
const DefaultRolloverThreshold = 12 * time.Hour

var (
	errBadClock = errors.New("invalid time of day")

	// H:MM, HH:MM, optional :SS (fraction ignored), optionally preceded by a date and a space or T.
	clockPattern = regexp.MustCompile(`^(?:(\S+)[ T])?(\d{1,2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?$`)

	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"02.01.2006",
		"1/2/2006",
	}
)

// clock is a parsed wall-clock time of day. date is set when the text carried its own date.
type clock struct {
	hour, minute, second int
	date                 time.Time
}

func (c clock) seconds() int { return c.hour*3600 + c.minute*60 + c.second }

func parseClock(s string) (clock, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return clock{}, errBadClock
	}
	var date time.Time
	if m[1] != "" {
		d, ok := parseDate(m[1])
		if !ok {
			return clock{}, errBadClock
		}
		date = d
	}
	h, _ := strconv.Atoi(m[2])
	mi, _ := strconv.Atoi(m[3])
	sec := 0
	if m[4] != "" {
		sec, _ = strconv.Atoi(m[4])
	}
	if h > 23 || mi > 59 || sec > 59 {
		return clock{}, errBadClock
	}
	return clock{hour: h, minute: mi, second: sec, date: date}, nil
}

// parseDate returns the UTC midnight of a date string, or false when it is empty or unreadable.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

// midnight keeps only the calendar part of t, read literally, at 00:00 UTC.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BaseDate is the anchor for rows that have neither a date nor a predecessor:
// the earliest explicit date in the batch (date column or dated start text), or the calendar day of now.
func BaseDate(rows []models.RawRow, now time.Time) time.Time {
	var base time.Time
	earliest := func(d time.Time) {
		if base.IsZero() || d.Before(base) {
			base = d
		}
	}
	for _, r := range rows {
		if d, ok := parseDate(r.DateStr); ok {
			earliest(d)
		} else if c, err := parseClock(r.StartStr); err == nil && !c.date.IsZero() {
			earliest(c.date)
		}
	}
	if base.IsZero() {
		return midnight(now.UTC())
	}
	return base
}

// TimeFormatError reports a start or end value that is not a time of day.
type TimeFormatError struct {
	Field string // "start" | "end"
	Value string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("invalid %s time %q", e.Field, e.Value)
}

// TimeResolver anchors time-of-day text to absolute UTC timestamps.
type TimeResolver struct {
	Threshold time.Duration
}

func (r TimeResolver) threshold() time.Duration {
	if r.Threshold <= 0 {
		return DefaultRolloverThreshold
	}
	return r.Threshold
}

// Resolve anchors timeStr to dateStr if it parses, else to a date written in timeStr itself,
// else to pred's day, else to base.
// A zero pred means "no predecessor". A result more than Threshold before pred moves to the next day.
func (r TimeResolver) Resolve(dateStr, timeStr string, base, pred time.Time) (time.Time, error) {
	c, err := parseClock(timeStr)
	if err != nil {
		return time.Time{}, err
	}

	day := base
	if d, ok := parseDate(dateStr); ok {
		day = d
	} else if !c.date.IsZero() {
		day = c.date
	} else if !pred.IsZero() {
		day = midnight(pred)
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, c.second, 0, time.UTC)
	if !pred.IsZero() && pred.Sub(t) > r.threshold() {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// ResolveSpan resolves a start/end pair. The end is anchored with the start as its predecessor
// and pushed one day forward if it still precedes the start.
func (r TimeResolver) ResolveSpan(dateStr, startStr, endStr string, base, pred time.Time) (time.Time, time.Time, error) {
	start, err := r.Resolve(dateStr, startStr, base, pred)
	if err != nil {
		return time.Time{}, time.Time{}, &TimeFormatError{Field: "start", Value: startStr}
	}
	end, err := r.Resolve(dateStr, endStr, base, start)
	if err != nil {
		return time.Time{}, time.Time{}, &TimeFormatError{Field: "end", Value: endStr}
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}
