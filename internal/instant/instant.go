// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package instant normalizes timestamps from both exports to UTC so that
// durations between differently sourced instants are safe to compute.
// Absent or unparseable values are nil, never errors.
package instant

import (
	"strings"
	"time"
)

// layouts are tried in order. Layouts without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Parse reads an ISO-8601 instant and returns it in UTC.
func Parse(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Ptr(t)
		}
	}
	return nil
}

// FromMillis converts an epoch-millisecond value. Zero and negative values
// mean the timestamp is absent.
func FromMillis(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	return Ptr(time.UnixMilli(ms))
}

// Ptr returns a UTC copy of t.
func Ptr(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}

// Min returns the earliest non-nil candidate, or nil when all are nil.
func Min(candidates ...*time.Time) *time.Time {
	var earliest *time.Time
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if earliest == nil || c.Before(*earliest) {
			earliest = c
		}
	}
	return earliest
}

// Max returns the latest non-nil candidate, or nil when all are nil.
func Max(candidates ...*time.Time) *time.Time {
	var latest *time.Time
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if latest == nil || c.After(*latest) {
			latest = c
		}
	}
	return latest
}

const day = 24 * time.Hour

// DaysBetween returns the whole days from start to end, rounded toward
// negative infinity. A result 36 hours early is -2 days.
func DaysBetween(start, end time.Time) int {
	d := end.Sub(start)
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

// Date formats t as YYYY-MM-DD, or "" when t is nil.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
