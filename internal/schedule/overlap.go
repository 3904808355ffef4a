// Package schedule detects double-booking of a subject (a staff member) by
// half-open time intervals.
//
// The check is advisory: it reads the existing intervals and decides. Two
// concurrent transactions can both pass it; the tables additionally carry
// an exclusion constraint that rejects the second write.
package schedule

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("schedule: interval start must be before its end")

// Interval is the half-open range [Start, End) booked for a subject.
type Interval struct {
	ID          int64
	SubjectKey  string
	SubjectName string
	Start       time.Time
	End         time.Time
}

func (i Interval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() || !i.Start.Before(i.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether [a,b) and [c,d) share time: a < d and b > c.
// Intervals that only touch at an endpoint do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Result lists the existing intervals the candidate conflicts with, in the
// order they were given.
type Result struct {
	Conflicts []Interval
}

func (r Result) HasConflict() bool {
	return len(r.Conflicts) > 0
}

// First returns the first conflicting interval.
func (r Result) First() (Interval, bool) {
	if len(r.Conflicts) == 0 {
		return Interval{}, false
	}
	return r.Conflicts[0], true
}

type options struct {
	exclude    int64
	hasExclude bool
	dayIn      *time.Location
}

// Option narrows the set of intervals a candidate is compared against.
type Option func(*options)

// Excluding ignores the interval with the given id, so an update never
// conflicts with its own previous version.
func Excluding(id int64) Option {
	return func(o *options) {
		o.exclude = id
		o.hasExclude = true
	}
}

// SameDay only considers intervals that fall on the calendar days in loc
// the candidate touches.
func SameDay(loc *time.Location) Option {
	return func(o *options) {
		if loc == nil {
			loc = time.UTC
		}
		o.dayIn = loc
	}
}

// DayWindow returns the calendar day of t in loc as a half-open interval.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// DaysWindow returns the calendar days in loc that i touches, from the
// start of its first day to the end of its last.
func DaysWindow(i Interval, loc *time.Location) (time.Time, time.Time) {
	from, _ := DayWindow(i.Start, loc)
	last := i.End
	if last.After(i.Start) {
		last = last.Add(-time.Nanosecond)
	}
	_, to := DayWindow(last, loc)
	return from, to
}

// FindConflicts compares candidate against existing intervals of the same
// subject.
func FindConflicts(candidate Interval, existing []Interval, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var window Interval
	if o.dayIn != nil {
		window.Start, window.End = DaysWindow(candidate, o.dayIn)
	}

	var result Result
	for _, e := range existing {
		if e.SubjectKey != candidate.SubjectKey {
			continue
		}
		if o.hasExclude && e.ID == o.exclude {
			continue
		}
		if o.dayIn != nil && !e.Overlaps(window) {
			continue
		}
		if candidate.Overlaps(e) {
			result.Conflicts = append(result.Conflicts, e)
		}
	}
	return result
}
