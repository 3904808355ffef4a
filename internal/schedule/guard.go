package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/booking-backend/internal/errs"
)

// IntervalSource loads the existing intervals of a subject that intersect
// [from, to). Implementations read through the request transaction.
type IntervalSource interface {
	Intervals(ctx context.Context, subjectKey string, from, to time.Time) ([]Interval, error)
}

// IntervalSourceFunc adapts a function to IntervalSource.
type IntervalSourceFunc func(ctx context.Context, subjectKey string, from, to time.Time) ([]Interval, error)

func (f IntervalSourceFunc) Intervals(ctx context.Context, subjectKey string, from, to time.Time) ([]Interval, error) {
	return f(ctx, subjectKey, from, to)
}

// Guard checks a candidate against one kind of existing booking.
type Guard struct {
	// Kind names the existing bookings in messages ("appointment", "day off").
	Kind   string
	Source IntervalSource

	// DayScoped restricts the comparison to the calendar days in Location
	// the candidate touches.
	DayScoped bool
	Location  *time.Location
}

// Check returns a *ConflictError when candidate overlaps an existing
// interval of the same subject.
func (g Guard) Check(ctx context.Context, candidate Interval, opts ...Option) error {
	if err := candidate.Validate(); err != nil {
		return err
	}

	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}

	from, to := candidate.Start, candidate.End
	if g.DayScoped {
		opts = append(opts, SameDay(loc))
		dayStart, dayEnd := DaysWindow(candidate, loc)
		from, to = minTime(from, dayStart), maxTime(to, dayEnd)
	}

	existing, err := g.Source.Intervals(ctx, candidate.SubjectKey, from, to)
	if err != nil {
		return err
	}

	conflict, ok := FindConflicts(candidate, existing, opts...).First()
	if !ok {
		return nil
	}

	return &ConflictError{
		Kind:      g.Kind,
		Candidate: candidate,
		Conflict:  conflict,
		Location:  loc,
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// ConflictError is a double-booking. It names the subject and the existing
// interval so clients can show why the slot is taken.
type ConflictError struct {
	Kind      string
	Candidate Interval
	Conflict  Interval
	Location  *time.Location
}

const messageLayout = "2006-01-02 15:04"

func (e *ConflictError) subject() string {
	if e.Conflict.SubjectName != "" {
		return e.Conflict.SubjectName
	}
	if e.Candidate.SubjectName != "" {
		return e.Candidate.SubjectName
	}
	return e.Candidate.SubjectKey
}

func (e *ConflictError) format(t time.Time) string {
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(messageLayout)
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already has %s from %s to %s",
		e.subject(), withArticle(e.Kind), e.format(e.Conflict.Start), e.format(e.Conflict.End))
}

func withArticle(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an " + noun
	}
	return "a " + noun
}

func (e *ConflictError) HTTPError() *errs.HTTPError {
	code := strings.ToUpper(strings.ReplaceAll(e.Kind, " ", "_")) + "_CONFLICT"

	return errs.NewConflictError(e.Error(), true, &code).WithDetails(map[string]any{
		"subject":        e.subject(),
		"conflict_id":    e.Conflict.ID,
		"conflict_start": e.Conflict.Start,
		"conflict_end":   e.Conflict.End,
	})
}
