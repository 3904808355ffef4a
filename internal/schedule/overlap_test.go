package schedule

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

var day = time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func interval(id int64, subject string, startH, startM, endH, endM int) Interval {
	return Interval{ID: id, SubjectKey: subject, SubjectName: "Staff " + subject, Start: at(startH, startM), End: at(endH, endM)}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := interval(1, "s", 10, 0, 11, 0)

	tests := []struct {
		name string
		c    Interval
		want bool
	}{
		{"identical", interval(2, "s", 10, 0, 11, 0), true},
		{"inside", interval(2, "s", 10, 15, 10, 45), true},
		{"covering", interval(2, "s", 9, 0, 12, 0), true},
		{"overlap end", interval(2, "s", 10, 30, 11, 30), true},
		{"overlap start", interval(2, "s", 9, 30, 10, 30), true},
		{"touch after", interval(2, "s", 11, 0, 12, 0), false},
		{"touch before", interval(2, "s", 9, 0, 10, 0), false},
		{"disjoint", interval(2, "s", 13, 0, 14, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Overlaps(base); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := base.Overlaps(tt.c); got != tt.want {
				t.Fatalf("Overlaps is not symmetric")
			}
		})
	}
}

func TestOverlapsMatchesDefinition(t *testing.T) {
	// Exhaustive over a quarter-hour grid: [a,b) and [c,d) conflict iff a<d and b>c.
	for a := 0; a < 8; a++ {
		for b := a + 1; b <= 8; b++ {
			for c := 0; c < 8; c++ {
				for d := c + 1; d <= 8; d++ {
					x := Interval{SubjectKey: "s", Start: at(10, a*15), End: at(10, b*15)}
					y := Interval{SubjectKey: "s", Start: at(10, c*15), End: at(10, d*15)}
					want := a < d && b > c
					if got := FindConflicts(x, []Interval{y}).HasConflict(); got != want {
						t.Fatalf("[%d,%d) vs [%d,%d): conflict=%v, want %v", a, b, c, d, got, want)
					}
				}
			}
		}
	}
}

func TestFindConflictsSubjectAndExclude(t *testing.T) {
	existing := []Interval{
		interval(1, "s", 10, 0, 11, 0),
		interval(2, "other", 10, 0, 11, 0),
	}

	if FindConflicts(interval(0, "x", 10, 0, 11, 0), existing).HasConflict() {
		t.Fatalf("different subject conflicted")
	}

	self := existing[0]
	if FindConflicts(self, existing, Excluding(self.ID)).HasConflict() {
		t.Fatalf("interval conflicted with itself despite Excluding")
	}

	res := FindConflicts(self, existing)
	first, ok := res.First()
	if !ok || first.ID != 1 || len(res.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want only id 1", res.Conflicts)
	}
}

func TestFindConflictsSameDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	// 23:00-01:00 UTC on the 23rd/24th is 06:00-08:00 on the 24th in Jakarta.
	lateShift := Interval{ID: 9, SubjectKey: "s", Start: at(-1, 0), End: at(1, 0)}
	candidate := Interval{SubjectKey: "s", Start: at(0, 30), End: at(2, 0)}

	if !FindConflicts(candidate, []Interval{lateShift}).HasConflict() {
		t.Fatalf("expected a conflict without day scoping")
	}
	// In UTC the existing interval starts on the 23rd but still reaches into
	// the 24th, so it stays inside the candidate's day window.
	if !FindConflicts(candidate, []Interval{lateShift}, SameDay(time.UTC)).HasConflict() {
		t.Fatalf("expected a conflict for an interval crossing into the same day")
	}

	// 23:30-00:30 crosses midnight: the early interval of the 25th is
	// still compared.
	nextDay := Interval{ID: 10, SubjectKey: "s", Start: at(24, 0), End: at(24, 30)}
	crossing := Interval{SubjectKey: "s", Start: at(23, 30), End: at(24, 30)}
	for _, loc := range []*time.Location{time.UTC, jakarta} {
		if !FindConflicts(crossing, []Interval{nextDay}, SameDay(loc)).HasConflict() {
			t.Fatalf("%s: interval after midnight ignored", loc)
		}
	}
}

func TestDaysWindow(t *testing.T) {
	tests := []struct {
		name     string
		i        Interval
		from, to time.Time
	}{
		{"within one day", interval(0, "s", 10, 0, 11, 0), day, day.AddDate(0, 0, 1)},
		{"ends at midnight", interval(0, "s", 23, 0, 24, 0), day, day.AddDate(0, 0, 1)},
		{"crosses midnight", interval(0, "s", 23, 30, 24, 30), day, day.AddDate(0, 0, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := DaysWindow(tt.i, time.UTC)
			if !from.Equal(tt.from) || !to.Equal(tt.to) {
				t.Fatalf("window = %v-%v, want %v-%v", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestGuardComparesAcrossMidnight(t *testing.T) {
	source := &memorySource{intervals: []Interval{
		{ID: 4, SubjectKey: "S", SubjectName: "Siti", Start: at(24, 0), End: at(24, 30)},
	}}
	guard := Guard{Kind: "appointment", Source: source, DayScoped: true, Location: time.UTC}

	err := guard.Check(context.Background(), Interval{SubjectKey: "S", Start: at(23, 30), End: at(24, 30)})

	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Conflict.ID != 4 {
		t.Fatalf("err = %v, want a ConflictError naming interval 4", err)
	}
	if w := source.windows[0]; !w[1].Equal(day.AddDate(0, 0, 2)) {
		t.Fatalf("guard queried up to %v, want the end of the 25th", w[1])
	}
}

func TestIntervalValidate(t *testing.T) {
	if err := interval(1, "s", 10, 0, 11, 0).Validate(); err != nil {
		t.Fatalf("valid interval rejected: %v", err)
	}
	for _, bad := range []Interval{
		interval(1, "s", 11, 0, 10, 0),
		interval(1, "s", 10, 0, 10, 0),
		{SubjectKey: "s", End: at(10, 0)},
	} {
		if err := bad.Validate(); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("Validate(%v-%v) = %v, want ErrInvalidInterval", bad.Start, bad.End, err)
		}
	}
}

// memorySource serves intervals the way a repository does: filtered by
// subject and window.
type memorySource struct {
	intervals []Interval
	windows   [][2]time.Time
}

func (m *memorySource) Intervals(_ context.Context, subject string, from, to time.Time) ([]Interval, error) {
	m.windows = append(m.windows, [2]time.Time{from, to})
	var out []Interval
	for _, i := range m.intervals {
		if i.SubjectKey == subject && i.Start.Before(to) && i.End.After(from) {
			out = append(out, i)
		}
	}
	return out, nil
}

func TestGuardStaffScenario(t *testing.T) {
	source := &memorySource{intervals: []Interval{
		{ID: 1, SubjectKey: "S", SubjectName: "Siti", Start: at(10, 0), End: at(11, 0)},
	}}
	guard := Guard{Kind: "appointment", Source: source, DayScoped: true, Location: time.UTC}
	ctx := context.Background()

	err := guard.Check(ctx, Interval{SubjectKey: "S", Start: at(10, 30), End: at(11, 30)})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("10:30-11:30 err = %v, want ConflictError", err)
	}
	if conflict.Conflict.ID != 1 {
		t.Fatalf("conflict = %+v, want the existing 10:00-11:00 interval", conflict.Conflict)
	}
	msg := conflict.Error()
	if !strings.Contains(msg, "Siti") || !strings.Contains(msg, "2025-12-24 10:00") || !strings.Contains(msg, "2025-12-24 11:00") {
		t.Fatalf("message %q does not name the existing interval", msg)
	}
	httpErr := conflict.HTTPError()
	if httpErr.Status != http.StatusConflict || httpErr.Code != "APPOINTMENT_CONFLICT" {
		t.Fatalf("http error = %+v", httpErr)
	}

	if err := guard.Check(ctx, Interval{SubjectKey: "S", Start: at(11, 0), End: at(12, 0)}); err != nil {
		t.Fatalf("11:00-12:00 touching boundary rejected: %v", err)
	}

	if err := guard.Check(ctx, Interval{SubjectKey: "T", Start: at(10, 30), End: at(11, 30)}); err != nil {
		t.Fatalf("other staff member rejected: %v", err)
	}

	last := source.windows[len(source.windows)-1]
	if !last[0].Equal(day) || !last[1].Equal(day.AddDate(0, 0, 1)) {
		t.Fatalf("day-scoped guard queried %v-%v, want the whole day", last[0], last[1])
	}
}

func TestGuardExcludesUpdatedRecord(t *testing.T) {
	source := &memorySource{intervals: []Interval{
		{ID: 1, SubjectKey: "S", Start: at(10, 0), End: at(11, 0)},
	}}
	guard := Guard{Kind: "shift", Source: source}

	moved := Interval{ID: 1, SubjectKey: "S", Start: at(10, 30), End: at(11, 30)}
	if err := guard.Check(context.Background(), moved, Excluding(1)); err != nil {
		t.Fatalf("rescheduling onto its own slot rejected: %v", err)
	}
}

func TestGuardRejectsInvalidCandidate(t *testing.T) {
	guard := Guard{Kind: "day off", Source: &memorySource{}}

	err := guard.Check(context.Background(), Interval{SubjectKey: "S", Start: at(12, 0), End: at(11, 0)})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
}

func TestGuardPropagatesSourceError(t *testing.T) {
	boom := errors.New("db down")
	guard := Guard{Kind: "day off", Source: IntervalSourceFunc(func(context.Context, string, time.Time, time.Time) ([]Interval, error) {
		return nil, boom
	})}

	if err := guard.Check(context.Background(), interval(0, "s", 10, 0, 11, 0)); err != boom {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestConflictErrorArticle(t *testing.T) {
	e := &ConflictError{Kind: "day off", Conflict: interval(3, "s", 9, 0, 17, 0)}
	if got := e.Error(); !strings.HasPrefix(got, "Staff s already has a day off from 2025-12-24 09:00") {
		t.Fatalf("Error() = %q", got)
	}
	if e.HTTPError().Code != "DAY_OFF_CONFLICT" {
		t.Fatalf("code = %q", e.HTTPError().Code)
	}
}
