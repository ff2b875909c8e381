package schedule

import "time"

// evaluationCeiling bounds the occurrence walk in Evaluate. Well-formed
// schedules never get near it: fixed-interval rules fast-forward in O(1),
// and month-grained rules accrue at most a few hundred occurrences over
// any realistic horizon. The ceiling exists to turn a misconfigured or
// cyclic rule into a ScheduleError instead of an unbounded loop.
const evaluationCeiling = 50000

// Occurrence is one scheduled instance of a template: the work item's due
// date and the day the item should be created (due date minus lead time).
type Occurrence struct {
	DueDate      time.Time
	CreationDate time.Time
}

// Evaluate walks the occurrence sequence anchored at firstDue forward and
// reports whether today is the creation date of some occurrence.
//
// Returns (nil, nil) when no occurrence's creation date equals today.
// Returns a *ScheduleError when the rule fails to advance or the walk
// exceeds the iteration ceiling; callers should treat that as "nothing
// scheduled" and surface a warning.
//
// At most one occurrence can match per call. A template that is several
// periods behind (downtime, late first run) only ever surfaces the
// occurrence whose creation date equals today; earlier missed occurrences
// are skipped, never backfilled.
//
// For fixed-interval rules (daily, custom, weekly) the walk jumps forward
// by whole periods in one arithmetic step instead of single-stepping, so
// evaluation cost is independent of how many years behind the anchor is.
func Evaluate(firstDue time.Time, leadDays int, rec Recurrence, today time.Time) (*Occurrence, error) {
	if leadDays < 0 {
		leadDays = 0
	}
	today = Truncate(today)
	due := Anchor(firstDue, rec)
	interval, fixed := fixedIntervalDays(rec)

	for i := 0; i < evaluationCeiling; i++ {
		creation := due.AddDate(0, 0, -leadDays)

		if creation.Equal(today) {
			return &Occurrence{DueDate: due, CreationDate: creation}, nil
		}
		if creation.After(today) {
			// Occurrences are monotonic: no later one can match today.
			return nil, nil
		}

		// The schedule is behind today; advance.
		if fixed {
			if periods := daysBetween(creation, today) / interval; periods > 0 {
				due = due.AddDate(0, 0, periods*interval)
				continue
			}
		}

		next, ok := Next(due, rec)
		if !ok || !next.After(due) {
			return nil, &ScheduleError{
				Code:    ErrCodeNonAdvancing,
				Rule:    rec.Type,
				Due:     due,
				Message: "rule produced no advancing next date",
			}
		}
		due = next
	}

	return nil, &ScheduleError{
		Code:    ErrCodeCeilingExceeded,
		Rule:    rec.Type,
		Due:     due,
		Message: "iteration ceiling reached before today",
	}
}
