// Package schedule computes occurrence dates for recurring task templates.
//
// A template's occurrence sequence starts at its anchor due date and is
// advanced by a recurrence rule. Next implements the per-rule transition;
// Evaluate walks the sequence to decide whether today is the creation date
// of some occurrence.
//
// Dates are civil dates: time.Time values normalized to midnight UTC with
// no time component. All arithmetic is done in whole days, months, or
// years, so the package is immune to DST and leap-second concerns.
//
// Determinism: Evaluate is a pure function of its arguments. The walk is
// bounded by a fixed iteration ceiling, and exceeding it (or encountering
// a rule that fails to advance) is a typed ScheduleError so callers and
// tests can observe it rather than guessing from a log line.
package schedule
