package schedule

import "time"

// RuleType identifies one of the six supported recurrence kinds.
type RuleType string

const (
	RuleDaily     RuleType = "daily"
	RuleWeekly    RuleType = "weekly"
	RuleMonthly   RuleType = "monthly"
	RuleQuarterly RuleType = "quarterly"
	RuleYearly    RuleType = "yearly"
	RuleCustom    RuleType = "custom"
)

// Recurrence is a template's recurrence rule: a type discriminator plus
// the parameter block for that type. Parameter blocks for other types are
// ignored. A nil parameter block is treated as all-defaults.
type Recurrence struct {
	Type      RuleType         `json:"type"`
	Daily     *DailyParams     `json:"daily,omitempty"`
	Weekly    *WeeklyParams    `json:"weekly,omitempty"`
	Monthly   *MonthlyParams   `json:"monthly,omitempty"`
	Quarterly *QuarterlyParams `json:"quarterly,omitempty"`
	Yearly    *YearlyParams    `json:"yearly,omitempty"`
	Custom    *CustomParams    `json:"custom,omitempty"`
}

// DailyParams configures the daily rule.
type DailyParams struct {
	IntervalDays int `json:"intervalDays"`
}

// WeeklyParams configures the weekly rule. DayOfWeek is informational for
// the anchor only; the transition is interval-based.
type WeeklyParams struct {
	IntervalWeeks int `json:"intervalWeeks"`
	DayOfWeek     int `json:"dayOfWeek,omitempty"`
}

// MonthlyParams configures the monthly rule. A DayOfMonth < 1 means "keep
// the previous due date's day-of-month".
type MonthlyParams struct {
	IntervalMonths int `json:"intervalMonths"`
	DayOfMonth     int `json:"dayOfMonth,omitempty"`
}

// QuarterlyParams exists for symmetry; the quarterly transition ignores
// all stored parameters and snaps to quarter boundaries.
type QuarterlyParams struct{}

// YearlyParams configures the yearly rule. Month is 1-based.
type YearlyParams struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// CustomParams configures the custom rule: a daily-style interval with an
// optional anchor override.
type CustomParams struct {
	IntervalDays int    `json:"intervalDays"`
	StartDate    string `json:"startDate,omitempty"`
}

// positive coerces non-positive interval parameters to 1. Misconfigured
// intervals are a policy matter, not a rejection.
func positive(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Next returns the due date that follows prev under rec.
// ok is false when the rule is terminal (unrecognized type): the sequence
// has no next date.
//
// Monthly and yearly set an explicit day-of-month after advancing, and a
// day that overflows the target month normalizes forward into the next
// month (day 31 in a 30-day month lands on the 1st of the month after).
// time.Date gives exactly that normalization.
func Next(prev time.Time, rec Recurrence) (next time.Time, ok bool) {
	switch rec.Type {
	case RuleDaily:
		interval := 1
		if rec.Daily != nil {
			interval = positive(rec.Daily.IntervalDays)
		}
		return prev.AddDate(0, 0, interval), true

	case RuleWeekly:
		interval := 1
		if rec.Weekly != nil {
			interval = positive(rec.Weekly.IntervalWeeks)
		}
		return prev.AddDate(0, 0, 7*interval), true

	case RuleMonthly:
		interval := 1
		day := prev.Day()
		if rec.Monthly != nil {
			interval = positive(rec.Monthly.IntervalMonths)
			if rec.Monthly.DayOfMonth >= 1 {
				day = rec.Monthly.DayOfMonth
			}
		}
		return Date(prev.Year(), prev.Month()+time.Month(interval), day), true

	case RuleQuarterly:
		// First day of the quarter boundary strictly after prev's month:
		// Jan 1, Apr 1, Jul 1 or Oct 1. Month 13 normalizes to January of
		// the following year.
		m := int(prev.Month())
		boundary := 3*((m-1)/3) + 4
		return Date(prev.Year(), time.Month(boundary), 1), true

	case RuleYearly:
		month, day := 1, 1
		if rec.Yearly != nil {
			month = positive(rec.Yearly.Month)
			day = positive(rec.Yearly.Day)
		}
		return Date(prev.Year()+1, time.Month(month), day), true

	case RuleCustom:
		interval := 1
		if rec.Custom != nil {
			interval = positive(rec.Custom.IntervalDays)
		}
		return prev.AddDate(0, 0, interval), true
	}

	return time.Time{}, false
}

// Anchor resolves the first due date of a template's occurrence sequence.
// The custom rule may override firstDue with an explicit start date; every
// other rule anchors at firstDue. The result is a civil date.
func Anchor(firstDue time.Time, rec Recurrence) time.Time {
	if rec.Type == RuleCustom && rec.Custom != nil && rec.Custom.StartDate != "" {
		if start, err := ParseDate(rec.Custom.StartDate); err == nil {
			return start
		}
	}
	return Truncate(firstDue)
}

// fixedIntervalDays reports whether rec advances by a fixed number of days
// per occurrence, and if so by how many. These are the rules eligible for
// the fast-forward jump in Evaluate.
func fixedIntervalDays(rec Recurrence) (days int, ok bool) {
	switch rec.Type {
	case RuleDaily:
		if rec.Daily != nil {
			return positive(rec.Daily.IntervalDays), true
		}
		return 1, true
	case RuleCustom:
		if rec.Custom != nil {
			return positive(rec.Custom.IntervalDays), true
		}
		return 1, true
	case RuleWeekly:
		if rec.Weekly != nil {
			return 7 * positive(rec.Weekly.IntervalWeeks), true
		}
		return 7, true
	}
	return 0, false
}
