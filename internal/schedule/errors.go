package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ScheduleErrorCode categorizes degenerate schedule outcomes.
type ScheduleErrorCode string

const (
	// ErrCodeNonAdvancing indicates the rule produced no next date, or a
	// next date not strictly greater than the current due date.
	ErrCodeNonAdvancing ScheduleErrorCode = "NON_ADVANCING_RULE"

	// ErrCodeCeilingExceeded indicates the walk hit the iteration ceiling
	// without reaching today.
	ErrCodeCeilingExceeded ScheduleErrorCode = "CEILING_EXCEEDED"
)

// ScheduleError reports a degenerate schedule configuration detected
// during Evaluate. Callers treat it as "nothing scheduled today" but it is
// a distinct, observable outcome: a misconfigured rule, not a quiet day.
type ScheduleError struct {
	Code ScheduleErrorCode

	// Rule is the recurrence type being walked.
	Rule RuleType

	// Due is the due date the walk had reached when it stopped.
	Due time.Time

	Message string
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%s: %s (rule=%s, due=%s)", e.Code, e.Message, e.Rule, FormatDate(e.Due))
}

// IsDegenerate reports whether err is a ScheduleError of any code.
// Uses errors.As to handle wrapped errors.
func IsDegenerate(err error) bool {
	var se *ScheduleError
	return errors.As(err, &se)
}
