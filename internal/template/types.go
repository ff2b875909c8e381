package template

import (
	"time"

	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
)

// AssigneeType distinguishes staff from team assignment.
type AssigneeType string

const (
	AssigneeStaff AssigneeType = "staff"
	AssigneeTeam  AssigneeType = "team"
)

// Assignee names the staff member or team a materialized task is assigned
// to. A zero Assignee means unassigned.
type Assignee struct {
	Type AssigneeType `json:"type"`
	ID   int64        `json:"id"`
}

// IsStaff reports whether the assignee is an individual staff member.
func (a Assignee) IsStaff() bool { return a.Type == AssigneeStaff && a.ID > 0 }

// IsTeam reports whether the assignee is a team.
func (a Assignee) IsTeam() bool { return a.Type == AssigneeTeam && a.ID > 0 }

// Template is one recurring task template as stored in templates.json.
// Read-only to this tool.
type Template struct {
	ID                        string              `json:"id"`
	Title                     string              `json:"title"`
	Description               string              `json:"description,omitempty"`
	ClientID                  string              `json:"clientId,omitempty"`
	DepartmentID              int64               `json:"departmentId"`
	Assignee                  Assignee            `json:"assignee,omitempty"`
	FirstDueDate              string              `json:"firstDueDate"`
	DaysBeforeDueDateToCreate int                 `json:"daysBeforeDueDateToCreate"`
	Recurrence                schedule.Recurrence `json:"recurrence"`
}

// FirstDue parses the template's first due date as a civil date.
func (t Template) FirstDue() (time.Time, error) {
	return schedule.ParseDate(t.FirstDueDate)
}

// Evaluate reports whether today is the creation date of one of the
// template's occurrences. See schedule.Evaluate for the walk semantics.
func (t Template) Evaluate(today time.Time) (*schedule.Occurrence, error) {
	firstDue, err := t.FirstDue()
	if err != nil {
		return nil, err
	}
	return schedule.Evaluate(firstDue, t.DaysBeforeDueDateToCreate, t.Recurrence, today)
}

// Client is one entry of the client collection, used only to resolve
// display names for the audit trail and calendar filters.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
