// Package calendar is the read-only projection of template schedules for
// display: future due and creation markers computed from the recurrence
// rules, merged with currently open past-due tasks from the store. It
// materializes nothing and holds no cross-request state, so it is safe
// to invoke from many simultaneous display requests.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
	"github.com/chstech1/osTicket-Task-Creator/internal/store"
	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

// projectionCeiling bounds the per-template walk. Unlike the evaluator's
// ceiling this one is small: a display window never needs more than a
// few hundred occurrences, and a degenerate rule simply stops emitting.
const projectionCeiling = 1000

// Layer tags what an event marker represents.
type Layer string

const (
	LayerFutureDue      Layer = "futureDue"
	LayerFutureCreation Layer = "futureCreation"
	LayerOpenPastDue    Layer = "openPastDue"
)

// Event is one calendar marker.
type Event struct {
	Date       string `json:"date"`
	Layer      Layer  `json:"layer"`
	Title      string `json:"title"`
	TemplateID string `json:"templateId,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
	TaskID     int64  `json:"taskId,omitempty"`
	Number     int64  `json:"number,omitempty"`
}

// Filters restricts the projection. Zero values mean no restriction.
type Filters struct {
	ClientID     string
	AssigneeType template.AssigneeType
	AssigneeID   int64
}

func (f Filters) matchTemplate(tpl template.Template) bool {
	if f.ClientID != "" && tpl.ClientID != f.ClientID {
		return false
	}
	if f.AssigneeType != "" {
		if tpl.Assignee.Type != f.AssigneeType || tpl.Assignee.ID != f.AssigneeID {
			return false
		}
	}
	return true
}

func (f Filters) matchTask(row store.TaskRow) bool {
	switch f.AssigneeType {
	case template.AssigneeStaff:
		return row.StaffID == f.AssigneeID
	case template.AssigneeTeam:
		return row.TeamID == f.AssigneeID
	}
	return true
}

// Projector computes calendar projections. The store handle is optional;
// with a nil store the projection contains only computed markers.
type Projector struct {
	store *store.Store
}

// New creates a Projector. st may be nil.
func New(st *store.Store) *Projector {
	return &Projector{store: st}
}

// Project emits every due and creation marker inside [start, end] for the
// given templates, clipped and filtered, followed by the open past-due
// task markers as of today. Events are ascending within each template's
// own sequence; no ordering is guaranteed across templates. Calling
// Project twice with identical arguments over an unchanged template set
// yields an identical event sequence.
func (p *Projector) Project(ctx context.Context, templates []template.Template, start, end, today time.Time, filters Filters) ([]Event, error) {
	start = schedule.Truncate(start)
	end = schedule.Truncate(end)
	today = schedule.Truncate(today)

	var events []Event
	for _, tpl := range templates {
		if !filters.matchTemplate(tpl) {
			continue
		}
		events = append(events, projectTemplate(tpl, start, end)...)
	}

	if p.store != nil {
		rows, err := p.store.OpenPastDue(ctx, today)
		if err != nil {
			return nil, fmt.Errorf("project: %w", err)
		}
		for _, row := range rows {
			if !filters.matchTask(row) {
				continue
			}
			events = append(events, Event{
				Date:   row.DueDate,
				Layer:  LayerOpenPastDue,
				Title:  row.Title,
				TaskID: row.ID,
				Number: row.Number,
			})
		}
	}

	return events, nil
}

// projectTemplate walks one template's occurrence sequence and collects
// the markers falling inside the window, ascending by date.
func projectTemplate(tpl template.Template, start, end time.Time) []Event {
	firstDue, err := tpl.FirstDue()
	if err != nil {
		return nil
	}
	due := schedule.Anchor(firstDue, tpl.Recurrence)
	lead := tpl.DaysBeforeDueDateToCreate
	if lead < 0 {
		lead = 0
	}

	var events []Event
	for i := 0; i < projectionCeiling; i++ {
		creation := due.AddDate(0, 0, -lead)
		if creation.After(end) && due.After(end) {
			break
		}
		if inWindow(creation, start, end) {
			events = append(events, marker(tpl, creation, LayerFutureCreation))
		}
		if inWindow(due, start, end) {
			events = append(events, marker(tpl, due, LayerFutureDue))
		}

		next, ok := schedule.Next(due, tpl.Recurrence)
		if !ok || !next.After(due) {
			break
		}
		due = next
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	return events
}

func marker(tpl template.Template, date time.Time, layer Layer) Event {
	return Event{
		Date:       schedule.FormatDate(date),
		Layer:      layer,
		Title:      tpl.Title,
		TemplateID: tpl.ID,
		ClientID:   tpl.ClientID,
	}
}

func inWindow(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}
