package calendar

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
	"github.com/chstech1/osTicket-Task-Creator/internal/store"
	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

func reportTemplate() template.Template {
	return template.Template{
		ID:                        "tpl-a",
		Title:                     "Report A",
		ClientID:                  "c-1",
		DepartmentID:              1,
		FirstDueDate:              "2024-01-10",
		DaysBeforeDueDateToCreate: 2,
		Recurrence: schedule.Recurrence{
			Type:  schedule.RuleDaily,
			Daily: &schedule.DailyParams{IntervalDays: 10},
		},
	}
}

func quarterlyTemplate() template.Template {
	return template.Template{
		ID:           "tpl-b",
		Title:        "Quarterly review",
		DepartmentID: 1,
		FirstDueDate: "2024-02-15",
		Recurrence:   schedule.Recurrence{Type: schedule.RuleQuarterly},
	}
}

func TestProject_WindowClippingAndLayers(t *testing.T) {
	p := New(nil)
	events, err := p.Project(context.Background(),
		[]template.Template{reportTemplate()},
		schedule.Date(2024, 1, 15), schedule.Date(2024, 1, 25),
		schedule.Date(2024, 1, 15), Filters{})
	require.NoError(t, err)

	// Only the occurrence due 2024-01-20 (creation 2024-01-18) falls in
	// the window.
	require.Len(t, events, 2)
	assert.Equal(t, "2024-01-18", events[0].Date)
	assert.Equal(t, LayerFutureCreation, events[0].Layer)
	assert.Equal(t, "2024-01-20", events[1].Date)
	assert.Equal(t, LayerFutureDue, events[1].Layer)
}

func TestProject_AscendingWithinTemplate(t *testing.T) {
	p := New(nil)
	events, err := p.Project(context.Background(),
		[]template.Template{reportTemplate()},
		schedule.Date(2024, 1, 1), schedule.Date(2024, 6, 30),
		schedule.Date(2024, 1, 1), Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i-1].Date, events[i].Date)
	}
}

func TestProject_Idempotent(t *testing.T) {
	p := New(nil)
	tpls := []template.Template{reportTemplate(), quarterlyTemplate()}
	start, end, today := schedule.Date(2024, 1, 1), schedule.Date(2024, 4, 30), schedule.Date(2024, 1, 1)

	first, err := p.Project(context.Background(), tpls, start, end, today, Filters{})
	require.NoError(t, err)
	second, err := p.Project(context.Background(), tpls, start, end, today, Filters{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProject_ClientFilter(t *testing.T) {
	p := New(nil)
	tpls := []template.Template{reportTemplate(), quarterlyTemplate()}

	events, err := p.Project(context.Background(), tpls,
		schedule.Date(2024, 1, 1), schedule.Date(2024, 4, 30),
		schedule.Date(2024, 1, 1), Filters{ClientID: "c-1"})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, "tpl-a", ev.TemplateID)
	}
}

func TestProject_AssigneeFilter(t *testing.T) {
	assigned := reportTemplate()
	assigned.Assignee = template.Assignee{Type: template.AssigneeStaff, ID: 7}

	p := New(nil)
	events, err := p.Project(context.Background(),
		[]template.Template{assigned, quarterlyTemplate()},
		schedule.Date(2024, 1, 1), schedule.Date(2024, 4, 30),
		schedule.Date(2024, 1, 1),
		Filters{AssigneeType: template.AssigneeStaff, AssigneeID: 7})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, "tpl-a", ev.TemplateID)
	}
}

func TestProject_MergesOpenPastDueFromStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	// One overdue open task sits in the store.
	tpl := reportTemplate()
	_, err = st.Materialize(context.Background(), tpl,
		schedule.Date(2024, 1, 5), schedule.Date(2024, 1, 3))
	require.NoError(t, err)

	p := New(st)
	events, err := p.Project(context.Background(), nil,
		schedule.Date(2024, 1, 10), schedule.Date(2024, 1, 31),
		schedule.Date(2024, 1, 15), Filters{})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, LayerOpenPastDue, events[0].Layer)
	assert.Equal(t, "Report A", events[0].Title)
	assert.NotZero(t, events[0].TaskID)
}

func TestProject_Golden(t *testing.T) {
	p := New(nil)
	events, err := p.Project(context.Background(),
		[]template.Template{reportTemplate(), quarterlyTemplate()},
		schedule.Date(2024, 1, 1), schedule.Date(2024, 2, 28),
		schedule.Date(2024, 1, 1), Filters{})
	require.NoError(t, err)

	data, err := json.MarshalIndent(events, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "projection", data)
}
