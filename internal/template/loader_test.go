package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
)

const validTemplateJSON = `{
	"id": "tpl-1",
	"title": "Monthly report",
	"description": "Prepare the monthly report",
	"clientId": "c-1",
	"departmentId": 2,
	"assignee": {"type": "staff", "id": 7},
	"firstDueDate": "2024-01-10",
	"daysBeforeDueDateToCreate": 2,
	"recurrence": {"type": "monthly", "monthly": {"intervalMonths": 1, "dayOfMonth": 10}}
}`

func writeDataDir(t *testing.T, templates, clients string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplatesFile), []byte(templates), 0o644))
	if clients != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ClientsFile), []byte(clients), 0o644))
	}
	return dir
}

func TestLoadDir_Valid(t *testing.T) {
	dir := writeDataDir(t, "["+validTemplateJSON+"]", `[{"id":"c-1","name":"Acme Corp"}]`)

	result, errs := LoadDir(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.Len(t, result.Templates, 1)

	tpl := result.Templates[0]
	assert.Equal(t, "tpl-1", tpl.ID)
	assert.Equal(t, int64(2), tpl.DepartmentID)
	assert.True(t, tpl.Assignee.IsStaff())
	assert.Equal(t, schedule.RuleMonthly, tpl.Recurrence.Type)
	require.NotNil(t, tpl.Recurrence.Monthly)
	assert.Equal(t, 10, tpl.Recurrence.Monthly.DayOfMonth)

	firstDue, err := tpl.FirstDue()
	require.NoError(t, err)
	assert.Equal(t, schedule.Date(2024, 1, 10), firstDue)

	assert.Equal(t, "Acme Corp", result.ClientName("c-1"))
	assert.Equal(t, "", result.ClientName("unknown"))
}

func TestLoadDir_InvalidTemplateExcluded(t *testing.T) {
	// Second template has a bad recurrence type; the first still loads.
	bad := `{
		"id": "tpl-2",
		"title": "Broken",
		"departmentId": 1,
		"firstDueDate": "2024-01-10",
		"daysBeforeDueDateToCreate": 0,
		"recurrence": {"type": "fortnightly"}
	}`
	dir := writeDataDir(t, "["+validTemplateJSON+","+bad+"]", "")

	result, errs := LoadDir(dir, LoadModeCollectAll)
	require.Len(t, errs, 1)
	assert.Len(t, result.Templates, 1)
	assert.Equal(t, 1, result.Excluded)

	var lerr *LoadError
	require.ErrorAs(t, errs[0], &lerr)
	assert.Equal(t, ErrCodeSchema, lerr.Code)
}

func TestLoadDir_FailFastStopsAtFirstError(t *testing.T) {
	bad := `{"id": "", "title": ""}`
	dir := writeDataDir(t, "["+bad+","+validTemplateJSON+"]", "")

	result, errs := LoadDir(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Empty(t, result.Templates)
}

func TestLoadDir_MissingTemplatesFile(t *testing.T) {
	result, errs := LoadDir(t.TempDir(), LoadModeCollectAll)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var lerr *LoadError
	require.ErrorAs(t, errs[0], &lerr)
	assert.Equal(t, ErrCodeNotFound, lerr.Code)
}

func TestLoadDir_MalformedTemplatesFile(t *testing.T) {
	dir := writeDataDir(t, `{"not": "an array"}`, "")

	result, errs := LoadDir(dir, LoadModeCollectAll)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var lerr *LoadError
	require.ErrorAs(t, errs[0], &lerr)
	assert.Equal(t, ErrCodeParse, lerr.Code)
}

func TestLoadDir_MissingClientsFileIsFine(t *testing.T) {
	dir := writeDataDir(t, "["+validTemplateJSON+"]", "")

	result, errs := LoadDir(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, "", result.ClientName("c-1"))
}
