package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chstech1/osTicket-Task-Creator/internal/audit"
	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
	"github.com/chstech1/osTicket-Task-Creator/internal/store"
)

// writeTemplates writes a data dir whose single daily template matches
// today (creation date == due date == today).
func writeTemplates(t *testing.T, dir string) {
	t.Helper()
	today := schedule.FormatDate(schedule.Truncate(time.Now()))
	templates := fmt.Sprintf(`[{
		"id": "tpl-cli",
		"title": "CLI smoke task",
		"departmentId": 1,
		"firstDueDate": %q,
		"daysBeforeDueDateToCreate": 0,
		"recurrence": {"type": "daily", "daily": {"intervalDays": 1}}
	}]`, today)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates.json"), []byte(templates), 0o644))
}

func execute(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand_CreatesTaskAndAudits(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir)
	dbPath := filepath.Join(dir, "osticket.db")
	auditPath := filepath.Join(dir, "created-tasks.json")

	out, err := execute(t, "run", "--db", dbPath, "--data", dir, "--audit", auditPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 matched, 1 created, 0 failed")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.CountTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := audit.NewRecorder(auditPath).Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tpl-cli", records[0].TemplateID)
}

func TestRunCommand_VerboseTracesSQL(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir)

	out, err := execute(t, "run", "-v",
		"--db", filepath.Join(dir, "osticket.db"),
		"--data", dir,
		"--audit", filepath.Join(dir, "created-tasks.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "sql> ")
	assert.Contains(t, out, "INSERT INTO ost_task")
}

func TestRunCommand_FailedMaterializationExitsOne(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir)
	dbPath := filepath.Join(dir, "osticket.db")

	// Break the store so the matched template fails to materialize. The
	// replacement table survives the schema re-apply on the next open but
	// lacks the columns the thread insert needs.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().Exec(`DROP TABLE ost_thread`)
	require.NoError(t, err)
	_, err = st.DB().Exec(`CREATE TABLE ost_thread (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "run", "--db", dbPath, "--data", dir,
		"--audit", filepath.Join(dir, "created-tasks.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAILED tpl-cli")
}

func TestRunCommand_MissingDataDirIsCommandError(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run",
		"--db", filepath.Join(dir, "osticket.db"),
		"--data", filepath.Join(dir, "nope"),
		"--audit", filepath.Join(dir, "created-tasks.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_UnknownProfileIsCommandError(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir)
	_, err := execute(t, "run", "--db", filepath.Join(dir, "db"),
		"--data", dir, "--profile", "legacy")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCalendarCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	templates := `[{
		"id": "tpl-cal",
		"title": "Window task",
		"departmentId": 1,
		"firstDueDate": "2024-01-10",
		"daysBeforeDueDateToCreate": 2,
		"recurrence": {"type": "daily", "daily": {"intervalDays": 10}}
	}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates.json"), []byte(templates), 0o644))

	out, err := execute(t, "calendar", "--format", "json",
		"--db", filepath.Join(dir, "osticket.db"),
		"--data", dir,
		"--from", "2024-01-15", "--to", "2024-01-25")
	require.NoError(t, err)

	var events []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "2024-01-18", events[0]["date"])
	assert.Equal(t, "futureCreation", events[0]["layer"])
	assert.Equal(t, "2024-01-20", events[1]["date"])
}

func TestCalendarCommand_RejectsInvertedWindow(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir)
	_, err := execute(t, "calendar",
		"--db", filepath.Join(dir, "osticket.db"), "--data", dir,
		"--from", "2024-02-01", "--to", "2024-01-01")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	templates := `[
		{
			"id": "good",
			"title": "Good",
			"departmentId": 1,
			"firstDueDate": "2024-01-10",
			"daysBeforeDueDateToCreate": 0,
			"recurrence": {"type": "daily"}
		},
		{"id": "bad", "title": ""}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates.json"), []byte(templates), 0o644))

	out, err := execute(t, "validate", "--data", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1 valid, 1 invalid")
}

func TestValidateCommand_AllValid(t *testing.T) {
	dir := t.TempDir()
	writeTemplates(t, dir)

	out, err := execute(t, "validate", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 valid, 0 invalid")
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "validate", "--format", "xml")
	require.Error(t, err)
}
