package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

// Timestamp format and object-type discriminators used by the store.
const (
	timestampLayout = "2006-01-02 15:04:05"

	objectTypeTask        = "A" // task object graph
	objectTypeThreadEntry = "H" // searchable thread entry

	// taskFormID is the form the forms profile files task submissions
	// under; field 1 is the title, field 2 the description.
	taskFormID       = 1
	formFieldTitle   = 1
	formFieldContent = 2

	// flagOpen marks a task as open on ost_task.flags.
	flagOpen = 1
)

// MaterializedTask is the data actually written for one occurrence. It is
// returned to the caller and copied verbatim into the audit record.
type MaterializedTask struct {
	TaskID       int64  `json:"taskId"`
	Number       int64  `json:"number"`
	ThreadID     int64  `json:"threadId"`
	DepartmentID int64  `json:"departmentId"`
	StaffID      int64  `json:"staffId,omitempty"`
	TeamID       int64  `json:"teamId,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	DueDate      string `json:"dueDate"`
	Created      string `json:"created"`
}

// Materialize turns one matched occurrence into a persisted task. One
// transaction covers the whole object graph: sequence allocation, task
// row, cdata row, optional form entry, thread with opening entry, search
// index, lifecycle events, and the assignment write-back for staff
// assignees. Any step failing rolls the whole transaction back and the
// connection is released on every exit path, including panic.
//
// NOT idempotent: a second call for the same occurrence allocates a new
// sequence number and creates a second task.
func (s *Store) Materialize(ctx context.Context, tpl template.Template, due, creation time.Time) (*MaterializedTask, error) {
	// Fail fast before writing anything when connectivity is degraded.
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeUnavailable, Op: "begin tx", Err: err}
	}
	// No-op after commit; releases the connection on failure and panic.
	defer tx.Rollback()

	now := creation.Format(timestampLayout)

	// Step 1: allocate the sequence number. The UPDATE takes the write
	// lock on the counter row, so concurrent materializers serialize here
	// and numbers are gap-free and monotonic.
	number, err := s.nextSequence(ctx, tx)
	if err != nil {
		return nil, err
	}

	// Step 2: the task row. Team assignment lands on the insert; staff
	// assignment is applied as a write-back in step 8.
	var teamID int64
	if tpl.Assignee.IsTeam() {
		teamID = tpl.Assignee.ID
	}
	res, err := s.exec(ctx, tx, `
		INSERT INTO ost_task
		(number, dept_id, staff_id, team_id, flags, duedate, created, updated)
		VALUES (?, ?, 0, ?, ?, ?, ?, ?)
	`, number, tpl.DepartmentID, teamID, flagOpen, due.Format(timestampLayout), now, now)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeMaterialization, Op: "insert task", Err: err}
	}
	taskID, err := res.LastInsertId()
	if err != nil {
		return nil, &StoreError{Code: ErrCodeMaterialization, Op: "task id", Err: err}
	}

	// Step 3: linked title/description record.
	_, err = s.exec(ctx, tx, `
		INSERT INTO ost_task__cdata (task_id, title, description)
		VALUES (?, ?, ?)
	`, taskID, tpl.Title, tpl.Description)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeMaterialization, Op: "insert cdata", Err: err}
	}

	// Step 4: form submission records, forms profile only.
	if s.profile == ProfileForms {
		if err := s.insertFormEntry(ctx, tx, taskID, tpl, now); err != nil {
			return nil, err
		}
	}

	// Step 5: discussion thread with the template's title/description as
	// its opening entry, attributed to the resolved assignee.
	poster, posterStaffID := s.resolvePoster(ctx, tx, tpl.Assignee)
	threadID, entryID, err := s.insertThread(ctx, tx, taskID, tpl, poster, posterStaffID, now)
	if err != nil {
		return nil, err
	}

	// Step 6: index the opening entry's searchable text.
	_, err = s.exec(ctx, tx, `
		INSERT INTO ost__search (object_type, object_id, title, content)
		VALUES (?, ?, ?, ?)
	`, objectTypeThreadEntry, entryID, tpl.Title, tpl.Description)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeMaterialization, Op: "index entry", Err: err}
	}

	// Step 7: lifecycle events for audit visibility within the store.
	if err := s.insertEvents(ctx, tx, threadID, tpl.Assignee, poster, posterStaffID, now); err != nil {
		return nil, err
	}

	// Step 8: apply staff assignment back onto the task row.
	var staffID int64
	if tpl.Assignee.IsStaff() {
		staffID = tpl.Assignee.ID
		_, err = s.exec(ctx, tx, `
			UPDATE ost_task SET staff_id = ?, updated = ? WHERE id = ?
		`, staffID, now, taskID)
		if err != nil {
			return nil, &StoreError{Code: ErrCodeMaterialization, Op: "apply assignment", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &StoreError{Code: ErrCodeMaterialization, Op: "commit", Err: err}
	}

	return &MaterializedTask{
		TaskID:       taskID,
		Number:       number,
		ThreadID:     threadID,
		DepartmentID: tpl.DepartmentID,
		StaffID:      staffID,
		TeamID:       teamID,
		Title:        tpl.Title,
		Description:  tpl.Description,
		DueDate:      due.Format(timestampLayout),
		Created:      now,
	}, nil
}

// nextSequence advances the counter and returns the allocated number.
func (s *Store) nextSequence(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := s.exec(ctx, tx, `UPDATE ost_sequence SET next = next + 1 WHERE id = 1`)
	if err != nil {
		return 0, &StoreError{Code: ErrCodeMaterialization, Op: "advance sequence", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Code: ErrCodeMaterialization, Op: "advance sequence", Err: err}
	}
	if affected == 0 {
		return 0, &StoreError{Code: ErrCodeSequenceMissing, Op: "advance sequence"}
	}

	var next int64
	err = s.queryRow(ctx, tx, `SELECT next FROM ost_sequence WHERE id = 1`).Scan(&next)
	if err != nil {
		return 0, &StoreError{Code: ErrCodeMaterialization, Op: "read sequence", Err: err}
	}
	return next - 1, nil
}

// insertFormEntry writes the form submission and its field values.
func (s *Store) insertFormEntry(ctx context.Context, tx *sql.Tx, taskID int64, tpl template.Template, now string) error {
	res, err := s.exec(ctx, tx, `
		INSERT INTO ost_form_entry (form_id, object_id, object_type, created, updated)
		VALUES (?, ?, ?, ?, ?)
	`, taskFormID, taskID, objectTypeTask, now, now)
	if err != nil {
		return &StoreError{Code: ErrCodeMaterialization, Op: "insert form entry", Err: err}
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return &StoreError{Code: ErrCodeMaterialization, Op: "form entry id", Err: err}
	}

	values := []struct {
		fieldID int
		value   string
	}{
		{formFieldTitle, tpl.Title},
		{formFieldContent, tpl.Description},
	}
	for _, v := range values {
		_, err := s.exec(ctx, tx, `
			INSERT INTO ost_form_entry_values (entry_id, field_id, value)
			VALUES (?, ?, ?)
		`, entryID, v.fieldID, v.value)
		if err != nil {
			return &StoreError{Code: ErrCodeMaterialization, Op: "insert form value", Err: err}
		}
	}
	return nil
}

// insertThread creates the thread and posts the opening entry.
func (s *Store) insertThread(ctx context.Context, tx *sql.Tx, taskID int64, tpl template.Template, poster string, posterStaffID int64, now string) (threadID, entryID int64, err error) {
	res, err := s.exec(ctx, tx, `
		INSERT INTO ost_thread (object_id, object_type, created)
		VALUES (?, ?, ?)
	`, taskID, objectTypeTask, now)
	if err != nil {
		return 0, 0, &StoreError{Code: ErrCodeMaterialization, Op: "insert thread", Err: err}
	}
	threadID, err = res.LastInsertId()
	if err != nil {
		return 0, 0, &StoreError{Code: ErrCodeMaterialization, Op: "thread id", Err: err}
	}

	res, err = s.exec(ctx, tx, `
		INSERT INTO ost_thread_entry (thread_id, staff_id, poster, title, body, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, threadID, posterStaffID, poster, tpl.Title, tpl.Description, now, now)
	if err != nil {
		return 0, 0, &StoreError{Code: ErrCodeMaterialization, Op: "insert thread entry", Err: err}
	}
	entryID, err = res.LastInsertId()
	if err != nil {
		return 0, 0, &StoreError{Code: ErrCodeMaterialization, Op: "thread entry id", Err: err}
	}
	return threadID, entryID, nil
}

// insertEvents records the creation and, when assigned, assignment events.
func (s *Store) insertEvents(ctx context.Context, tx *sql.Tx, threadID int64, assignee template.Assignee, poster string, posterStaffID int64, now string) error {
	_, err := s.exec(ctx, tx, `
		INSERT INTO ost_thread_event (thread_id, staff_id, state, data, username, timestamp)
		VALUES (?, ?, 'created', NULL, ?, ?)
	`, threadID, posterStaffID, poster, now)
	if err != nil {
		return &StoreError{Code: ErrCodeMaterialization, Op: "event created", Err: err}
	}

	if !assignee.IsStaff() && !assignee.IsTeam() {
		return nil
	}
	data := fmt.Sprintf(`{"staff":%d}`, assignee.ID)
	if assignee.IsTeam() {
		data = fmt.Sprintf(`{"team":%d}`, assignee.ID)
	}
	_, err = s.exec(ctx, tx, `
		INSERT INTO ost_thread_event (thread_id, staff_id, state, data, username, timestamp)
		VALUES (?, ?, 'assigned', ?, ?, ?)
	`, threadID, posterStaffID, data, poster, now)
	if err != nil {
		return &StoreError{Code: ErrCodeMaterialization, Op: "event assigned", Err: err}
	}
	return nil
}

// resolvePoster looks up the staff assignee's display name for thread
// attribution, falling back to the system identity when the assignee is
// not an individual staff member or has no directory row.
func (s *Store) resolvePoster(ctx context.Context, tx *sql.Tx, assignee template.Assignee) (poster string, staffID int64) {
	if !assignee.IsStaff() {
		return s.systemIdentity, 0
	}
	var first, last string
	err := s.queryRow(ctx, tx, `
		SELECT firstname, lastname FROM ost_staff WHERE staff_id = ?
	`, assignee.ID).Scan(&first, &last)
	if err != nil {
		// Includes sql.ErrNoRows: an assignee with no directory row posts
		// as the system identity.
		return s.systemIdentity, 0
	}
	return first + " " + last, assignee.ID
}
