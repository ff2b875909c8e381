package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TaskRow is a task read back from the store, joined with its cdata.
type TaskRow struct {
	ID           int64
	Number       int64
	DepartmentID int64
	StaffID      int64
	TeamID       int64
	Flags        int64
	DueDate      string
	Created      string
	Title        string
	Description  string
}

// Open reports whether the task's open flag is set.
func (t TaskRow) Open() bool { return t.Flags&flagOpen != 0 }

// GetTask reads one task and its linked title/description by id.
func (s *Store) GetTask(ctx context.Context, id int64) (*TaskRow, error) {
	var row TaskRow
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.number, t.dept_id, t.staff_id, t.team_id, t.flags,
		       t.duedate, t.created, c.title, c.description
		FROM ost_task t
		JOIN ost_task__cdata c ON c.task_id = t.id
		WHERE t.id = ?
	`, id).Scan(
		&row.ID, &row.Number, &row.DepartmentID, &row.StaffID, &row.TeamID,
		&row.Flags, &row.DueDate, &row.Created, &row.Title, &row.Description,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &row, nil
}

// CountTasks returns the number of task rows. Used to verify rollback.
func (s *Store) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ost_task`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// OpenPastDue returns all open tasks whose due date is strictly before
// the given date, ordered by due date then id. The calendar projection
// merges these with the computed future markers.
func (s *Store) OpenPastDue(ctx context.Context, before time.Time) ([]TaskRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.number, t.dept_id, t.staff_id, t.team_id, t.flags,
		       t.duedate, t.created, c.title, c.description
		FROM ost_task t
		JOIN ost_task__cdata c ON c.task_id = t.id
		WHERE t.flags & ? != 0 AND t.duedate < ?
		ORDER BY t.duedate, t.id
	`, flagOpen, before.Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("open past due: %w", err)
	}
	defer rows.Close()

	var out []TaskRow
	for rows.Next() {
		var row TaskRow
		if err := rows.Scan(
			&row.ID, &row.Number, &row.DepartmentID, &row.StaffID, &row.TeamID,
			&row.Flags, &row.DueDate, &row.Created, &row.Title, &row.Description,
		); err != nil {
			return nil, fmt.Errorf("open past due: scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("open past due: %w", err)
	}
	return out, nil
}
