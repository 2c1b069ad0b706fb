// ABOUTME: Database operations for tasks
// ABOUTME: Handles task CRUD with due-date and status tracking
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmccall/focal/models"
)

// CreateTask inserts a new task. Generates an ID and timestamps if unset.
func CreateTask(db *sql.DB, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO tasks (id, workspace_id, title, description, status, due_date, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID.String(), task.WorkspaceID.String(), task.Title, task.Description,
		task.Status, nullTime(task.DueDate), nullTime(task.CompletedAt), task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID. Returns nil if not found.
func GetTask(db *sql.DB, id uuid.UUID) (*models.Task, error) {
	row := db.QueryRow(`
		SELECT id, workspace_id, title, description, status, due_date, completed_at, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id.String())

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// UpdateTask persists all mutable task fields.
func UpdateTask(db *sql.DB, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	result, err := db.Exec(`
		UPDATE tasks
		SET title = ?, description = ?, status = ?, due_date = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, task.Title, task.Description, task.Status, nullTime(task.DueDate),
		nullTime(task.CompletedAt), task.UpdatedAt, task.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s not found", task.ID)
	}

	return nil
}

// DeleteTask removes a task row. Notes and tag attachments cascade.
func DeleteTask(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM tasks WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ListTasks returns tasks, optionally filtered by workspace and status.
func ListTasks(db *sql.DB, workspaceID *uuid.UUID, status string, limit int) ([]*models.Task, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, workspace_id, title, description, status, due_date, completed_at, created_at, updated_at
		FROM tasks
		WHERE 1=1
	`
	args := []interface{}{}

	if workspaceID != nil {
		query += " AND workspace_id = ?"
		args = append(args, workspaceID.String())
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY due_date IS NULL, due_date ASC, created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var idStr, workspaceIDStr string
	var description sql.NullString
	var dueDate, completedAt sql.NullTime

	err := row.Scan(&idStr, &workspaceIDStr, &task.Title, &description, &task.Status,
		&dueDate, &completedAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	task.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", idStr, err)
	}
	task.WorkspaceID, err = uuid.Parse(workspaceIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace id %q: %w", workspaceIDStr, err)
	}

	if description.Valid {
		task.Description = description.String
	}
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	return &task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
