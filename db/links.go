// ABOUTME: Database operations for task-event cross-references
// ABOUTME: Manages the one-link-per-task mapping to remote calendar events
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tmccall/focal/models"
)

// GetLink retrieves the event link for a task. Returns nil when the task
// has no synced remote event.
func GetLink(db *sql.DB, taskID uuid.UUID) (*models.TaskEventLink, error) {
	var link models.TaskEventLink
	var taskIDStr string

	err := db.QueryRow(`
		SELECT task_id, remote_event_id, calendar_id, created_at
		FROM task_event_links
		WHERE task_id = ?
	`, taskID.String()).Scan(&taskIDStr, &link.RemoteEventID, &link.CalendarID, &link.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	link.TaskID, err = uuid.Parse(taskIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", taskIDStr, err)
	}

	return &link, nil
}

// UpsertLink stores the event link for a task. The task_id primary key
// keeps at most one active link per task; a replaced link (self-heal)
// overwrites in place.
func UpsertLink(db *sql.DB, link *models.TaskEventLink) error {
	_, err := db.Exec(`
		INSERT INTO task_event_links (task_id, remote_event_id, calendar_id, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(task_id) DO UPDATE SET
			remote_event_id = excluded.remote_event_id,
			calendar_id = excluded.calendar_id
	`, link.TaskID.String(), link.RemoteEventID, link.CalendarID)
	if err != nil {
		return fmt.Errorf("failed to upsert link: %w", err)
	}

	return nil
}

// DeleteLink removes the event link for a task. Deleting an absent link
// is not an error.
func DeleteLink(db *sql.DB, taskID uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM task_event_links WHERE task_id = ?`, taskID.String())
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}
