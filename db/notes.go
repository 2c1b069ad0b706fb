// ABOUTME: Database operations for task notes
// ABOUTME: Handles note CRUD scoped to a parent task
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmccall/focal/models"
)

// CreateNote inserts a new note for a task.
func CreateNote(db *sql.DB, note *models.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO notes (id, task_id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, note.ID.String(), note.TaskID.String(), note.Body, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// UpdateNote replaces a note's body.
func UpdateNote(db *sql.DB, noteID uuid.UUID, body string) error {
	result, err := db.Exec(`
		UPDATE notes SET body = ?, updated_at = ? WHERE id = ?
	`, body, time.Now().UTC(), noteID.String())
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("note %s not found", noteID)
	}

	return nil
}

// DeleteNote removes a note.
func DeleteNote(db *sql.DB, noteID uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM notes WHERE id = ?`, noteID.String())
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// ListNotes returns all notes for a task, newest first.
func ListNotes(db *sql.DB, taskID uuid.UUID) ([]*models.Note, error) {
	rows, err := db.Query(`
		SELECT id, task_id, body, created_at, updated_at
		FROM notes
		WHERE task_id = ?
		ORDER BY created_at DESC
	`, taskID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		var note models.Note
		var idStr, taskIDStr string
		if err := rows.Scan(&idStr, &taskIDStr, &note.Body, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		note.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid note id %q: %w", idStr, err)
		}
		note.TaskID, err = uuid.Parse(taskIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q: %w", taskIDStr, err)
		}
		notes = append(notes, &note)
	}

	return notes, rows.Err()
}
