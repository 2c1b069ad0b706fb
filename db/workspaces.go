// ABOUTME: Database operations for workspaces and tags
// ABOUTME: Handles workspace CRUD and task tag attachment
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmccall/focal/models"
)

// CreateWorkspace inserts a new workspace.
func CreateWorkspace(db *sql.DB, ws *models.Workspace) error {
	if ws.ID == uuid.Nil {
		ws.ID = uuid.New()
	}
	now := time.Now().UTC()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO workspaces (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, ws.ID.String(), ws.Name, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}

// GetWorkspace retrieves a workspace by ID. Returns nil if not found.
func GetWorkspace(db *sql.DB, id uuid.UUID) (*models.Workspace, error) {
	var ws models.Workspace
	var idStr string

	err := db.QueryRow(`
		SELECT id, name, created_at, updated_at FROM workspaces WHERE id = ?
	`, id.String()).Scan(&idStr, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	ws.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace id %q: %w", idStr, err)
	}

	return &ws, nil
}

// FindWorkspaceByName returns the workspace with the given name, or nil.
func FindWorkspaceByName(db *sql.DB, name string) (*models.Workspace, error) {
	var idStr string

	err := db.QueryRow(`SELECT id FROM workspaces WHERE name = ?`, name).Scan(&idStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace id %q: %w", idStr, err)
	}

	return GetWorkspace(db, id)
}

// ListWorkspaces returns all workspaces ordered by name.
func ListWorkspaces(db *sql.DB) ([]*models.Workspace, error) {
	rows, err := db.Query(`SELECT id, name, created_at, updated_at FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		var ws models.Workspace
		var idStr string
		if err := rows.Scan(&idStr, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		ws.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid workspace id %q: %w", idStr, err)
		}
		workspaces = append(workspaces, &ws)
	}

	return workspaces, rows.Err()
}

// EnsureTag returns the tag with the given name, creating it if needed.
func EnsureTag(db *sql.DB, name string) (*models.Tag, error) {
	var tag models.Tag
	var idStr string

	err := db.QueryRow(`SELECT id, name, created_at FROM tags WHERE name = ?`, name).
		Scan(&idStr, &tag.Name, &tag.CreatedAt)
	if err == nil {
		tag.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid tag id %q: %w", idStr, err)
		}
		return &tag, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}

	tag = models.Tag{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	_, err = db.Exec(`INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`,
		tag.ID.String(), tag.Name, tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return &tag, nil
}

// TagTask attaches a tag to a task. Idempotent.
func TagTask(db *sql.DB, taskID, tagID uuid.UUID) error {
	_, err := db.Exec(`
		INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)
		ON CONFLICT(task_id, tag_id) DO NOTHING
	`, taskID.String(), tagID.String())
	if err != nil {
		return fmt.Errorf("failed to tag task: %w", err)
	}
	return nil
}

// UntagTask detaches a tag from a task.
func UntagTask(db *sql.DB, taskID, tagID uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?`,
		taskID.String(), tagID.String())
	if err != nil {
		return fmt.Errorf("failed to untag task: %w", err)
	}
	return nil
}

// TaskTags returns all tags attached to a task.
func TaskTags(db *sql.DB, taskID uuid.UUID) ([]*models.Tag, error) {
	rows, err := db.Query(`
		SELECT t.id, t.name, t.created_at
		FROM tags t
		JOIN task_tags tt ON tt.tag_id = t.id
		WHERE tt.task_id = ?
		ORDER BY t.name
	`, taskID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list task tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var tag models.Tag
		var idStr string
		if err := rows.Scan(&idStr, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tag.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid tag id %q: %w", idStr, err)
		}
		tags = append(tags, &tag)
	}

	return tags, rows.Err()
}
