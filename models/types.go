// ABOUTME: Data models for tasks, workspaces, notes, and calendar sync
// ABOUTME: Defines Task, Workspace, Tag, Note, CalendarCredential, and TaskEventLink structs
package models

import (
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasDueDate reports whether the task carries a due date.
func (t *Task) HasDueDate() bool {
	return t != nil && t.DueDate != nil
}

type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Body      string    `json:"body"` // markdown
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// CalendarCredential holds one user's OAuth tokens for the external
// calendar account. The access token is valid only while now < ExpiresAt;
// the refresh token never expires from our side.
type CalendarCredential struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token is past its expiry.
func (c *CalendarCredential) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TaskEventLink is the cross-reference between a local task and the
// remote calendar event representing it. At most one active link exists
// per task.
type TaskEventLink struct {
	TaskID        uuid.UUID `json:"task_id"`
	RemoteEventID string    `json:"remote_event_id"`
	CalendarID    string    `json:"calendar_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RemoteCalendar is a read-only projection of one provider calendar.
// Not persisted locally.
type RemoteCalendar struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

// RemoteEvent is one event as fetched from the provider. Identity for
// deduplication is ID alone; the provider guarantees event-id uniqueness
// per account.
type RemoteEvent struct {
	ID          string    `json:"id"`
	CalendarID  string    `json:"calendar_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
}

// BusyInterval is one busy span from a free/busy query.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SyncIntent is the reconciliation decision for one task mutation.
type SyncIntent int

const (
	IntentNoop SyncIntent = iota
	IntentCreate
	IntentUpdate
	IntentDelete
)

func (i SyncIntent) String() string {
	switch i {
	case IntentCreate:
		return "create"
	case IntentUpdate:
		return "update"
	case IntentDelete:
		return "delete"
	default:
		return "noop"
	}
}
