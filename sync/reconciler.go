// ABOUTME: Task-to-event reconciliation state machine
// ABOUTME: Decides create/update/delete of the remote event and keeps the link current
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
)

// DefaultEventDuration is the length of the remote event created for a
// due date, which is a single instant on our side.
const DefaultEventDuration = 30 * time.Minute

// Reconciler brings a task's remote calendar event into agreement with
// its current due-date state.
type Reconciler struct {
	db            *sql.DB
	tokens        *TokenManager
	api           CalendarAPI
	eventDuration time.Duration
}

func NewReconciler(database *sql.DB, tokens *TokenManager, api CalendarAPI) *Reconciler {
	return &Reconciler{
		db:            database,
		tokens:        tokens,
		api:           api,
		eventDuration: DefaultEventDuration,
	}
}

// Intent computes the reconciliation decision for a task mutation.
// A nil after means the task was hard-deleted; a link then forces a
// delete regardless of due-date state.
func Intent(after *models.Task, hasLink bool) models.SyncIntent {
	if after == nil {
		if hasLink {
			return models.IntentDelete
		}
		return models.IntentNoop
	}

	switch {
	case after.HasDueDate() && !hasLink:
		return models.IntentCreate
	case after.HasDueDate() && hasLink:
		return models.IntentUpdate
	case hasLink:
		return models.IntentDelete
	default:
		return models.IntentNoop
	}
}

// Reconcile applies exactly one of create/update/delete/noop for the
// given before/after task states and returns the intent it acted on.
// A user with no calendar connection is a normal outcome: the intent is
// still reported but no remote call is made and no error returned.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, before, after *models.Task) (models.SyncIntent, error) {
	taskID := taskIdentity(before, after)
	if taskID == uuid.Nil {
		return models.IntentNoop, nil
	}

	link, err := db.GetLink(r.db, taskID)
	if err != nil {
		return models.IntentNoop, err
	}

	intent := Intent(after, link != nil)
	if intent == models.IntentNoop {
		return intent, nil
	}

	token, err := r.tokens.AccessToken(ctx, userID)
	if errors.Is(err, ErrNotConnected) {
		// No connection on file. A leftover link can only be local
		// residue, so clear it and move on.
		if intent == models.IntentDelete {
			return intent, db.DeleteLink(r.db, taskID)
		}
		return intent, nil
	}
	if err != nil {
		return intent, err
	}

	switch intent {
	case models.IntentCreate:
		return intent, r.createEvent(ctx, token, taskID, after)
	case models.IntentUpdate:
		return intent, r.updateEvent(ctx, token, taskID, after, link)
	default:
		return intent, r.deleteEvent(ctx, token, taskID, link)
	}
}

func (r *Reconciler) createEvent(ctx context.Context, token string, taskID uuid.UUID, task *models.Task) error {
	eventID, err := r.api.InsertEvent(ctx, token, PrimaryCalendarID, r.payload(task))
	if err != nil {
		return fmt.Errorf("%w: insert rejected: %v", ErrSyncFailed, err)
	}

	return db.UpsertLink(r.db, &models.TaskEventLink{
		TaskID:        taskID,
		RemoteEventID: eventID,
		CalendarID:    PrimaryCalendarID,
	})
}

func (r *Reconciler) updateEvent(ctx context.Context, token string, taskID uuid.UUID, task *models.Task, link *models.TaskEventLink) error {
	err := r.api.UpdateEvent(ctx, token, link.CalendarID, link.RemoteEventID, r.payload(task))
	if err == nil {
		return nil
	}

	// The event was deleted on the remote side out of band. Self-heal by
	// inserting a fresh event and replacing the link.
	if errors.Is(err, ErrEventNotFound) {
		return r.createEvent(ctx, token, taskID, task)
	}

	return fmt.Errorf("%w: update rejected: %v", ErrSyncFailed, err)
}

func (r *Reconciler) deleteEvent(ctx context.Context, token string, taskID uuid.UUID, link *models.TaskEventLink) error {
	err := r.api.DeleteEvent(ctx, token, link.CalendarID, link.RemoteEventID)
	if err != nil && !errors.Is(err, ErrEventNotFound) {
		return fmt.Errorf("%w: delete rejected: %v", ErrSyncFailed, err)
	}

	// Already-gone counts as deleted; the link goes either way.
	return db.DeleteLink(r.db, taskID)
}

func (r *Reconciler) payload(task *models.Task) EventPayload {
	start := task.DueDate.UTC()
	return EventPayload{
		Title:       task.Title,
		Description: task.Description,
		Start:       start,
		End:         start.Add(r.eventDuration),
	}
}

func taskIdentity(before, after *models.Task) uuid.UUID {
	if after != nil {
		return after.ID
	}
	if before != nil {
		return before.ID
	}
	return uuid.Nil
}
