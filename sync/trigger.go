// ABOUTME: Fire-and-forget sync trigger for task mutations
// ABOUTME: Runs one reconciliation per mutation off the request path, logging failures
package sync

import (
	"context"
	"log"
	stdsync "sync"

	"github.com/tmccall/focal/models"
)

// Trigger observes task mutations and submits one reconciliation attempt
// each, asynchronously. The mutation is acknowledged to its caller
// independent of sync outcome; failures are logged, never propagated,
// and never retried.
type Trigger struct {
	reconciler *Reconciler
	wg         stdsync.WaitGroup
}

func NewTrigger(reconciler *Reconciler) *Trigger {
	return &Trigger{reconciler: reconciler}
}

// TaskChanged schedules reconciliation for one mutation. before is nil
// on create, after is nil on hard delete.
func (t *Trigger) TaskChanged(userID string, before, after *models.Task) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		intent, err := t.reconciler.Reconcile(context.Background(), userID, before, after)
		if err != nil {
			log.Printf("calendar sync (%s) failed for task %s: %v", intent, taskIdentity(before, after), err)
		}
	}()
}

// Flush waits for all in-flight reconciliations. Used on shutdown and in
// tests; request paths never call it.
func (t *Trigger) Flush() {
	t.wg.Wait()
}
