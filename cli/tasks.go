// ABOUTME: Task CLI commands
// ABOUTME: Human-friendly commands for adding, listing, completing, and removing tasks
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
	"github.com/tmccall/focal/sync"
)

// currentUser resolves the local user identity for CLI invocations.
func currentUser() string {
	if user := os.Getenv("FOCAL_USER"); user != "" {
		return user
	}
	return "local"
}

// oauthConfigOrEmpty loads the OAuth config from the environment. A
// missing config is fine for unconnected users: refresh only happens
// once a credential exists, and connecting requires the real config.
func oauthConfigOrEmpty() *oauth2.Config {
	config, err := sync.NewOAuthConfig()
	if err != nil {
		return &oauth2.Config{}
	}
	return config
}

// newTrigger wires the calendar sync pipeline for task commands.
func newTrigger(database *sql.DB) *sync.Trigger {
	tokens := sync.NewTokenManager(sync.NewDBTokenStore(database), sync.NewOAuthRefresher(oauthConfigOrEmpty()))
	return sync.NewTrigger(sync.NewReconciler(database, tokens, sync.NewGoogleCalendarAPI()))
}

// AddTaskCommand creates a new task, creating its workspace on demand.
func AddTaskCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "Task title (required)")
	description := fs.String("desc", "", "Task description")
	workspace := fs.String("workspace", "inbox", "Workspace name")
	due := fs.String("due", "", "Due date (RFC3339, e.g. 2025-05-01T10:00:00Z)")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	ws, err := db.FindWorkspaceByName(database, *workspace)
	if err != nil {
		return fmt.Errorf("failed to lookup workspace: %w", err)
	}
	if ws == nil {
		ws = &models.Workspace{Name: *workspace}
		if err := db.CreateWorkspace(database, ws); err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}
	}

	task := &models.Task{
		WorkspaceID: ws.ID,
		Title:       *title,
		Description: *description,
	}
	if *due != "" {
		dueDate, err := time.Parse(time.RFC3339, *due)
		if err != nil {
			return fmt.Errorf("--due must be RFC3339: %w", err)
		}
		task.DueDate = &dueDate
	}

	if err := db.CreateTask(database, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	trigger := newTrigger(database)
	trigger.TaskChanged(currentUser(), nil, task)
	trigger.Flush()

	fmt.Printf("✓ Task created: %s (ID: %s)\n", task.Title, task.ID)
	if task.DueDate != nil {
		fmt.Printf("  Due: %s\n", task.DueDate.Format(time.RFC3339))
	}
	fmt.Printf("  Workspace: %s\n", ws.Name)

	return nil
}

// ListTasksCommand lists tasks, optionally filtered by workspace or status.
func ListTasksCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	workspace := fs.String("workspace", "", "Filter by workspace name")
	status := fs.String("status", "", "Filter by status (todo, in_progress, done)")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	var workspaceID *uuid.UUID
	if *workspace != "" {
		ws, err := db.FindWorkspaceByName(database, *workspace)
		if err != nil {
			return fmt.Errorf("failed to lookup workspace: %w", err)
		}
		if ws == nil {
			fmt.Println("No tasks found")
			return nil
		}
		workspaceID = &ws.ID
	}

	tasks, err := db.ListTasks(database, workspaceID, *status, *limit)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tSTATUS\tDUE\tID")
	_, _ = fmt.Fprintln(w, "-----\t------\t---\t--")

	for _, task := range tasks {
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", task.Title, task.Status, due, task.ID)
	}

	return w.Flush()
}

// DoneTaskCommand marks a task done. The linked calendar event, if any,
// stays on the calendar.
func DoneTaskCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("done", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("task ID is required")
	}

	taskID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid task ID: %w", err)
	}

	task, err := db.GetTask(database, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}
	before := *task

	now := time.Now().UTC()
	task.Status = models.TaskStatusDone
	task.CompletedAt = &now

	if err := db.UpdateTask(database, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	trigger := newTrigger(database)
	trigger.TaskChanged(currentUser(), &before, task)
	trigger.Flush()

	fmt.Printf("✓ Task completed: %s\n", task.Title)
	return nil
}

// DeleteTaskCommand removes a task and its linked calendar event.
func DeleteTaskCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("task ID is required")
	}

	taskID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid task ID: %w", err)
	}

	task, err := db.GetTask(database, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}

	if err := db.DeleteTask(database, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	trigger := newTrigger(database)
	trigger.TaskChanged(currentUser(), task, nil)
	trigger.Flush()

	fmt.Printf("✓ Task deleted: %s\n", task.Title)
	return nil
}
