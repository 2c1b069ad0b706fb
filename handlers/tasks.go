// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements add_task, update_task, complete_task, delete_task, and list_tasks tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
	"github.com/tmccall/focal/sync"
)

type TaskHandlers struct {
	db      *sql.DB
	trigger *sync.Trigger
	userID  string
}

func NewTaskHandlers(database *sql.DB, trigger *sync.Trigger, userID string) *TaskHandlers {
	return &TaskHandlers{db: database, trigger: trigger, userID: userID}
}

type AddTaskInput struct {
	Title         string `json:"title" jsonschema:"Task title (required)"`
	Description   string `json:"description,omitempty" jsonschema:"Longer task description"`
	WorkspaceName string `json:"workspace_name,omitempty" jsonschema:"Workspace name (created if missing, default 'inbox')"`
	DueDate       string `json:"due_date,omitempty" jsonschema:"Due date in RFC3339 format"`
}

type TaskOutput struct {
	ID          string  `json:"id"`
	WorkspaceID string  `json:"workspace_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (h *TaskHandlers) AddTask(_ context.Context, _ *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.Title == "" {
		return nil, TaskOutput{}, fmt.Errorf("title is required")
	}

	workspaceName := input.WorkspaceName
	if workspaceName == "" {
		workspaceName = "inbox"
	}

	workspace, err := db.FindWorkspaceByName(h.db, workspaceName)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to lookup workspace: %w", err)
	}
	if workspace == nil {
		workspace = &models.Workspace{Name: workspaceName}
		if err := db.CreateWorkspace(h.db, workspace); err != nil {
			return nil, TaskOutput{}, fmt.Errorf("failed to create workspace: %w", err)
		}
	}

	task := &models.Task{
		WorkspaceID: workspace.ID,
		Title:       input.Title,
		Description: input.Description,
	}

	if input.DueDate != "" {
		due, err := time.Parse(time.RFC3339, input.DueDate)
		if err != nil {
			return nil, TaskOutput{}, fmt.Errorf("invalid due_date: %w", err)
		}
		task.DueDate = &due
	}

	if err := db.CreateTask(h.db, task); err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to create task: %w", err)
	}

	h.trigger.TaskChanged(h.userID, nil, task)

	return nil, taskToOutput(task), nil
}

type UpdateTaskInput struct {
	ID           string `json:"id" jsonschema:"Task ID (required)"`
	Title        string `json:"title,omitempty" jsonschema:"New title"`
	Description  string `json:"description,omitempty" jsonschema:"New description"`
	Status       string `json:"status,omitempty" jsonschema:"New status: todo, in_progress, or done"`
	DueDate      string `json:"due_date,omitempty" jsonschema:"New due date in RFC3339 format"`
	ClearDueDate bool   `json:"clear_due_date,omitempty" jsonschema:"Remove the due date"`
}

func (h *TaskHandlers) UpdateTask(_ context.Context, _ *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	task, before, err := h.loadTask(input.ID)
	if err != nil {
		return nil, TaskOutput{}, err
	}

	if input.Title != "" {
		task.Title = input.Title
	}
	if input.Description != "" {
		task.Description = input.Description
	}
	if input.Status != "" {
		switch input.Status {
		case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
			task.Status = input.Status
		default:
			return nil, TaskOutput{}, fmt.Errorf("invalid status %q", input.Status)
		}
		if input.Status == models.TaskStatusDone && task.CompletedAt == nil {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != "" {
		due, err := time.Parse(time.RFC3339, input.DueDate)
		if err != nil {
			return nil, TaskOutput{}, fmt.Errorf("invalid due_date: %w", err)
		}
		task.DueDate = &due
	}

	if err := db.UpdateTask(h.db, task); err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to update task: %w", err)
	}

	h.trigger.TaskChanged(h.userID, before, task)

	return nil, taskToOutput(task), nil
}

type CompleteTaskInput struct {
	ID string `json:"id" jsonschema:"Task ID (required)"`
}

func (h *TaskHandlers) CompleteTask(_ context.Context, _ *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	task, before, err := h.loadTask(input.ID)
	if err != nil {
		return nil, TaskOutput{}, err
	}

	now := time.Now().UTC()
	task.Status = models.TaskStatusDone
	task.CompletedAt = &now

	if err := db.UpdateTask(h.db, task); err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to complete task: %w", err)
	}

	h.trigger.TaskChanged(h.userID, before, task)

	return nil, taskToOutput(task), nil
}

type DeleteTaskInput struct {
	ID string `json:"id" jsonschema:"Task ID (required)"`
}

type DeleteTaskOutput struct {
	Deleted bool `json:"deleted"`
}

func (h *TaskHandlers) DeleteTask(_ context.Context, _ *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, DeleteTaskOutput, error) {
	_, before, err := h.loadTask(input.ID)
	if err != nil {
		return nil, DeleteTaskOutput{}, err
	}

	if err := db.DeleteTask(h.db, before.ID); err != nil {
		return nil, DeleteTaskOutput{}, fmt.Errorf("failed to delete task: %w", err)
	}

	h.trigger.TaskChanged(h.userID, before, nil)

	return nil, DeleteTaskOutput{Deleted: true}, nil
}

type ListTasksInput struct {
	WorkspaceName string `json:"workspace_name,omitempty" jsonschema:"Filter by workspace name"`
	Status        string `json:"status,omitempty" jsonschema:"Filter by status"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 100)"`
}

type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
	Count int          `json:"count"`
}

func (h *TaskHandlers) ListTasks(_ context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	var workspaceID *uuid.UUID
	if input.WorkspaceName != "" {
		workspace, err := db.FindWorkspaceByName(h.db, input.WorkspaceName)
		if err != nil {
			return nil, ListTasksOutput{}, fmt.Errorf("failed to lookup workspace: %w", err)
		}
		if workspace == nil {
			return nil, ListTasksOutput{Tasks: []TaskOutput{}}, nil
		}
		workspaceID = &workspace.ID
	}

	tasks, err := db.ListTasks(h.db, workspaceID, input.Status, input.Limit)
	if err != nil {
		return nil, ListTasksOutput{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	output := ListTasksOutput{Tasks: make([]TaskOutput, 0, len(tasks)), Count: len(tasks)}
	for _, task := range tasks {
		output.Tasks = append(output.Tasks, taskToOutput(task))
	}

	return nil, output, nil
}

// loadTask returns the live task plus an immutable before-snapshot for
// the sync trigger.
func (h *TaskHandlers) loadTask(id string) (*models.Task, *models.Task, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid task id: %w", err)
	}

	task, err := db.GetTask(h.db, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, nil, fmt.Errorf("task %s not found", id)
	}

	before := *task
	return task, &before, nil
}

func taskToOutput(task *models.Task) TaskOutput {
	output := TaskOutput{
		ID:          task.ID.String(),
		WorkspaceID: task.WorkspaceID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
	if task.DueDate != nil {
		due := task.DueDate.Format(time.RFC3339)
		output.DueDate = &due
	}
	if task.CompletedAt != nil {
		completed := task.CompletedAt.Format(time.RFC3339)
		output.CompletedAt = &completed
	}
	return output
}
