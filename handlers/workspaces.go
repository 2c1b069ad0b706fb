// ABOUTME: Workspace and tag MCP tool handlers
// ABOUTME: Implements add_workspace, list_workspaces, tag_task, and untag_task tools
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
)

type WorkspaceHandlers struct {
	db *sql.DB
}

func NewWorkspaceHandlers(database *sql.DB) *WorkspaceHandlers {
	return &WorkspaceHandlers{db: database}
}

type AddWorkspaceInput struct {
	Name string `json:"name" jsonschema:"Workspace name (required)"`
}

type WorkspaceOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (h *WorkspaceHandlers) AddWorkspace(_ context.Context, _ *mcp.CallToolRequest, input AddWorkspaceInput) (*mcp.CallToolResult, WorkspaceOutput, error) {
	if input.Name == "" {
		return nil, WorkspaceOutput{}, fmt.Errorf("name is required")
	}

	existing, err := db.FindWorkspaceByName(h.db, input.Name)
	if err != nil {
		return nil, WorkspaceOutput{}, fmt.Errorf("failed to lookup workspace: %w", err)
	}
	if existing != nil {
		return nil, workspaceToOutput(existing), nil
	}

	workspace := &models.Workspace{Name: input.Name}
	if err := db.CreateWorkspace(h.db, workspace); err != nil {
		return nil, WorkspaceOutput{}, fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil, workspaceToOutput(workspace), nil
}

type ListWorkspacesInput struct{}

type ListWorkspacesOutput struct {
	Workspaces []WorkspaceOutput `json:"workspaces"`
}

func (h *WorkspaceHandlers) ListWorkspaces(_ context.Context, _ *mcp.CallToolRequest, _ ListWorkspacesInput) (*mcp.CallToolResult, ListWorkspacesOutput, error) {
	workspaces, err := db.ListWorkspaces(h.db)
	if err != nil {
		return nil, ListWorkspacesOutput{}, fmt.Errorf("failed to list workspaces: %w", err)
	}

	output := ListWorkspacesOutput{Workspaces: make([]WorkspaceOutput, 0, len(workspaces))}
	for _, workspace := range workspaces {
		output.Workspaces = append(output.Workspaces, workspaceToOutput(workspace))
	}

	return nil, output, nil
}

type TagTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"Task ID (required)"`
	Tag    string `json:"tag" jsonschema:"Tag name (created if missing)"`
}

type TagTaskOutput struct {
	Tags []string `json:"tags"`
}

func (h *WorkspaceHandlers) TagTask(_ context.Context, _ *mcp.CallToolRequest, input TagTaskInput) (*mcp.CallToolResult, TagTaskOutput, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, TagTaskOutput{}, fmt.Errorf("invalid task id: %w", err)
	}
	if input.Tag == "" {
		return nil, TagTaskOutput{}, fmt.Errorf("tag is required")
	}

	tag, err := db.EnsureTag(h.db, input.Tag)
	if err != nil {
		return nil, TagTaskOutput{}, fmt.Errorf("failed to ensure tag: %w", err)
	}

	if err := db.TagTask(h.db, taskID, tag.ID); err != nil {
		return nil, TagTaskOutput{}, fmt.Errorf("failed to tag task: %w", err)
	}

	output, err := h.tagOutput(taskID)
	if err != nil {
		return nil, TagTaskOutput{}, err
	}
	return nil, output, nil
}

type UntagTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"Task ID (required)"`
	Tag    string `json:"tag" jsonschema:"Tag name to detach"`
}

func (h *WorkspaceHandlers) UntagTask(_ context.Context, _ *mcp.CallToolRequest, input UntagTaskInput) (*mcp.CallToolResult, TagTaskOutput, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, TagTaskOutput{}, fmt.Errorf("invalid task id: %w", err)
	}

	tag, err := db.EnsureTag(h.db, input.Tag)
	if err != nil {
		return nil, TagTaskOutput{}, fmt.Errorf("failed to resolve tag: %w", err)
	}

	if err := db.UntagTask(h.db, taskID, tag.ID); err != nil {
		return nil, TagTaskOutput{}, fmt.Errorf("failed to untag task: %w", err)
	}

	output, err := h.tagOutput(taskID)
	if err != nil {
		return nil, TagTaskOutput{}, err
	}
	return nil, output, nil
}

func (h *WorkspaceHandlers) tagOutput(taskID uuid.UUID) (TagTaskOutput, error) {
	tags, err := db.TaskTags(h.db, taskID)
	if err != nil {
		return TagTaskOutput{}, fmt.Errorf("failed to list tags: %w", err)
	}

	output := TagTaskOutput{Tags: make([]string, 0, len(tags))}
	for _, tag := range tags {
		output.Tags = append(output.Tags, tag.Name)
	}
	return output, nil
}

func workspaceToOutput(workspace *models.Workspace) WorkspaceOutput {
	return WorkspaceOutput{
		ID:        workspace.ID.String(),
		Name:      workspace.Name,
		CreatedAt: workspace.CreatedAt.Format(time.RFC3339),
	}
}
