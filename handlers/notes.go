// ABOUTME: Note MCP tool handlers
// ABOUTME: Implements add_note and list_notes tools for task notes
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

type NoteHandlers struct {
	db *sql.DB
}

func NewNoteHandlers(database *sql.DB) *NoteHandlers {
	return &NoteHandlers{db: database}
}

type AddNoteInput struct {
	TaskID string `json:"task_id" jsonschema:"Task ID (required)"`
	Body   string `json:"body" jsonschema:"Note body in markdown (required)"`
}

type NoteOutput struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func (h *NoteHandlers) AddNote(_ context.Context, _ *mcp.CallToolRequest, input AddNoteInput) (*mcp.CallToolResult, NoteOutput, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, NoteOutput{}, fmt.Errorf("invalid task id: %w", err)
	}
	if input.Body == "" {
		return nil, NoteOutput{}, fmt.Errorf("body is required")
	}

	task, err := db.GetTask(h.db, taskID)
	if err != nil {
		return nil, NoteOutput{}, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, NoteOutput{}, fmt.Errorf("task %s not found", input.TaskID)
	}

	note := &models.Note{TaskID: taskID, Body: input.Body}
	if err := db.CreateNote(h.db, note); err != nil {
		return nil, NoteOutput{}, fmt.Errorf("failed to create note: %w", err)
	}

	return nil, noteToOutput(note), nil
}

type ListNotesInput struct {
	TaskID string `json:"task_id" jsonschema:"Task ID (required)"`
}

type ListNotesOutput struct {
	Notes []NoteOutput `json:"notes"`
}

func (h *NoteHandlers) ListNotes(_ context.Context, _ *mcp.CallToolRequest, input ListNotesInput) (*mcp.CallToolResult, ListNotesOutput, error) {
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, ListNotesOutput{}, fmt.Errorf("invalid task id: %w", err)
	}

	notes, err := db.ListNotes(h.db, taskID)
	if err != nil {
		return nil, ListNotesOutput{}, fmt.Errorf("failed to list notes: %w", err)
	}

	output := ListNotesOutput{Notes: make([]NoteOutput, 0, len(notes))}
	for _, note := range notes {
		output.Notes = append(output.Notes, noteToOutput(note))
	}

	return nil, output, nil
}

func noteToOutput(note *models.Note) NoteOutput {
	return NoteOutput{
		ID:        note.ID.String(),
		TaskID:    note.TaskID.String(),
		Body:      note.Body,
		CreatedAt: note.CreatedAt.Format(time.RFC3339),
	}
}
