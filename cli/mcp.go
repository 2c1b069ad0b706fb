// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"
	"database/sql"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tmccall/focal/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(db *sql.DB) error {
	log.Println("Starting Focal MCP Server...")

	trigger := newTrigger(db)
	defer trigger.Flush()

	taskHandlers := handlers.NewTaskHandlers(db, trigger, currentUser())
	workspaceHandlers := handlers.NewWorkspaceHandlers(db)
	noteHandlers := handlers.NewNoteHandlers(db)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "focal",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task",
		Description: "Add a new task, optionally with a due date that syncs to the calendar",
	}, taskHandlers.AddTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task",
		Description: "Update a task's title, description, status, or due date",
	}, taskHandlers.UpdateTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as done",
	}, taskHandlers.CompleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task and remove its linked calendar event",
	}, taskHandlers.DeleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks, optionally filtered by workspace or status",
	}, taskHandlers.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_workspace",
		Description: "Create a workspace (returns the existing one if the name is taken)",
	}, workspaceHandlers.AddWorkspace)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_workspaces",
		Description: "List all workspaces",
	}, workspaceHandlers.ListWorkspaces)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tag_task",
		Description: "Attach a tag to a task, creating the tag if needed",
	}, workspaceHandlers.TagTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "untag_task",
		Description: "Detach a tag from a task",
	}, workspaceHandlers.UntagTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_note",
		Description: "Add a note to a task",
	}, noteHandlers.AddNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notes",
		Description: "List the notes attached to a task",
	}, noteHandlers.ListNotes)

	// Run server on stdio transport
	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
