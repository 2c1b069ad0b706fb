// ABOUTME: Entry point for the Focal task and calendar server
// ABOUTME: Routes to the API server, MCP server, or CLI commands based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/tmccall/focal/cli"
	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/sync"
	"github.com/tmccall/focal/web"
)

const version = "0.1.0"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/focal/focal.db)")
	port := flag.Int("port", 8080, "API server port (use with 'serve')")
	continueURL := flag.String("continue-url", "/settings", "Redirect target after the OAuth callback (use with 'serve')")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("focal version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	database, err := db.OpenDatabase(getDatabasePath(*dbPath))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	switch command {
	case "serve":
		server, err := buildServer(database, *continueURL)
		if err != nil {
			log.Fatalf("Failed to build server: %v", err)
		}
		if err := server.Start(*port); err != nil {
			log.Fatalf("API server failed: %v", err)
		}

	case "mcp":
		if err := cli.MCPCommand(database); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "connect":
		if err := cli.ConnectCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "disconnect":
		if err := cli.DisconnectCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "calendars":
		if err := cli.CalendarsCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "agenda":
		if err := cli.AgendaCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "freebusy":
		if err := cli.FreeBusyCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "task":
		if len(commandArgs) == 0 {
			fmt.Println("Error: task requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		taskCommand := commandArgs[0]
		taskArgs := commandArgs[1:]

		switch taskCommand {
		case "add":
			if err := cli.AddTaskCommand(database, taskArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "list":
			if err := cli.ListTasksCommand(database, taskArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "done":
			if err := cli.DoneTaskCommand(database, taskArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "rm":
			if err := cli.DeleteTaskCommand(database, taskArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		default:
			fmt.Printf("Unknown task command: %s\n\n", taskCommand)
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// buildServer wires the full sync pipeline behind the HTTP API.
func buildServer(database *sql.DB, continueURL string) (*web.Server, error) {
	oauthConfig, err := sync.NewOAuthConfig()
	if err != nil {
		return nil, err
	}

	api := sync.NewGoogleCalendarAPI()
	tokens := sync.NewTokenManager(sync.NewDBTokenStore(database), sync.NewOAuthRefresher(oauthConfig))
	reader := sync.NewReader(tokens, api)
	aggregator := sync.NewAggregator(reader)
	trigger := sync.NewTrigger(sync.NewReconciler(database, tokens, api))

	return web.NewServer(database, reader, aggregator, trigger, oauthConfig, continueURL), nil
}

func getDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	return filepath.Join(xdg.DataHome, "focal", "focal.db")
}

func printUsage() {
	fmt.Printf(`focal v%s - Task manager with Google Calendar sync

USAGE:
  focal [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/focal/focal.db)
  --port <n>             API server port (default: 8080, use with 'serve')
  --continue-url <url>   Redirect target after OAuth callback (use with 'serve')

COMMANDS:
  serve                  Start the HTTP JSON API server
  mcp                    Start MCP server for Claude Desktop
  connect                Connect a Google Calendar account (browser OAuth)
  disconnect             Remove the stored calendar credential
  calendars              List calendars on the connected account
  agenda                 Show events aggregated across calendars
  freebusy               Show busy intervals for one calendar
  task                   Task management commands

CALENDAR COMMANDS:
  focal connect          Run the OAuth flow and store the credential
  focal disconnect       Delete the stored credential

  focal agenda           Show upcoming events
    --days <n>              Window length in days (default: 1)
    --calendars <ids>       Comma-separated calendar IDs (default: all)

  focal freebusy         Show busy intervals
    --calendar <id>         Calendar ID (default: primary)
    --days <n>              Window length in days (default: 1)

TASK COMMANDS:
  focal task add         Add a new task
    --title <title>         Task title (required)
    --desc <text>           Task description
    --workspace <name>      Workspace name (default: inbox)
    --due <rfc3339>         Due date; creates a calendar event

  focal task list        List tasks
    --workspace <name>      Filter by workspace
    --status <status>       Filter by status (todo, in_progress, done)
    --limit <n>             Max results (default: 50)

  focal task done <id>   Mark a task done
  focal task rm <id>     Delete a task and its calendar event

ENVIRONMENT:
  GOOGLE_CLIENT_ID           OAuth client id (required for connect/serve)
  GOOGLE_CLIENT_SECRET       OAuth client secret (required for connect/serve)
  FOCAL_OAUTH_REDIRECT_URL   OAuth redirect (default: http://localhost:8080/oauth/callback)
  FOCAL_USER                 CLI user identity (default: local)

EXAMPLES:
  # Connect a calendar, then add a task that lands on it
  focal connect
  focal task add --title "Write report" --due 2025-05-01T10:00:00Z

  # Today's agenda across all calendars
  focal agenda

  # Start the API server
  focal serve --port 8080

`, version)
}
