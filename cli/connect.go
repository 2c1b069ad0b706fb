// ABOUTME: Calendar connect and disconnect CLI commands
// ABOUTME: Runs the browser OAuth flow with a localhost callback server
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
	"github.com/tmccall/focal/sync"
)

// ConnectCommand runs the Google OAuth flow and stores the resulting
// credential for the current user.
func ConnectCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	userID := currentUser()

	config, err := sync.NewOAuthConfig()
	if err != nil {
		return fmt.Errorf("failed to load OAuth config: %w", err)
	}

	// Local server for the OAuth callback
	credChan := make(chan *models.CalendarCredential)
	errChan := make(chan error)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		cred, err := sync.ExchangeCode(ctx, config, userID, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		credChan <- cred
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// State carries the user id so the callback can bind the credential
	authURL := config.AuthCodeURL(userID, oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case cred := <-credChan:
		_ = server.Shutdown(ctx)

		if err := db.UpsertCredential(database, cred); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}

		fmt.Printf("\n✓ Calendar connected for %s\n", userID)
		fmt.Println("Run 'focal agenda' to see your upcoming events.")
		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// DisconnectCommand removes the stored credential for the current user.
func DisconnectCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("disconnect", flag.ExitOnError)
	_ = fs.Parse(args)

	userID := currentUser()

	cred, err := db.GetCredential(database, userID)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		fmt.Println("No calendar connected")
		return nil
	}

	if err := db.DeleteCredential(database, userID); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	fmt.Printf("✓ Calendar disconnected for %s\n", userID)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
