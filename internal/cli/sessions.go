// internal/cli/sessions.go
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/record-harvest/harvest/internal/ui"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved browsing sessions",
	Long: `List, view, and delete saved browsing sessions.

Sessions are stored in your OS keyring (or a local file fallback) and
contain the cookies needed to reach gated content without re-login.`,
	Example: `  # List all saved sessions
  harvest sessions list

  # View details of a specific session
  harvest sessions view work

  # Delete a session
  harvest sessions delete old-session`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	RunE:  runSessionsList,
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-name>",
	Short: "View details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsView,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a := GetApp()
	names, err := a.Sessions.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No saved sessions. Create one with: harvest login <name> --site=jobboard")
		return nil
	}

	fmt.Printf("%s\n", ui.Bold("Saved sessions"))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func runSessionsView(cmd *cobra.Command, args []string) error {
	a := GetApp()
	state, err := a.Sessions.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	fmt.Printf("%s %s\n", ui.Bold("Session:"), state.Name)
	fmt.Printf("  site:    %s\n", state.Site)
	fmt.Printf("  cookies: %d\n", len(state.Cookies))
	fmt.Printf("  created: %s\n", state.CreatedAt.Format(time.RFC822))
	if !state.ExpiresAt.IsZero() {
		fmt.Printf("  expires: %s\n", state.ExpiresAt.Format(time.RFC822))
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if err := a.Sessions.DeleteWithManifest(args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Println(ui.Success("Session deleted"))
	return nil
}
