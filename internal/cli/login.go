// internal/cli/login.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/record-harvest/harvest/internal/auth"
	"github.com/record-harvest/harvest/internal/sites"
	"github.com/record-harvest/harvest/internal/ui"
)

var loginSite string

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <session-name>",
	Short: "Log in to a gated site and save the session",
	Long: `Performs a credential login against the site's login form and stores
the resulting cookies under the given session name. Credentials are read
from the HARVEST_USERNAME and HARVEST_PASSWORD environment variables and
are never written to disk.`,
	Example: `  # Save a job board session named "work"
  HARVEST_USERNAME=me@mail.test HARVEST_PASSWORD=secret \
    harvest login work --site=jobboard

  # Reuse it later
  harvest run "golang developer" --site=jobboard --session=work`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginSite, "site", "jobboard", "Target site")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := GetApp()
	name := args[0]

	profile := sites.ByName(loginSite)
	if profile == nil {
		return fmt.Errorf("unknown site %q", loginSite)
	}
	if !profile.RequiresAuth {
		return fmt.Errorf("site %q does not use logins", loginSite)
	}

	creds := auth.Credentials{Username: a.Config.Username, Password: a.Config.Password}
	if !creds.Valid() {
		fmt.Println(ui.Warn("HARVEST_USERNAME / HARVEST_PASSWORD not set, you will log in by hand"))
	}

	ctx := cmd.Context()
	mgr, err := a.EnsureBrowser(ctx)
	if err != nil {
		return err
	}

	tab, err := mgr.NewTab(ctx, nil)
	if err != nil {
		return err
	}
	defer tab.Close()

	fmt.Printf("%s %s\n", ui.Bold("Logging in to"), profile.Name)
	authenticator := auth.NewAuthenticator(profile, creds, a.Logger).WithManual(waitForOperator)
	if err := authenticator.EnsureSession(ctx, tab); err != nil {
		return err
	}

	state, err := mgr.SnapshotState(ctx, tab, name, profile.Name)
	if err != nil {
		return err
	}
	if err := a.Sessions.SaveWithManifest(state); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Println(ui.Success("Session saved"))
	fmt.Printf("  use it with: harvest run <terms> --site=%s --session=%s\n", profile.Name, name)
	return nil
}
