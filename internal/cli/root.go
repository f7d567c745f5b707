// internal/cli/root.go
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/record-harvest/harvest/internal/app"
	"github.com/record-harvest/harvest/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "harvest",
	Short:   "Collect structured listings from dynamic sites",
	Long:    `Harvest drives a headless browser through search result pages and extracts structured records that survive site markup changes.`,
	Version: "0.1.0",
}

// ExecuteContext adds all child commands to the root command and runs
// it under the given context. This is called by main.main().
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	// Initialize the application lazily so -h/help never loads config or
	// touches the keyring.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp() != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		a.AuthPrompt = waitForOperator
		SetApp(a)
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := GetApp()
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = a.Close(ctx)
		SetApp(nil)
	}
}
