// internal/config/cli_flags.go
package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium binary")
	cmd.PersistentFlags().String("proxy", "", "Route browser traffic through a proxy (e.g. socks5://localhost:1080)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().Int("pool-size", DefaultPoolSize, "Number of concurrent browser tabs")
}
