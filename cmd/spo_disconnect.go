package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"o365cli/auth"
)

var spoDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect from SharePoint Online.",
	Long: `Drop the current SharePoint Online connection.

The in-memory access and refresh tokens for the site are discarded
immediately. Disconnecting without an active connection is a no-op.`,
	Example: `
  # Disconnect from the currently connected site
  o365 spo disconnect
`,
	Run: func(cmd *cobra.Command, args []string) {
		if verbose {
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnecting from SPO...")
		}
		sessions.Clear(auth.ServiceSPO)
		fmt.Fprintln(cmd.OutOrStdout(), "Disconnected from SharePoint Online")
	},
}

func init() {
	spoCmd.AddCommand(spoDisconnectCmd)
}
