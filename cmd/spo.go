package cmd

import "github.com/spf13/cobra"

var spoCmd = &cobra.Command{
	Use:   "spo",
	Short: "Manage the SharePoint Online connection.",
	Long: `Commands for connecting to and disconnecting from SharePoint Online.

Use "spo connect" to sign in to a regular site or a tenant admin site,
"spo status" to inspect the current connection and "spo disconnect" to drop it.`,
}

func init() {
	rootCmd.AddCommand(spoCmd)
}
