package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"o365cli/auth"
)

var spoStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current SharePoint Online connection.",
	Example: `
  # Show the current connection
  o365 spo status
`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		session, ok := sessions.Get(auth.ServiceSPO)
		if !ok || !session.Connected {
			fmt.Fprintln(out, "Not connected to SharePoint Online")
			return
		}

		fmt.Fprintf(out, "Connected to %s\n", session.ResourceURL)
		if session.Token != nil {
			if user := auth.UserFromAccessToken(session.Token.AccessToken); user != "" {
				fmt.Fprintf(out, "Signed in as %s\n", user)
			}
			fmt.Fprintf(out, "Token expires at %s\n", session.Token.Expiry.Format("2006-01-02 15:04:05"))
		}
		if session.AdminSite {
			fmt.Fprintf(out, "Tenant admin site, tenant id: %s\n", session.TenantID)
		}
	},
}

func init() {
	spoCmd.AddCommand(spoStatusCmd)
}
