package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"o365cli/auth"
	"o365cli/spo"
)

var spoConnectCmd = &cobra.Command{
	Use:   "connect <url>",
	Short: "Connect to a SharePoint Online site.",
	Long: `Connect to any SharePoint Online site using the device code sign-in flow.

Depending on the command you want to use afterwards, connect either to a
tenant admin site (suffixed with -admin, eg. https://contoso-admin.sharepoint.com)
or a regular site. For tenant admin sites the command additionally retrieves
the tenant information needed by admin operations.

Access and refresh tokens for the site are held in memory only; they are
cleared on exit or with "spo disconnect". Press Ctrl-C to cancel while the
command waits for the device code sign-in to complete.`,
	Example: `
  # Connect to a tenant admin site
  o365 spo connect https://contoso-admin.sharepoint.com

  # Connect with detailed diagnostic output
  o365 spo connect --verbose https://contoso-admin.sharepoint.com

  # Connect to a regular site
  o365 spo connect https://contoso.sharepoint.com/sites/team
`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		siteURL := args[0]
		if err := spo.ValidateSiteURL(siteURL); err != nil {
			return err
		}

		connector, err := newConnector(cmd.OutOrStdout())
		if err != nil {
			return err
		}

		// Ctrl-C cancels an outstanding device code wait without failing
		// the command.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		err = connector.Connect(ctx, siteURL)
		if errors.Is(err, auth.ErrCancelled) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Connecting to SharePoint Online failed")
			return err
		}
		return nil
	},
}

func init() {
	spoCmd.AddCommand(spoConnectCmd)
}
