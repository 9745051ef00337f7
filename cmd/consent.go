package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"o365cli/config"
	"o365cli/consent"
)

var consentService string

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Show the URL to consent permissions for a service.",
	Long: `Build the admin consent URL for a downstream service.

Before the CLI can execute commands against some services, a tenant
administrator has to consent the required permissions to the Azure AD
application the CLI authenticates as. This command prints the URL to open in
a web browser to grant that consent.

Known services: ` + strings.Join(consent.Services(), ", ") + `.`,
	Example: `
  # Show the consent URL for Yammer commands
  o365 consent --service yammer
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		consentURL, err := consent.Build(consentService, cfg.Tenant, cfg.AADAppID)
		if err != nil {
			return err
		}

		fmt.Fprintf(
			cmd.OutOrStdout(),
			"To consent permissions for executing %s commands, navigate in your web browser to %s\n",
			consentService,
			consentURL,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consentCmd)

	consentCmd.Flags().StringVar(&consentService, "service", "", "Service to consent permissions for (eg. yammer)")
	_ = consentCmd.MarkFlagRequired("service")
}
