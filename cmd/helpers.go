package cmd

import (
	"fmt"
	"io"

	"o365cli/auth"
	"o365cli/config"
	"o365cli/spo"
)

// newConnector wires the configured authenticator, admin client and shared
// session store into a connector writing to out.
func newConnector(out io.Writer) (*spo.Connector, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorConfig{
		AppID:  cfg.AADAppID,
		Tenant: cfg.Tenant,
		Notify: func(prompt auth.DeviceCodePrompt) {
			printDevicePrompt(out, prompt)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	client := spo.NewClient(spo.ClientConfig{
		ApplicationName: cfg.ApplicationName(),
		Logger:          logger,
	})

	return spo.NewConnector(spo.ConnectorConfig{
		Sessions: sessions,
		Auth:     authenticator,
		Client:   client,
		Out:      out,
		Verbose:  verbose,
		Logger:   logger,
	})
}

// printDevicePrompt surfaces the one-time device code instruction. The
// provider message already phrases the full instruction; fall back to our
// own phrasing when it is absent.
func printDevicePrompt(out io.Writer, prompt auth.DeviceCodePrompt) {
	if prompt.Message != "" {
		fmt.Fprintln(out, prompt.Message)
		return
	}
	fmt.Fprintf(
		out,
		"To sign in, use a web browser to open the page %s and enter the code %s to authenticate.\n",
		prompt.VerificationURL,
		prompt.UserCode,
	)
}
