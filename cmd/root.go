/*
Copyright © 2025

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"o365cli/auth"
	"o365cli/config"
)

var (
	cfgFile string
	verbose bool

	// sessions holds all connections for the lifetime of the process; token
	// material is dropped when the process exits.
	sessions = auth.NewStore()

	logger = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "o365",
	Short: "Connect to and manage Microsoft 365 services from the command line.",
	Long: `Manage Microsoft 365 services such as SharePoint Online from the command line.

Commands that talk to a service require a connection first, established with
the device code sign-in flow. Access and refresh tokens are held in memory
only and are dropped when the process exits or on disconnect. Run without a
subcommand to start an interactive shell where one sign-in serves any number
of subsequent commands.`,
	Example: `
  # Start the interactive shell
  o365

  # Connect to a SharePoint Online tenant admin site
  o365 spo connect https://contoso-admin.sharepoint.com

  # Show the consent URL for Yammer commands
  o365 consent --service yammer
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle: runShell itself refers to rootCmd.
	rootCmd.RunE = runShell

	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.o365.yaml, then ./.o365.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Include detailed diagnostic output")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger = newLogger(verbose)
	}
}

// newLogger returns a debug console logger when verbose output is requested
// and a no-op logger otherwise. Diagnostics never include token values.
func newLogger(verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".o365" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".o365")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// The config file is optional; defaults and environment overrides cover
	// everything it can set.
	_ = viper.ReadInConfig()
}
