package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"o365cli/config"
)

// runShell is the root action: an interactive prompt that dispatches lines
// to the regular commands. Connections live in process memory, so one
// sign-in serves any number of commands entered here.
func runShell(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unknown command %q", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Type \"help\" to list available commands, \"exit\" to leave.")

	rootCmd.InitDefaultHelpCmd()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "%s ", config.Delimiter)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		fields := strings.Fields(line)
		target, _, err := rootCmd.Find(fields)
		if err != nil || target == rootCmd {
			fmt.Fprintf(out, "Unknown command %q. Type \"help\" to list available commands.\n", line)
			continue
		}

		rootCmd.SetArgs(fields)
		// Execute reports command errors itself; the shell stays alive.
		_ = rootCmd.Execute()
	}
}
