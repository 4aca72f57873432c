package cmd

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	logger "github.com/glycohq/glyco/internal/logging"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// RootCmd is the glyco command tree.
	RootCmd = &cobra.Command{
		Use:   "glyco",
		Short: "glyco - secure access to your health data for conversational agents.",
		Long: `glyco gives a local conversational agent safe access to your personal
health data from the GlycoDiary service.

Credentials and session tokens never touch disk in plaintext: everything is
encrypted under a master key held in your OS keyring (or a machine-bound
key file when no keyring exists).

Usage:
  glyco <command> [flags]

Available Commands:
  setup      Store your GlycoDiary credentials securely
  status     Show keyring, credential, and session state
  fetch      Fetch a remote resource (entries, stats, food, profile, reports)
  logout     End the current session
  reset      Wipe all local credentials, sessions, and keys
  audit      Show the local audit trail

Run 'glyco help <command>' for more details on a specific command.
`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing glyco with verbose=%t, debug=%t", verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewFigure("glyco", "", true)
			banner.Print()
			fmt.Println("Run 'glyco --help' to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(setupCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(fetchCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(resetCmd)
	RootCmd.AddCommand(auditCmd)
}
