package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Long: `Tells the remote to invalidate the session (best effort) and removes the
stored session tokens. Credentials stay in place; the next request logs in
again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Logging out...")
		defer cleanup()

		app, err := buildApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}

		if err := app.Auth.Logout(cmd.Context()); err != nil {
			return Logger.ErrorfAndReturn("failed to clear session: %v", err)
		}

		spinner.FinalMSG = color.GreenString("✓") + " Logged out"
		return nil
	},
}
