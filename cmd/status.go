package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glycohq/glyco/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show keyring, credential, and session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}

		backend, err := app.Keys.ActiveBackend()
		if err != nil {
			fmt.Println(ui.Error.Sprint("✗") + " Master key is unavailable: " + err.Error())
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("glyco reset") + " and then " + ui.Code.Sprint("glyco setup"))
			return nil
		}
		fmt.Println(ui.Success.Sprint("✓") + " Master key backend: " + ui.Highlight.Sprint(string(backend)))

		if _, err := os.Stat(app.Settings.CredentialsPath); err == nil {
			fmt.Println(ui.Success.Sprint("✓") + " Credentials stored " + ui.Muted.Sprint(app.Settings.CredentialsPath))
		} else {
			fmt.Println(ui.Error.Sprint("✗") + " No credentials - run " + ui.Code.Sprint("glyco setup"))
		}

		tokens, err := app.Creds.Tokens()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read session: %v", err)
		}
		if tokens == nil {
			fmt.Println(ui.Warning.Sprint("-") + " No active session " + ui.Muted.Sprint("next request will log in"))
			return nil
		}

		remaining := time.Until(tokens.ExpiresAt).Round(time.Minute)
		fmt.Println(ui.Success.Sprint("✓") + " Session valid for " + ui.Highlight.Sprintf("%s", remaining))
		return nil
	},
}
