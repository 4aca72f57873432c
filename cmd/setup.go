package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glycohq/glyco/internal/audit"
	"github.com/glycohq/glyco/internal/crypto"
	"github.com/glycohq/glyco/internal/keyring"
)

var setupEmail string

func init() {
	setupCmd.Flags().StringVarP(&setupEmail, "email", "e", "", "account email (prompted when omitted)")
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Store your GlycoDiary credentials securely",
	Long: `Prompts for your GlycoDiary email and password, validates them against
the remote API, and stores them encrypted under the master key. Running
setup again replaces the stored credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := setupEmail
		if email == "" {
			fmt.Print("Email: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return Logger.ErrorfAndReturn("failed to read email: %v", err)
			}
			email = strings.TrimSpace(line)
		}
		if email == "" {
			fmt.Println(color.RedString("✗") + " An email address is required")
			return nil
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		if len(password) == 0 {
			fmt.Println(color.RedString("✗") + " A password is required")
			return nil
		}

		spinner, cleanup := startSpinner("Validating credentials with GlycoDiary...")
		defer cleanup()

		app, err := buildApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}

		backend, err := app.Keys.ActiveBackend()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to obtain master key: %v", err)
		}
		if backend == keyring.BackendFile {
			spinner.Stop()
			Logger.WarnfUser("No OS keyring found; the master key is stored in a machine-bound file and cannot move to another computer")
			spinner.Restart()
		}

		if err := app.Auth.Login(cmd.Context(), email, string(password)); err != nil {
			Logger.Debugf("Setup login failed: %v", err)
			spinner.FinalMSG = color.RedString("✗") + " Authentication failed - check your email and password\n" +
				color.CyanString("→") + " Run " + color.YellowString("glyco setup") + " again to retry"
			return nil
		}

		app.Audit.Append(audit.Entry{
			Operation: "setup",
			Subject:   crypto.HashForAudit(email),
			Status:    "ok",
			Backend:   string(backend),
		})

		spinner.FinalMSG = color.GreenString("✓") + " Credentials verified and stored securely\n" +
			color.CyanString("→") + " Try " + color.YellowString("glyco fetch entries") + " to pull your diary"
		return nil
	},
}
