package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/glycohq/glyco/internal/audit"
)

var resetForce bool

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all local credentials, sessions, and keys",
	Long: `Removes the encrypted credentials and session documents and deletes the
master key from the OS keyring and the fallback key file. Without the
master key, any remaining ciphertext (including cache state) is
permanently unrecoverable. There is no undo.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			fmt.Print(color.YellowString("!") + " This permanently deletes your stored credentials and master key. Type 'yes' to continue: ")
			reader := bufio.NewReader(os.Stdin)
			answer, err := reader.ReadString('\n')
			if err != nil || strings.TrimSpace(answer) != "yes" {
				fmt.Println(color.CyanString("→") + " Reset cancelled")
				return nil
			}
		}

		spinner, cleanup := startSpinner("Resetting local state...")
		defer cleanup()

		app, err := buildApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}

		if err := app.Creds.ClearAll(); err != nil {
			return Logger.ErrorfAndReturn("failed to remove stored documents: %v", err)
		}
		deletedKey := app.Keys.DeleteMasterKey()

		app.Audit.Append(audit.Entry{Operation: "reset", Subject: "local-state", Status: "ok"})

		msg := color.GreenString("✓") + " Credentials and session removed"
		if deletedKey {
			msg += "\n" + color.GreenString("✓") + " Master key deleted"
		} else {
			msg += "\n" + color.YellowString("-") + " No master key was present"
		}
		spinner.FinalMSG = msg + "\n" + color.CyanString("→") + " Run " + color.YellowString("glyco setup") + " to start over"
		return nil
	},
}
