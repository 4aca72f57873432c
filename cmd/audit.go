package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glycohq/glyco/internal/ui"
)

var auditLimit int

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "number of entries to show (0 for all)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the local audit trail",
	Long: `Prints recent audit entries. The log contains only hashed identifiers,
never emails, tokens, or payloads, so it is safe to share when reporting
problems.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}

		entries, err := app.Audit.Entries()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read audit log: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println(ui.Muted.Sprint("audit log is empty"))
			return nil
		}

		if auditLimit > 0 && len(entries) > auditLimit {
			entries = entries[len(entries)-auditLimit:]
		}

		for _, entry := range entries {
			line := entry.Timestamp + "  " + ui.Highlight.Sprint(entry.Operation) + "  " + entry.Subject
			if entry.Path != "" {
				line += "  " + ui.Path.Sprint(entry.Path)
			}
			if entry.Status != "" {
				if entry.Status == "ok" {
					line += "  " + ui.Success.Sprint(entry.Status)
				} else {
					line += "  " + ui.Error.Sprint(entry.Status)
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}
