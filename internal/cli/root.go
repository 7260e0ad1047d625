package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "helpdeskctl",
	Short:        "Operate the helpdesk ticket store directly from the terminal",
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("as", "", "username to act as")

	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(kbCmd)
}
