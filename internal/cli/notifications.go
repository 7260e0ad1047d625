package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Inspect and manage the acting user's inbox",
	RunE:  runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>...",
	Short: "Mark notifications as read",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a read notification",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsArchive,
}

func init() {
	notificationsCmd.Flags().Bool("unread", false, "only unread notifications")

	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsArchiveCmd)
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	unreadOnly, _ := cmd.Flags().GetBool("unread")
	list, err := a.notifications.ListForUser(context.Background(), actor.ID, unreadOnly)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	updated, err := a.notifications.MarkManyRead(context.Background(), actor.ID, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "marked %d notification(s) read\n", updated)
	return nil
}

func runNotificationsArchive(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	record, err := a.notifications.Archive(context.Background(), actor.ID, args[0])
	if err != nil {
		return err
	}
	return printJSON(record)
}
