package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/service"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Create, inspect and update tickets",
}

var ticketCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new ticket",
	RunE:  runTicketCreate,
}

var ticketViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a ticket with its comment thread",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketView,
}

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets visible to the acting user",
	RunE:  runTicketList,
}

var ticketUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Apply a partial update to a ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketUpdate,
}

var ticketCommentCmd = &cobra.Command{
	Use:   "comment <id> <body>",
	Short: "Append a comment to a ticket",
	Args:  cobra.ExactArgs(2),
	RunE:  runTicketComment,
}

func init() {
	ticketCreateCmd.Flags().String("title", "", "ticket title")
	ticketCreateCmd.Flags().String("description", "", "ticket description")
	ticketCreateCmd.Flags().String("type", string(domain.TicketTypeIT), "IT or FACILITIES")
	ticketCreateCmd.Flags().String("priority", "", "LOW, MEDIUM or HIGH")

	ticketListCmd.Flags().String("status", "", "filter by status")
	ticketListCmd.Flags().String("type", "", "filter by type")
	ticketListCmd.Flags().String("priority", "", "filter by priority")
	ticketListCmd.Flags().String("requester", "", "filter by requester id")
	ticketListCmd.Flags().String("assignee", "", "filter by assignee id")
	ticketListCmd.Flags().Bool("recent", false, "most recently updated first")

	ticketUpdateCmd.Flags().String("title", "", "new title")
	ticketUpdateCmd.Flags().String("description", "", "new description")
	ticketUpdateCmd.Flags().String("type", "", "new type")
	ticketUpdateCmd.Flags().String("status", "", "new status")
	ticketUpdateCmd.Flags().String("priority", "", "new priority")
	ticketUpdateCmd.Flags().String("assignee", "", "new assignee id")
	ticketUpdateCmd.Flags().Bool("unassign", false, "clear the assignment")

	ticketCmd.AddCommand(ticketCreateCmd)
	ticketCmd.AddCommand(ticketViewCmd)
	ticketCmd.AddCommand(ticketListCmd)
	ticketCmd.AddCommand(ticketUpdateCmd)
	ticketCmd.AddCommand(ticketCommentCmd)
}

func runTicketCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	ticketType, _ := cmd.Flags().GetString("type")
	priority, _ := cmd.Flags().GetString("priority")

	ticket, err := a.tickets.Create(context.Background(), actor, service.TicketCreateInput{
		Title:       title,
		Description: description,
		Type:        domain.TicketType(strings.ToUpper(ticketType)),
		Priority:    domain.TicketPriority(strings.ToUpper(priority)),
	})
	if err != nil {
		return err
	}
	return printJSON(ticket)
}

func runTicketView(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	ticket, err := a.tickets.Get(context.Background(), actor, args[0])
	if err != nil {
		return err
	}
	return printJSON(ticket)
}

func runTicketList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}

	filter := service.TicketListFilter{}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		status := domain.TicketStatus(strings.ToUpper(v))
		filter.Status = &status
	}
	if v, _ := cmd.Flags().GetString("type"); v != "" {
		ticketType := domain.TicketType(strings.ToUpper(v))
		filter.Type = &ticketType
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		priority := domain.TicketPriority(strings.ToUpper(v))
		filter.Priority = &priority
	}
	if v, _ := cmd.Flags().GetString("requester"); v != "" {
		filter.Requester = &v
	}
	if v, _ := cmd.Flags().GetString("assignee"); v != "" {
		filter.Assignee = &v
	}
	filter.RecentlyUpdatedFirst, _ = cmd.Flags().GetBool("recent")

	tickets, err := a.tickets.List(context.Background(), actor, filter)
	if err != nil {
		return err
	}
	return printJSON(tickets)
}

func runTicketUpdate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}

	patch := service.TicketPatch{}
	if cmd.Flags().Changed("title") {
		v, _ := cmd.Flags().GetString("title")
		patch.Title = &v
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		patch.Description = &v
	}
	if cmd.Flags().Changed("type") {
		v, _ := cmd.Flags().GetString("type")
		ticketType := domain.TicketType(strings.ToUpper(v))
		patch.Type = &ticketType
	}
	if cmd.Flags().Changed("status") {
		v, _ := cmd.Flags().GetString("status")
		status := domain.TicketStatus(strings.ToUpper(v))
		patch.Status = &status
	}
	if cmd.Flags().Changed("priority") {
		v, _ := cmd.Flags().GetString("priority")
		priority := domain.TicketPriority(strings.ToUpper(v))
		patch.Priority = &priority
	}
	if unassign, _ := cmd.Flags().GetBool("unassign"); unassign {
		empty := ""
		patch.Assignee = &empty
	} else if cmd.Flags().Changed("assignee") {
		v, _ := cmd.Flags().GetString("assignee")
		patch.Assignee = &v
	}

	ticket, err := a.tickets.Update(context.Background(), actor, args[0], patch)
	if err != nil {
		return err
	}
	return printJSON(ticket)
}

func runTicketComment(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	comment, err := a.tickets.AddComment(context.Background(), actor, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "comment added")
	return printJSON(comment)
}
