package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/facilityworks/helpdesk/internal/service"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summary statistics over the ticket store",
}

var reportAggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Count tickets per status, type or requester",
	RunE:  runReportAggregate,
}

var reportTopCmd = &cobra.Command{
	Use:   "top-requesters",
	Short: "Rank the busiest requesters in a date range",
	RunE:  runReportTop,
}

var reportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live workload counts",
	RunE:  runReportDashboard,
}

func init() {
	for _, c := range []*cobra.Command{reportAggregateCmd, reportTopCmd} {
		c.Flags().String("from", "", "start date, YYYY-MM-DD")
		c.Flags().String("to", "", "end date, YYYY-MM-DD")
	}
	reportAggregateCmd.Flags().String("group-by", string(service.GroupByStatus), "status, type or requester")
	reportTopCmd.Flags().Int("limit", 5, "rows to return")

	reportCmd.AddCommand(reportAggregateCmd)
	reportCmd.AddCommand(reportTopCmd)
	reportCmd.AddCommand(reportDashboardCmd)
}

func rangeFromFlags(cmd *cobra.Command) (service.DateRange, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	if fromStr == "" || toStr == "" {
		return service.DateRange{}, fmt.Errorf("--from and --to are required")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return service.DateRange{}, fmt.Errorf("--from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return service.DateRange{}, fmt.Errorf("--to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return service.DateRange{}, fmt.Errorf("--to must not precede --from")
	}
	return service.DayRange(from, to), nil
}

func runReportAggregate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	rng, err := rangeFromFlags(cmd)
	if err != nil {
		return err
	}
	groupBy, _ := cmd.Flags().GetString("group-by")
	counts, err := a.reports.Aggregate(context.Background(), actor, rng, service.GroupBy(groupBy))
	if err != nil {
		return err
	}
	return printJSON(counts)
}

func runReportTop(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	rng, err := rangeFromFlags(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	rows, err := a.reports.TopRequesters(context.Background(), actor, rng, limit)
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func runReportDashboard(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	summary, err := a.reports.Dashboard(context.Background(), actor)
	if err != nil {
		return err
	}
	return printJSON(summary)
}
