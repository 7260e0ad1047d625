package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityworks/helpdesk/internal/api/dto"
	"github.com/facilityworks/helpdesk/internal/auth"
	"github.com/facilityworks/helpdesk/internal/service"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// ReportsHandler exposes manager reporting endpoints.
type ReportsHandler struct {
	reports *service.ReportService
	users   *service.UserService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService, userService *service.UserService) *ReportsHandler {
	return &ReportsHandler{reports: reportService, users: userService}
}

// Aggregate GET /reports/aggregate.
func (h *ReportsHandler) Aggregate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	rng, err := parseDateRange(c)
	if err != nil {
		return err
	}
	groupBy := service.GroupBy(c.Query("group_by", string(service.GroupByStatus)))
	counts, err := h.reports.Aggregate(c.UserContext(), principal.User, rng, groupBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AggregateResponse{
		GroupBy: string(groupBy),
		From:    rng.Start.Format("2006-01-02"),
		To:      rng.End.Format("2006-01-02"),
		Counts:  counts,
	}})
}

// TopRequesters GET /reports/top-requesters.
func (h *ReportsHandler) TopRequesters(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	rng, err := parseDateRange(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 5)
	rows, err := h.reports.TopRequesters(c.UserContext(), principal.User, rng, limit)
	if err != nil {
		return err
	}
	items := make([]dto.RequesterCountResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.RequesterCountResponse{
			RequesterID: row.RequesterID,
			Username:    h.users.Resolve(c.UserContext(), row.RequesterID),
			Count:       row.Count,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Dashboard GET /reports/dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	summary, err := h.reports.Dashboard(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Open:          summary.Open,
		InProgress:    summary.InProgress,
		OnHold:        summary.OnHold,
		ResolvedToday: summary.ResolvedToday,
	}})
}

func parseDateRange(c *fiber.Ctx) (service.DateRange, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return service.DateRange{}, apperrors.NewValidationError("from and to required", nil)
	}
	from, err := parseDate(fromStr)
	if err != nil {
		return service.DateRange{}, apperrors.NewValidationError("from must be YYYY-MM-DD", nil)
	}
	to, err := parseDate(toStr)
	if err != nil {
		return service.DateRange{}, apperrors.NewValidationError("to must be YYYY-MM-DD", nil)
	}
	if to.Before(from) {
		return service.DateRange{}, apperrors.NewValidationError("to must not precede from", nil)
	}
	return service.DayRange(from, to), nil
}
