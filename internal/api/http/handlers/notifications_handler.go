package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityworks/helpdesk/internal/api/dto"
	"github.com/facilityworks/helpdesk/internal/auth"
	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/service"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// NotificationsHandler exposes the caller's notification inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// ListNotifications GET /notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	unreadOnly := c.QueryBool("unread_only")
	list, err := h.service.ListForUser(c.UserContext(), principal.User.ID, unreadOnly)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		items = append(items, notificationResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	record, err := h.service.MarkRead(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponse(record)})
}

// MarkManyRead POST /notifications/read.
func (h *NotificationsHandler) MarkManyRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.IDs) == 0 {
		return apperrors.NewValidationError("ids required", nil)
	}
	updated, err := h.service.MarkManyRead(c.UserContext(), principal.User.ID, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MarkReadResponse{Updated: updated}})
}

// Archive POST /notifications/:id/archive.
func (h *NotificationsHandler) Archive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	record, err := h.service.Archive(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponse(record)})
}

func notificationResponse(record *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        record.ID,
		TicketID:  record.TicketID,
		Kind:      record.Kind,
		Message:   record.Message,
		Read:      record.Read,
		Archived:  record.Archived,
		CreatedAt: record.CreatedAt,
	}
}
