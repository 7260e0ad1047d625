package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/events"
	"github.com/facilityworks/helpdesk/internal/observability"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// NotificationService turns ticket change descriptions into stored
// notification records. Delivery is best-effort: any failure here is
// logged and swallowed, never surfaced to the mutation that fired the
// event.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewNotificationService creates the engine.
func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		logger:        logger,
		metrics:       metrics,
	}
}

// RegisterHandlers subscribes the engine to ticket mutation events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketUpdated, n.HandleTicketUpdated)
	dispatcher.Subscribe(events.EventTicketCommentAdded, n.HandleCommentAdded)
}

// delivery is one pending (recipient, kind) pair for a logical update.
type delivery struct {
	recipient string
	kind      domain.NotificationKind
	message   string
}

// HandleTicketUpdated fans one logical update out to its recipients.
// Each distinct (recipient, kind) pair produces exactly one
// notification even when several field changes point at the same
// party.
func (n *NotificationService) HandleTicketUpdated(ctx context.Context, event events.Event) error {
	var pending []delivery

	if change, ok := event.Change(events.FieldStatus); ok {
		pending = append(pending, delivery{
			recipient: event.Ticket.RequesterID,
			kind:      domain.NotificationStatusChanged,
			message: fmt.Sprintf("Ticket %q moved from %s to %s",
				event.Ticket.Title, change.Old, change.New),
		})
	}

	if change, ok := event.Change(events.FieldAssignee); ok {
		if change.New != "" {
			assignedMsg := fmt.Sprintf("Ticket %q was assigned to a technician", event.Ticket.Title)
			pending = append(pending,
				delivery{recipient: change.New, kind: domain.NotificationAssigned,
					message: fmt.Sprintf("Ticket %q was assigned to you", event.Ticket.Title)},
				delivery{recipient: event.Ticket.RequesterID, kind: domain.NotificationAssigned, message: assignedMsg},
			)
			if change.Old != "" && change.Old != change.New {
				pending = append(pending, delivery{
					recipient: change.Old,
					kind:      domain.NotificationUnassigned,
					message:   fmt.Sprintf("Ticket %q is no longer assigned to you", event.Ticket.Title),
				})
			}
		} else if change.Old != "" {
			unassignedMsg := fmt.Sprintf("Ticket %q is now unassigned", event.Ticket.Title)
			pending = append(pending,
				delivery{recipient: change.Old, kind: domain.NotificationUnassigned,
					message: fmt.Sprintf("Ticket %q is no longer assigned to you", event.Ticket.Title)},
				delivery{recipient: event.Ticket.RequesterID, kind: domain.NotificationUnassigned, message: unassignedMsg},
			)
		}
	}

	n.deliver(ctx, event, pending)
	return nil
}

// HandleCommentAdded notifies the requester and the current assignee,
// skipping the commenter.
func (n *NotificationService) HandleCommentAdded(ctx context.Context, event events.Event) error {
	message := fmt.Sprintf("New comment on ticket %q", event.Ticket.Title)
	pending := []delivery{
		{recipient: event.Ticket.RequesterID, kind: domain.NotificationCommentAdded, message: message},
	}
	if event.Ticket.Assigned() {
		pending = append(pending, delivery{
			recipient: *event.Ticket.AssigneeID,
			kind:      domain.NotificationCommentAdded,
			message:   message,
		})
	}
	n.deliver(ctx, event, pending)
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, pending []delivery) {
	seen := make(map[string]struct{}, len(pending))
	for _, d := range pending {
		if d.recipient == "" || d.recipient == event.ActorID {
			continue
		}
		key := d.recipient + "|" + string(d.kind)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, err := n.users.GetByID(ctx, d.recipient); err != nil {
			n.logger.Warn("notification recipient not resolved",
				zap.String("recipient_id", d.recipient),
				zap.String("ticket_id", event.Ticket.ID),
				zap.Error(err),
			)
			continue
		}

		record := &domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: d.recipient,
			TicketID:    event.Ticket.ID,
			Kind:        d.kind,
			Message:     d.message,
			CreatedAt:   time.Now().UTC(),
		}
		if err := n.notifications.Create(ctx, record); err != nil {
			n.logger.Warn("notification not stored",
				zap.String("recipient_id", d.recipient),
				zap.String("ticket_id", event.Ticket.ID),
				zap.Error(err),
			)
			continue
		}
		n.metrics.RecordNotification(string(d.kind))
	}
}

// ListForUser returns the recipient's notifications, newest first.
// Archived notifications are excluded.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	list, err := n.notifications.ListByRecipient(ctx, userID, unreadOnly)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return list, nil
}

// MarkRead flips the read flag. Only the owning recipient may do so.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	record, err := n.owned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if record.Read {
		return record, nil
	}
	record.Read = true
	if err := n.notifications.Update(ctx, record); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return record, nil
}

// MarkManyRead marks a batch of the recipient's notifications read and
// returns how many actually flipped.
func (n *NotificationService) MarkManyRead(ctx context.Context, userID string, notificationIDs []string) (int, error) {
	marked := 0
	for _, id := range notificationIDs {
		record, err := n.owned(ctx, userID, id)
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) {
				continue
			}
			return marked, err
		}
		if record.Read {
			continue
		}
		record.Read = true
		if err := n.notifications.Update(ctx, record); err != nil {
			return marked, apperrors.NewPersistenceError(err)
		}
		marked++
	}
	return marked, nil
}

// Archive hides a notification from the default inbox. Only read
// notifications can be archived; they are never deleted.
func (n *NotificationService) Archive(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	record, err := n.owned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if !record.Read {
		return nil, apperrors.NewValidationError("only read notifications can be archived", nil)
	}
	if record.Archived {
		return record, nil
	}
	record.Archived = true
	if err := n.notifications.Update(ctx, record); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return record, nil
}

// owned loads a notification and hides its existence from anyone but
// the recipient.
func (n *NotificationService) owned(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	record, err := n.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	if record.RecipientID != userID {
		return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
	}
	return record, nil
}
