package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/events"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

type notificationFixture struct {
	engine    *NotificationService
	inbox     repository.NotificationRepository
	users     repository.UserRepository
	requester *domain.User
	techA     *domain.User
	techB     *domain.User
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	inbox := repository.NewNotificationMemory()
	users := repository.NewUserMemory()
	f := &notificationFixture{
		engine:    NewNotificationService(inbox, users, nil, nil),
		inbox:     inbox,
		users:     users,
		requester: newTestUser(domain.RoleEndUser),
		techA:     newTestUser(domain.RoleTechnician),
		techB:     newTestUser(domain.RoleTechnician),
	}
	ctx := context.Background()
	for _, u := range []*domain.User{f.requester, f.techA, f.techB} {
		require.NoError(t, users.Create(ctx, u))
	}
	return f
}

func (f *notificationFixture) ticket(assignee *string) domain.Ticket {
	return domain.Ticket{
		ID:          uuid.NewString(),
		Title:       "broken projector",
		Status:      domain.TicketStatusInProgress,
		RequesterID: f.requester.ID,
		AssigneeID:  assignee,
	}
}

func (f *notificationFixture) inboxOf(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	list, err := f.inbox.ListByRecipient(context.Background(), userID, false)
	require.NoError(t, err)
	return list
}

func TestHandleTicketUpdated(t *testing.T) {
	ctx := context.Background()

	t.Run("status change notifies the requester", func(t *testing.T) {
		f := newNotificationFixture(t)
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  f.ticket(nil),
			ActorID: f.techA.ID,
			Changes: []events.FieldChange{{Field: events.FieldStatus, Old: "OPEN", New: "IN_PROGRESS"}},
		}
		require.NoError(t, f.engine.HandleTicketUpdated(ctx, event))

		inbox := f.inboxOf(t, f.requester.ID)
		require.Len(t, inbox, 1)
		assert.Equal(t, domain.NotificationStatusChanged, inbox[0].Kind)
		assert.False(t, inbox[0].Read)
	})

	t.Run("reassignment fans out to all three parties", func(t *testing.T) {
		f := newNotificationFixture(t)
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  f.ticket(&f.techB.ID),
			ActorID: uuid.NewString(),
			Changes: []events.FieldChange{{Field: events.FieldAssignee, Old: f.techA.ID, New: f.techB.ID}},
		}
		require.NoError(t, f.engine.HandleTicketUpdated(ctx, event))

		newInbox := f.inboxOf(t, f.techB.ID)
		require.Len(t, newInbox, 1)
		assert.Equal(t, domain.NotificationAssigned, newInbox[0].Kind)

		requesterInbox := f.inboxOf(t, f.requester.ID)
		require.Len(t, requesterInbox, 1)
		assert.Equal(t, domain.NotificationAssigned, requesterInbox[0].Kind)

		oldInbox := f.inboxOf(t, f.techA.ID)
		require.Len(t, oldInbox, 1)
		assert.Equal(t, domain.NotificationUnassigned, oldInbox[0].Kind)
	})

	t.Run("unassignment notifies old assignee and requester", func(t *testing.T) {
		f := newNotificationFixture(t)
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  f.ticket(nil),
			ActorID: uuid.NewString(),
			Changes: []events.FieldChange{{Field: events.FieldAssignee, Old: f.techA.ID, New: ""}},
		}
		require.NoError(t, f.engine.HandleTicketUpdated(ctx, event))

		assert.Len(t, f.inboxOf(t, f.techA.ID), 1)
		assert.Len(t, f.inboxOf(t, f.requester.ID), 1)
	})

	t.Run("actor never notifies themselves", func(t *testing.T) {
		f := newNotificationFixture(t)
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  f.ticket(&f.techA.ID),
			ActorID: f.techA.ID,
			Changes: []events.FieldChange{{Field: events.FieldAssignee, Old: "", New: f.techA.ID}},
		}
		require.NoError(t, f.engine.HandleTicketUpdated(ctx, event))

		assert.Empty(t, f.inboxOf(t, f.techA.ID))
		// The requester still hears about the assignment.
		assert.Len(t, f.inboxOf(t, f.requester.ID), 1)
	})

	t.Run("duplicate recipient and kind collapse to one record", func(t *testing.T) {
		f := newNotificationFixture(t)
		// Requester is also the new assignee: both assignment deliveries
		// target the same (recipient, kind) pair.
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  f.ticket(&f.requester.ID),
			ActorID: f.techA.ID,
			Changes: []events.FieldChange{{Field: events.FieldAssignee, Old: "", New: f.requester.ID}},
		}
		require.NoError(t, f.engine.HandleTicketUpdated(ctx, event))

		assert.Len(t, f.inboxOf(t, f.requester.ID), 1)
	})

	t.Run("unknown recipient is skipped, others still delivered", func(t *testing.T) {
		f := newNotificationFixture(t)
		ghost := uuid.NewString()
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  f.ticket(&ghost),
			ActorID: uuid.NewString(),
			Changes: []events.FieldChange{{Field: events.FieldAssignee, Old: "", New: ghost}},
		}
		require.NoError(t, f.engine.HandleTicketUpdated(ctx, event))

		assert.Empty(t, f.inboxOf(t, ghost))
		assert.Len(t, f.inboxOf(t, f.requester.ID), 1)
	})
}

func TestHandleCommentAdded(t *testing.T) {
	ctx := context.Background()

	t.Run("requester and assignee hear about staff comments", func(t *testing.T) {
		f := newNotificationFixture(t)
		event := events.Event{
			Type:    events.EventTicketCommentAdded,
			Ticket:  f.ticket(&f.techA.ID),
			ActorID: f.techB.ID,
		}
		require.NoError(t, f.engine.HandleCommentAdded(ctx, event))

		assert.Len(t, f.inboxOf(t, f.requester.ID), 1)
		assert.Len(t, f.inboxOf(t, f.techA.ID), 1)
	})

	t.Run("commenting requester only notifies the assignee", func(t *testing.T) {
		f := newNotificationFixture(t)
		event := events.Event{
			Type:    events.EventTicketCommentAdded,
			Ticket:  f.ticket(&f.techA.ID),
			ActorID: f.requester.ID,
		}
		require.NoError(t, f.engine.HandleCommentAdded(ctx, event))

		assert.Empty(t, f.inboxOf(t, f.requester.ID))
		assert.Len(t, f.inboxOf(t, f.techA.ID), 1)
	})
}

// failingNotifications rejects every write.
type failingNotifications struct {
	repository.NotificationRepository
}

func (f *failingNotifications) Create(context.Context, *domain.Notification) error {
	return errors.New("disk full")
}

func TestNotificationFailuresStayContained(t *testing.T) {
	ctx := context.Background()

	t.Run("storage failure never reaches the publisher", func(t *testing.T) {
		users := repository.NewUserMemory()
		requester := newTestUser(domain.RoleEndUser)
		require.NoError(t, users.Create(ctx, requester))

		engine := NewNotificationService(&failingNotifications{}, users, nil, nil)
		event := events.Event{
			Type:    events.EventTicketUpdated,
			Ticket:  domain.Ticket{ID: uuid.NewString(), Title: "t", RequesterID: requester.ID},
			ActorID: uuid.NewString(),
			Changes: []events.FieldChange{{Field: events.FieldStatus, Old: "OPEN", New: "CLOSED"}},
		}
		assert.NoError(t, engine.HandleTicketUpdated(ctx, event))
	})

	t.Run("update still succeeds when the engine blows up", func(t *testing.T) {
		dispatcher := events.NewInMemoryDispatcher()
		repo := repository.NewTicketMemory()
		svc := NewTicketService(TicketDependencies{TicketRepo: repo, Dispatcher: dispatcher})

		users := repository.NewUserMemory()
		engine := NewNotificationService(&failingNotifications{}, users, nil, nil)
		engine.RegisterHandlers(dispatcher)

		requester := newTestUser(domain.RoleEndUser)
		technician := newTestUser(domain.RoleTechnician)
		require.NoError(t, users.Create(ctx, requester))

		ticket, err := svc.Create(ctx, requester, TicketCreateInput{
			Title:       "screen flicker",
			Description: "external monitor flickers",
			Type:        domain.TicketTypeIT,
		})
		require.NoError(t, err)

		status := domain.TicketStatusInProgress
		updated, err := svc.Update(ctx, technician, ticket.ID, TicketPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	})
}

func TestInboxManagement(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *notificationFixture, read bool) *domain.Notification {
		t.Helper()
		record := &domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: f.requester.ID,
			TicketID:    uuid.NewString(),
			Kind:        domain.NotificationStatusChanged,
			Message:     "Ticket moved",
			Read:        read,
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, f.inbox.Create(ctx, record))
		return record
	}

	t.Run("mark read is idempotent", func(t *testing.T) {
		f := newNotificationFixture(t)
		record := seed(t, f, false)

		first, err := f.engine.MarkRead(ctx, f.requester.ID, record.ID)
		require.NoError(t, err)
		assert.True(t, first.Read)

		second, err := f.engine.MarkRead(ctx, f.requester.ID, record.ID)
		require.NoError(t, err)
		assert.True(t, second.Read)
	})

	t.Run("mark many counts only flips", func(t *testing.T) {
		f := newNotificationFixture(t)
		unread := seed(t, f, false)
		alreadyRead := seed(t, f, true)
		missing := uuid.NewString()

		count, err := f.engine.MarkManyRead(ctx, f.requester.ID, []string{unread.ID, alreadyRead.ID, missing})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("foreign notifications look missing", func(t *testing.T) {
		f := newNotificationFixture(t)
		record := seed(t, f, false)

		_, err := f.engine.MarkRead(ctx, f.techA.ID, record.ID)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("archive requires read", func(t *testing.T) {
		f := newNotificationFixture(t)
		record := seed(t, f, false)

		_, err := f.engine.Archive(ctx, f.requester.ID, record.ID)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

		_, err = f.engine.MarkRead(ctx, f.requester.ID, record.ID)
		require.NoError(t, err)

		archived, err := f.engine.Archive(ctx, f.requester.ID, record.ID)
		require.NoError(t, err)
		assert.True(t, archived.Archived)
	})

	t.Run("archived notifications leave the inbox", func(t *testing.T) {
		f := newNotificationFixture(t)
		archived := seed(t, f, false)
		kept := seed(t, f, false)

		_, err := f.engine.MarkRead(ctx, f.requester.ID, archived.ID)
		require.NoError(t, err)
		_, err = f.engine.Archive(ctx, f.requester.ID, archived.ID)
		require.NoError(t, err)

		inbox, err := f.engine.ListForUser(ctx, f.requester.ID, false)
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.Equal(t, kept.ID, inbox[0].ID)
	})

	t.Run("unread filter", func(t *testing.T) {
		f := newNotificationFixture(t)
		seed(t, f, false)
		seed(t, f, true)

		all, err := f.engine.ListForUser(ctx, f.requester.ID, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		unread, err := f.engine.ListForUser(ctx, f.requester.ID, true)
		require.NoError(t, err)
		assert.Len(t, unread, 1)
	})
}
