package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/events"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newTestUser(role domain.Role) *domain.User {
	return &domain.User{
		ID:       uuid.NewString(),
		Username: "user-" + uuid.NewString()[:8],
		Role:     role,
		Active:   true,
	}
}

type ticketFixture struct {
	service    *TicketService
	repo       repository.TicketRepository
	dispatcher *recordingDispatcher
	requester  *domain.User
	technician *domain.User
	manager    *domain.User
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	repo := repository.NewTicketMemory()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Dispatcher: dispatcher,
	})
	return &ticketFixture{
		service:    svc,
		repo:       repo,
		dispatcher: dispatcher,
		requester:  newTestUser(domain.RoleEndUser),
		technician: newTestUser(domain.RoleTechnician),
		manager:    newTestUser(domain.RoleTechManager),
	}
}

func (f *ticketFixture) mustCreate(t *testing.T, actor *domain.User) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.Create(context.Background(), actor, TicketCreateInput{
		Title:       "printer jammed",
		Description: "third floor printer shows error E02",
		Type:        domain.TicketTypeIT,
	})
	require.NoError(t, err)
	return ticket
}

func TestTicketCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
		assert.Equal(t, f.requester.ID, ticket.RequesterID)
		assert.Nil(t, ticket.AssigneeID)
		assert.NotEmpty(t, ticket.ID)

		require.Len(t, f.dispatcher.published, 1)
		assert.Equal(t, events.EventTicketCreated, f.dispatcher.published[0].Type)
	})

	t.Run("explicit priority kept", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket, err := f.service.Create(ctx, f.requester, TicketCreateInput{
			Title:       "door badge reader down",
			Description: "east entrance reader rejects all badges",
			Type:        domain.TicketTypeFacilities,
			Priority:    domain.TicketPriorityHigh,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		_, err := f.service.Create(ctx, f.requester, TicketCreateInput{
			Title:       "   ",
			Description: "something",
			Type:        domain.TicketTypeIT,
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
		assert.Empty(t, f.dispatcher.published)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		_, err := f.service.Create(ctx, f.requester, TicketCreateInput{
			Title:       "hvac noise",
			Description: "rattling sound in vents",
			Type:        domain.TicketType("HVAC"),
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("unknown priority rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		_, err := f.service.Create(ctx, f.requester, TicketCreateInput{
			Title:       "hvac noise",
			Description: "rattling sound in vents",
			Type:        domain.TicketTypeFacilities,
			Priority:    domain.TicketPriority("URGENT"),
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		from    domain.TicketStatus
		to      domain.TicketStatus
		allowed bool
	}{
		{domain.TicketStatusOpen, domain.TicketStatusInProgress, true},
		{domain.TicketStatusOpen, domain.TicketStatusClosed, true},
		{domain.TicketStatusOpen, domain.TicketStatusResolved, false},
		{domain.TicketStatusOpen, domain.TicketStatusOnHold, false},
		{domain.TicketStatusInProgress, domain.TicketStatusOnHold, true},
		{domain.TicketStatusInProgress, domain.TicketStatusResolved, true},
		{domain.TicketStatusInProgress, domain.TicketStatusClosed, true},
		{domain.TicketStatusInProgress, domain.TicketStatusOpen, false},
		{domain.TicketStatusOnHold, domain.TicketStatusInProgress, true},
		{domain.TicketStatusOnHold, domain.TicketStatusClosed, true},
		{domain.TicketStatusOnHold, domain.TicketStatusResolved, false},
		{domain.TicketStatusResolved, domain.TicketStatusClosed, true},
		{domain.TicketStatusResolved, domain.TicketStatusOpen, true},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, false},
		{domain.TicketStatusClosed, domain.TicketStatusOpen, true},
		{domain.TicketStatusClosed, domain.TicketStatusInProgress, false},
		{domain.TicketStatusClosed, domain.TicketStatusResolved, false},
	}

	for _, tc := range cases {
		name := string(tc.from) + " to " + string(tc.to)
		t.Run(name, func(t *testing.T) {
			f := newTicketFixture(t)
			ticket := f.mustCreate(t, f.requester)

			// Walk the ticket into the starting state directly through the
			// repository so the path under test is only the final hop.
			stored, err := f.repo.GetByID(ctx, ticket.ID)
			require.NoError(t, err)
			stored.Status = tc.from
			require.NoError(t, f.repo.Update(ctx, stored))

			next := tc.to
			updated, err := f.service.Update(ctx, f.technician, ticket.ID, TicketPatch{Status: &next})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
				return
			}

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

			// The stored ticket must still hold the previous status.
			after, err := f.repo.GetByID(ctx, ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.from, after.Status)
		})
	}

	t.Run("both reopen edges are logged", func(t *testing.T) {
		for _, from := range []domain.TicketStatus{domain.TicketStatusClosed, domain.TicketStatusResolved} {
			core, logs := observer.New(zapcore.InfoLevel)
			dispatcher := &recordingDispatcher{}
			repo := repository.NewTicketMemory()
			svc := NewTicketService(TicketDependencies{
				TicketRepo: repo,
				Dispatcher: dispatcher,
				Logger:     zap.New(core),
			})
			technician := newTestUser(domain.RoleTechnician)

			ticket, err := svc.Create(ctx, technician, TicketCreateInput{
				Title:       "door badge reader offline",
				Description: "east entrance reader rejects all badges",
				Type:        domain.TicketTypeFacilities,
			})
			require.NoError(t, err)

			stored, err := repo.GetByID(ctx, ticket.ID)
			require.NoError(t, err)
			stored.Status = from
			require.NoError(t, repo.Update(ctx, stored))

			open := domain.TicketStatusOpen
			_, err = svc.Update(ctx, technician, ticket.ID, TicketPatch{Status: &open})
			require.NoError(t, err)

			entries := logs.FilterMessage("ticket reopened").All()
			require.Len(t, entries, 1, "reopening from %s", from)
			assert.Equal(t, string(from), entries[0].ContextMap()["previous_status"])
		}
	})

	t.Run("same status is a no-op, not a transition error", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		same := domain.TicketStatusOpen
		updated, err := f.service.Update(ctx, f.technician, ticket.ID, TicketPatch{Status: &same})
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	})
}

func TestTicketUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty patch rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		_, err := f.service.Update(ctx, f.technician, ticket.ID, TicketPatch{})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("no-op patch publishes nothing", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)
		baseline := len(f.dispatcher.published)

		title := ticket.Title
		updated, err := f.service.Update(ctx, f.technician, ticket.ID, TicketPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, ticket.UpdatedAt, updated.UpdatedAt)
		assert.Len(t, f.dispatcher.published, baseline)
	})

	t.Run("one event carries all changes", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)
		baseline := len(f.dispatcher.published)

		status := domain.TicketStatusInProgress
		priority := domain.TicketPriorityHigh
		assignee := f.technician.ID
		_, err := f.service.Update(ctx, f.technician, ticket.ID, TicketPatch{
			Status:   &status,
			Priority: &priority,
			Assignee: &assignee,
		})
		require.NoError(t, err)

		require.Len(t, f.dispatcher.published, baseline+1)
		event := f.dispatcher.published[len(f.dispatcher.published)-1]
		assert.Equal(t, events.EventTicketUpdated, event.Type)
		assert.Len(t, event.Changes, 3)

		change, ok := event.Change(events.FieldAssignee)
		require.True(t, ok)
		assert.Equal(t, "", change.Old)
		assert.Equal(t, f.technician.ID, change.New)
	})

	t.Run("end user cannot update", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		status := domain.TicketStatusClosed
		_, err := f.service.Update(ctx, f.requester, ticket.ID, TicketPatch{Status: &status})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("unassign clears assignee", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		assignee := f.technician.ID
		_, err := f.service.Update(ctx, f.manager, ticket.ID, TicketPatch{Assignee: &assignee})
		require.NoError(t, err)

		empty := ""
		updated, err := f.service.Update(ctx, f.manager, ticket.ID, TicketPatch{Assignee: &empty})
		require.NoError(t, err)
		assert.Nil(t, updated.AssigneeID)
	})

	t.Run("invalid field leaves ticket untouched", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		title := "new title"
		badStatus := domain.TicketStatusResolved
		_, err := f.service.Update(ctx, f.technician, ticket.ID, TicketPatch{
			Title:  &title,
			Status: &badStatus,
		})
		require.Error(t, err)

		stored, err := f.repo.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.Title, stored.Title)
		assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	})

	t.Run("missing ticket yields not found", func(t *testing.T) {
		f := newTicketFixture(t)
		status := domain.TicketStatusClosed
		_, err := f.service.Update(ctx, f.technician, uuid.NewString(), TicketPatch{Status: &status})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})
}

func TestTicketVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("requester sees own ticket", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		got, err := f.service.Get(ctx, f.requester, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, got.ID)
	})

	t.Run("foreign ticket is indistinguishable from missing", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)
		stranger := newTestUser(domain.RoleEndUser)

		_, errForeign := f.service.Get(ctx, stranger, ticket.ID)
		_, errMissing := f.service.Get(ctx, stranger, uuid.NewString())

		require.Error(t, errForeign)
		require.Error(t, errMissing)
		assert.True(t, apperrors.HasCode(errForeign, apperrors.CodeNotFound))
		assert.True(t, apperrors.HasCode(errMissing, apperrors.CodeNotFound))
	})

	t.Run("staff see everything", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		_, err := f.service.Get(ctx, f.technician, ticket.ID)
		require.NoError(t, err)
		_, err = f.service.Get(ctx, f.manager, ticket.ID)
		require.NoError(t, err)
	})

	t.Run("end user list is forced to own tickets", func(t *testing.T) {
		f := newTicketFixture(t)
		f.mustCreate(t, f.requester)
		other := newTestUser(domain.RoleEndUser)
		_, err := f.service.Create(ctx, other, TicketCreateInput{
			Title:       "other request",
			Description: "belongs to someone else",
			Type:        domain.TicketTypeIT,
		})
		require.NoError(t, err)

		// Even an explicit foreign requester filter is overridden.
		foreign := other.ID
		tickets, err := f.service.List(ctx, f.requester, TicketListFilter{Requester: &foreign})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, f.requester.ID, tickets[0].RequesterID)
	})

	t.Run("staff filter by status", func(t *testing.T) {
		f := newTicketFixture(t)
		first := f.mustCreate(t, f.requester)
		f.mustCreate(t, f.requester)

		status := domain.TicketStatusInProgress
		_, err := f.service.Update(ctx, f.technician, first.ID, TicketPatch{Status: &status})
		require.NoError(t, err)

		tickets, err := f.service.List(ctx, f.technician, TicketListFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, first.ID, tickets[0].ID)
	})
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("comment lands on the thread", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		comment, err := f.service.AddComment(ctx, f.requester, ticket.ID, "any update on this?")
		require.NoError(t, err)
		assert.Equal(t, f.requester.ID, comment.AuthorID)

		stored, err := f.repo.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		require.Len(t, stored.Comments, 1)
		assert.Equal(t, "any update on this?", stored.Comments[0].Body)
	})

	t.Run("blank body rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)

		_, err := f.service.AddComment(ctx, f.requester, ticket.ID, "  \n ")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("end user cannot comment on foreign ticket", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)
		stranger := newTestUser(domain.RoleEndUser)

		_, err := f.service.AddComment(ctx, stranger, ticket.ID, "drive-by comment")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("comment publishes an event", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.mustCreate(t, f.requester)
		baseline := len(f.dispatcher.published)

		_, err := f.service.AddComment(ctx, f.technician, ticket.ID, "looking into it")
		require.NoError(t, err)

		require.Len(t, f.dispatcher.published, baseline+1)
		event := f.dispatcher.published[len(f.dispatcher.published)-1]
		assert.Equal(t, events.EventTicketCommentAdded, event.Type)
		require.NotNil(t, event.Comment)
		assert.Equal(t, "looking into it", event.Comment.Body)
	})
}
