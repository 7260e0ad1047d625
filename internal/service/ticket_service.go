package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/events"
	"github.com/facilityworks/helpdesk/internal/policy"
	"github.com/facilityworks/helpdesk/internal/repository"
	"github.com/facilityworks/helpdesk/internal/sla"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows. Every mutation passes
// the access policy gate, runs inside the ticket's critical section,
// and publishes one event describing what actually changed.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	calculator *sla.Calculator
	slaPolicy  sla.Policy
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Calculator *sla.Calculator
	SLAPolicy  sla.Policy
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Type        domain.TicketType
	Priority    domain.TicketPriority
}

// TicketPatch is a partial update. Nil fields are untouched. An
// Assignee pointing at the empty string clears the assignment.
type TicketPatch struct {
	Title       *string
	Description *string
	Type        *domain.TicketType
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Assignee    *string
}

// Empty reports whether the patch carries no fields at all.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Type == nil &&
		p.Status == nil && p.Priority == nil && p.Assignee == nil
}

// TicketListFilter describes list constraints exposed to adapters.
type TicketListFilter struct {
	Status               *domain.TicketStatus
	Type                 *domain.TicketType
	Priority             *domain.TicketPriority
	Requester            *string
	Assignee             *string
	RecentlyUpdatedFirst bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		calculator: deps.Calculator,
		slaPolicy:  deps.SLAPolicy,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Create opens a new ticket on behalf of the actor.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if !policy.CanPerform(actor.Role, actor.ID, nil, policy.OpCreateTicket) {
		return nil, apperrors.NewForbidden("not allowed to create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if !domain.ValidType(input.Type) {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": input.Type})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Type:        input.Type,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		RequesterID: actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.stampDueDates(ticket)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventTicketCreated,
		Ticket:  *ticket,
		ActorID: actor.ID,
	})
	return ticket, nil
}

// Get fetches a ticket, applying the actor's visibility. An end-user
// probing someone else's ticket gets a not-found, never a denial, so
// existence cannot be inferred from the error kind.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketLookupErr(err, id)
	}
	if !policy.CanPerform(actor.Role, actor.ID, ticket, policy.OpViewTicket) {
		if actor.Role == domain.RoleEndUser {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	return ticket, nil
}

// List returns tickets visible to the actor that satisfy the filter.
// End-users are always constrained to their own tickets; staff may
// self-filter by assignee but the policy does not require it.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Status:             filter.Status,
		Type:               filter.Type,
		Priority:           filter.Priority,
		RequesterID:        filter.Requester,
		AssigneeID:         filter.Assignee,
		OrderByUpdatedDesc: filter.RecentlyUpdatedFirst,
	}
	if actor.Role == domain.RoleEndUser {
		requester := actor.ID
		repoFilter.RequesterID = &requester
	} else if !policy.CanPerform(actor.Role, actor.ID, nil, policy.OpListAllTickets) {
		return nil, apperrors.NewForbidden("not allowed to list tickets")
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return tickets, nil
}

// Update applies a partial patch to a ticket. At least one field must
// be present; each changed field is validated before anything is
// written. One event carrying every change description is published
// after the commit.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id string, patch TicketPatch) (*domain.Ticket, error) {
	if patch.Empty() {
		return nil, apperrors.NewValidationError("patch must contain at least one field", nil)
	}
	if !policy.CanPerform(actor.Role, actor.ID, nil, policy.OpUpdateTicket) {
		return nil, apperrors.NewForbidden("not allowed to update tickets")
	}
	if patch.Assignee != nil && !policy.CanPerform(actor.Role, actor.ID, nil, policy.OpAssignTicket) {
		return nil, apperrors.NewForbidden("not allowed to assign tickets")
	}

	unlock := s.lockTicket(id)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketLookupErr(err, id)
	}

	changes, err := s.applyPatch(ticket, patch)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		// Every patched field already held its target value; nothing to
		// persist and nothing to notify.
		return ticket, nil
	}

	ticket.UpdatedAt = time.Now().UTC()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewPersistenceError(err)
	}

	// OPEN is only reachable from CLOSED and RESOLVED, so landing on it
	// is always a reopen.
	if change, ok := changeFor(changes, events.FieldStatus); ok && change.New == string(domain.TicketStatusOpen) {
		s.logger.Info("ticket reopened",
			zap.String("ticket_id", ticket.ID),
			zap.String("actor_id", actor.ID),
			zap.String("previous_status", change.Old),
		)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTicketUpdated,
		Ticket:  *ticket,
		ActorID: actor.ID,
		Changes: changes,
	})
	return ticket, nil
}

// AddComment appends a comment to the ticket's thread.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}

	unlock := s.lockTicket(ticketID)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketLookupErr(err, ticketID)
	}
	if !policy.CanPerform(actor.Role, actor.ID, ticket, policy.OpComment) {
		if actor.Role == domain.RoleEndUser {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewForbidden("not allowed to comment on this ticket")
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		AuthorID:  actor.ID,
		Body:      body,
		CreatedAt: now,
	}
	ticket.UpdatedAt = now
	if err := s.tickets.AddComment(ctx, ticket, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	ticket.Comments = append(ticket.Comments, *comment)

	s.publish(ctx, events.Event{
		Type:    events.EventTicketCommentAdded,
		Ticket:  *ticket,
		ActorID: actor.ID,
		Comment: comment,
	})
	return comment, nil
}

// allowedTransitions is the full status state machine. Reopening goes
// through the explicit CLOSED -> OPEN and RESOLVED -> OPEN edges.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusOnHold:     {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusOpen},
	domain.TicketStatusClosed:     {domain.TicketStatusOpen},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// applyPatch validates the patch against the current ticket and
// mutates it in place, returning one change description per field
// whose value actually changed. The ticket is untouched on error.
func (s *TicketService) applyPatch(ticket *domain.Ticket, patch TicketPatch) ([]events.FieldChange, error) {
	staged := *ticket
	var changes []events.FieldChange

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		if title != staged.Title {
			changes = append(changes, events.FieldChange{Field: events.FieldTitle, Old: staged.Title, New: title})
			staged.Title = title
		}
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		if description != staged.Description {
			changes = append(changes, events.FieldChange{Field: events.FieldDescription, Old: staged.Description, New: description})
			staged.Description = description
		}
	}
	if patch.Type != nil {
		if !domain.ValidType(*patch.Type) {
			return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": *patch.Type})
		}
		if *patch.Type != staged.Type {
			changes = append(changes, events.FieldChange{Field: events.FieldType, Old: string(staged.Type), New: string(*patch.Type)})
			staged.Type = *patch.Type
		}
	}
	if patch.Priority != nil {
		if !domain.ValidPriority(*patch.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
		}
		if *patch.Priority != staged.Priority {
			changes = append(changes, events.FieldChange{Field: events.FieldPriority, Old: string(staged.Priority), New: string(*patch.Priority)})
			staged.Priority = *patch.Priority
		}
	}
	if patch.Status != nil {
		if !domain.ValidStatus(*patch.Status) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
		}
		if *patch.Status != staged.Status {
			if !isValidTransition(staged.Status, *patch.Status) {
				return nil, apperrors.NewInvalidTransition(string(staged.Status), string(*patch.Status))
			}
			changes = append(changes, events.FieldChange{Field: events.FieldStatus, Old: string(staged.Status), New: string(*patch.Status)})
			staged.Status = *patch.Status
		}
	}
	if patch.Assignee != nil {
		oldAssignee := ""
		if staged.Assigned() {
			oldAssignee = *staged.AssigneeID
		}
		newAssignee := strings.TrimSpace(*patch.Assignee)
		if newAssignee != oldAssignee {
			changes = append(changes, events.FieldChange{Field: events.FieldAssignee, Old: oldAssignee, New: newAssignee})
			if newAssignee == "" {
				staged.AssigneeID = nil
			} else {
				staged.AssigneeID = &newAssignee
			}
		}
	}

	*ticket = staged
	return changes, nil
}

func (s *TicketService) stampDueDates(ticket *domain.Ticket) {
	if s.calculator == nil || s.slaPolicy == nil {
		return
	}
	targets := s.slaPolicy.Targets(ticket.Priority)
	if due, err := s.calculator.AddBusinessHours(ticket.CreatedAt, targets.ResponseHours); err == nil {
		ticket.ResponseDueAt = &due
	} else {
		s.logger.Warn("response due date not computed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if due, err := s.calculator.AddBusinessHours(ticket.CreatedAt, targets.ResolutionHours); err == nil {
		ticket.ResolutionDueAt = &due
	} else {
		s.logger.Warn("resolution due date not computed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

// lockTicket serializes mutations per ticket id so a read-modify-write
// never interleaves with another update of the same ticket.
func (s *TicketService) lockTicket(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func changeFor(changes []events.FieldChange, field events.Field) (events.FieldChange, bool) {
	for _, c := range changes {
		if c.Field == field {
			return c, true
		}
	}
	return events.FieldChange{}, false
}

func mapTicketLookupErr(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return apperrors.NewPersistenceError(err)
}
