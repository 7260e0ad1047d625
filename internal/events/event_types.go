package events

import (
	"time"

	"github.com/facilityworks/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketCommentAdded EventType = "ticket_comment_added"
)

// Field names a ticket attribute that can appear in a change description.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldType        Field = "type"
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldAssignee    Field = "assignee"
)

// FieldChange is a change description: one field mutation on a ticket,
// recorded as stringified old and new values. Unset assignees are
// represented as the empty string.
type FieldChange struct {
	Field Field  `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Event represents one logical ticket mutation. All field changes from
// a single update call travel together so consumers can deduplicate
// per recipient and kind.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Ticket    domain.Ticket   `json:"ticket"`
	ActorID   string          `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
	Changes   []FieldChange   `json:"changes,omitempty"`
	Comment   *domain.Comment `json:"comment,omitempty"`
}

// Change returns the change description for the given field, if present.
func (e Event) Change(field Field) (FieldChange, bool) {
	for _, c := range e.Changes {
		if c.Field == field {
			return c, true
		}
	}
	return FieldChange{}, false
}
