package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketType distinguishes the two supported request categories.
type TicketType string

const (
	TicketTypeIT         TicketType = "IT"
	TicketTypeFacilities TicketType = "FACILITIES"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusOnHold, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidType reports whether t is a member of the type enum.
func ValidType(t TicketType) bool {
	return t == TicketTypeIT || t == TicketTypeFacilities
}

// ValidPriority reports whether p is a member of the priority enum.
func ValidPriority(p TicketPriority) bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// Comment is an append-only entry in a ticket's thread. Comments are
// never edited or removed once attached.
type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is the aggregate for support requests. Requester and assignee
// are weak references: the referenced user may no longer resolve, and
// renderers substitute a placeholder rather than failing.
type Ticket struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Type            TicketType     `json:"type"`
	Status          TicketStatus   `json:"status"`
	Priority        TicketPriority `json:"priority"`
	RequesterID     string         `json:"requester_id"`
	AssigneeID      *string        `json:"assignee_id,omitempty"`
	ResponseDueAt   *time.Time     `json:"response_due_at,omitempty"`
	ResolutionDueAt *time.Time     `json:"resolution_due_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Comments        []Comment      `json:"comments,omitempty"`
}

// Assigned reports whether the ticket currently has an assignee.
func (t *Ticket) Assigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}
