package domain

import "time"

// NotificationKind enumerates the ticket events a user can be told about.
type NotificationKind string

const (
	NotificationStatusChanged NotificationKind = "STATUS_CHANGED"
	NotificationAssigned      NotificationKind = "ASSIGNED"
	NotificationUnassigned    NotificationKind = "UNASSIGNED"
	NotificationCommentAdded  NotificationKind = "COMMENT_ADDED"
)

// Notification is a record addressed to one user describing a ticket
// event relevant to them. Created only by the notification engine;
// immutable afterwards except for the read and archived flags, which
// only the recipient flips. TicketID is a weak reference.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	TicketID    string           `json:"ticket_id"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	Archived    bool             `json:"archived"`
	CreatedAt   time.Time        `json:"created_at"`
}
