package dto

import (
	"time"

	"github.com/facilityworks/helpdesk/internal/domain"
)

// NotificationResponse representation.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	TicketID  string                  `json:"ticket_id"`
	Kind      domain.NotificationKind `json:"kind"`
	Message   string                  `json:"message"`
	Read      bool                    `json:"read"`
	Archived  bool                    `json:"archived"`
	CreatedAt time.Time               `json:"created_at"`
}

// MarkReadRequest lists notification IDs to mark as read.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkReadResponse reports how many notifications were updated.
type MarkReadResponse struct {
	Updated int `json:"updated"`
}
