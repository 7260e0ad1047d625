package repository

import (
	"context"
	"errors"
	"time"

	"github.com/facilityworks/helpdesk/internal/domain"
)

// ErrNotFound is returned by every backend when the requested record
// does not exist. Services translate it into the public error taxonomy.
var ErrNotFound = errors.New("record not found")

// TicketFilter captures list constraints. Nil fields impose none; set
// fields are combined as a conjunction.
type TicketFilter struct {
	Status      *domain.TicketStatus
	Type        *domain.TicketType
	Priority    *domain.TicketPriority
	RequesterID *string
	AssigneeID  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time

	// OrderByUpdatedDesc lists most-recently-updated first, the default
	// UI ordering. When false, tickets come back in creation order.
	OrderByUpdatedDesc bool
}

// TicketRepository encapsulates ticket persistence. Tickets are never
// deleted; closure is a status, which keeps historical counts stable.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	AddComment(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// UserRepository encapsulates user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// NotificationRepository encapsulates notification persistence.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	Update(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// ListByRecipient returns the recipient's inbox, newest first.
	// Archived notifications are never included.
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error)
}

// ArticleRepository encapsulates knowledge base persistence.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context) ([]domain.Article, error)
}

// MatchesFilter reports whether the ticket satisfies every constraint
// in the filter. Shared by the snapshot and in-memory backends; the
// Postgres backend expresses the same conjunction in SQL.
func MatchesFilter(t *domain.Ticket, f TicketFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.RequesterID != nil && t.RequesterID != *f.RequesterID {
		return false
	}
	if f.AssigneeID != nil {
		if t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID {
			return false
		}
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}
