package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/facilityworks/helpdesk/internal/domain"
)

// In-memory backends. Tests inject these as persistence fakes; the
// stores themselves never notice the difference.

type memoryTickets struct {
	mu      sync.RWMutex
	order   []string
	tickets map[string]domain.Ticket
}

// NewTicketMemory returns an in-memory ticket repository.
func NewTicketMemory() TicketRepository {
	return &memoryTickets{tickets: make(map[string]domain.Ticket)}
}

func (r *memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *memoryTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *memoryTickets) AddComment(_ context.Context, ticket *domain.Ticket, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Comments = append(stored.Comments, *comment)
	stored.UpdatedAt = ticket.UpdatedAt
	r.tickets[ticket.ID] = stored
	return nil
}

func (r *memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket := cloneTicket(stored)
	return &ticket, nil
}

func (r *memoryTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Ticket
	for _, id := range r.order {
		stored := r.tickets[id]
		if MatchesFilter(&stored, filter) {
			result = append(result, cloneTicket(stored))
		}
	}
	if filter.OrderByUpdatedDesc {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		})
	}
	return result, nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		t.AssigneeID = &id
	}
	if t.Comments != nil {
		t.Comments = append([]domain.Comment(nil), t.Comments...)
	}
	return t
}

type memoryUsers struct {
	mu    sync.RWMutex
	order []string
	users map[string]domain.User
}

// NewUserMemory returns an in-memory user repository.
func NewUserMemory() UserRepository {
	return &memoryUsers{users: make(map[string]domain.User)}
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *memoryUsers) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if r.users[id].Username == username {
			user := r.users[id]
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.users[id])
	}
	return result, nil
}

type memoryNotifications struct {
	mu            sync.RWMutex
	order         []string
	notifications map[string]domain.Notification
}

// NewNotificationMemory returns an in-memory notification repository.
func NewNotificationMemory() NotificationRepository {
	return &memoryNotifications{notifications: make(map[string]domain.Notification)}
}

func (r *memoryNotifications) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[n.ID] = *n
	r.order = append(r.order, n.ID)
	return nil
}

func (r *memoryNotifications) Update(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifications[n.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Read = n.Read
	stored.Archived = n.Archived
	r.notifications[n.ID] = stored
	return nil
}

func (r *memoryNotifications) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (r *memoryNotifications) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Notification
	for _, id := range r.order {
		n := r.notifications[id]
		if n.RecipientID != recipientID || n.Archived {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type memoryArticles struct {
	mu       sync.RWMutex
	order    []string
	articles map[string]domain.Article
}

// NewArticleMemory returns an in-memory article repository.
func NewArticleMemory() ArticleRepository {
	return &memoryArticles{articles: make(map[string]domain.Article)}
}

func (r *memoryArticles) Create(_ context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[article.ID] = cloneArticle(*article)
	r.order = append(r.order, article.ID)
	return nil
}

func (r *memoryArticles) Update(_ context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.ID]; !ok {
		return ErrNotFound
	}
	r.articles[article.ID] = cloneArticle(*article)
	return nil
}

func (r *memoryArticles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return ErrNotFound
	}
	delete(r.articles, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryArticles) GetByID(_ context.Context, id string) (*domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	article := cloneArticle(stored)
	return &article, nil
}

func (r *memoryArticles) List(_ context.Context) ([]domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Article, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, cloneArticle(r.articles[id]))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func cloneArticle(a domain.Article) domain.Article {
	if a.Keywords != nil {
		a.Keywords = append([]string(nil), a.Keywords...)
	}
	return a
}
