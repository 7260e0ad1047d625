package repository

import (
	"context"
	"sort"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/storage"
)

// Snapshot backends persist each collection as one JSON file through
// the storage package. Mutations hold the collection's exclusive lock
// across the whole load-modify-persist cycle; reads rely on the atomic
// replace and go lockless.

const (
	ticketsCollection       = "tickets"
	usersCollection         = "users"
	notificationsCollection = "notifications"
	articlesCollection      = "kb_articles"
)

type snapshotTickets struct {
	store *storage.Store
}

// NewTicketSnapshot returns a snapshot-backed ticket repository.
func NewTicketSnapshot(store *storage.Store) TicketRepository {
	return &snapshotTickets{store: store}
}

func (r *snapshotTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.store.WithLock(ticketsCollection, func() error {
		var all []domain.Ticket
		if err := r.store.Load(ticketsCollection, &all); err != nil {
			return err
		}
		all = append(all, cloneTicket(*ticket))
		return r.store.Persist(ticketsCollection, all)
	})
}

func (r *snapshotTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.mutate(ticket.ID, func(stored *domain.Ticket) {
		comments := stored.Comments
		*stored = cloneTicket(*ticket)
		stored.Comments = comments
	})
}

func (r *snapshotTickets) AddComment(_ context.Context, ticket *domain.Ticket, comment *domain.Comment) error {
	return r.mutate(ticket.ID, func(stored *domain.Ticket) {
		stored.Comments = append(stored.Comments, *comment)
		stored.UpdatedAt = ticket.UpdatedAt
	})
}

func (r *snapshotTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var all []domain.Ticket
	if err := r.store.Load(ticketsCollection, &all); err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			ticket := cloneTicket(all[i])
			return &ticket, nil
		}
	}
	return nil, ErrNotFound
}

func (r *snapshotTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var all []domain.Ticket
	if err := r.store.Load(ticketsCollection, &all); err != nil {
		return nil, err
	}
	var result []domain.Ticket
	for i := range all {
		if MatchesFilter(&all[i], filter) {
			result = append(result, cloneTicket(all[i]))
		}
	}
	if filter.OrderByUpdatedDesc {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		})
	}
	return result, nil
}

func (r *snapshotTickets) mutate(id string, apply func(*domain.Ticket)) error {
	return r.store.WithLock(ticketsCollection, func() error {
		var all []domain.Ticket
		if err := r.store.Load(ticketsCollection, &all); err != nil {
			return err
		}
		for i := range all {
			if all[i].ID == id {
				apply(&all[i])
				return r.store.Persist(ticketsCollection, all)
			}
		}
		return ErrNotFound
	})
}

type snapshotUsers struct {
	store *storage.Store
}

// NewUserSnapshot returns a snapshot-backed user repository.
func NewUserSnapshot(store *storage.Store) UserRepository {
	return &snapshotUsers{store: store}
}

func (r *snapshotUsers) Create(_ context.Context, user *domain.User) error {
	return r.store.WithLock(usersCollection, func() error {
		var all []domain.User
		if err := r.store.Load(usersCollection, &all); err != nil {
			return err
		}
		all = append(all, *user)
		return r.store.Persist(usersCollection, all)
	})
}

func (r *snapshotUsers) Update(_ context.Context, user *domain.User) error {
	return r.store.WithLock(usersCollection, func() error {
		var all []domain.User
		if err := r.store.Load(usersCollection, &all); err != nil {
			return err
		}
		for i := range all {
			if all[i].ID == user.ID {
				all[i] = *user
				return r.store.Persist(usersCollection, all)
			}
		}
		return ErrNotFound
	})
}

func (r *snapshotUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *snapshotUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *snapshotUsers) List(_ context.Context) ([]domain.User, error) {
	var all []domain.User
	if err := r.store.Load(usersCollection, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (r *snapshotUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	var all []domain.User
	if err := r.store.Load(usersCollection, &all); err != nil {
		return nil, err
	}
	for i := range all {
		if match(&all[i]) {
			user := all[i]
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

type snapshotNotifications struct {
	store *storage.Store
}

// NewNotificationSnapshot returns a snapshot-backed notification repository.
func NewNotificationSnapshot(store *storage.Store) NotificationRepository {
	return &snapshotNotifications{store: store}
}

func (r *snapshotNotifications) Create(_ context.Context, n *domain.Notification) error {
	return r.store.WithLock(notificationsCollection, func() error {
		var all []domain.Notification
		if err := r.store.Load(notificationsCollection, &all); err != nil {
			return err
		}
		all = append(all, *n)
		return r.store.Persist(notificationsCollection, all)
	})
}

func (r *snapshotNotifications) Update(_ context.Context, n *domain.Notification) error {
	return r.store.WithLock(notificationsCollection, func() error {
		var all []domain.Notification
		if err := r.store.Load(notificationsCollection, &all); err != nil {
			return err
		}
		for i := range all {
			if all[i].ID == n.ID {
				all[i].Read = n.Read
				all[i].Archived = n.Archived
				return r.store.Persist(notificationsCollection, all)
			}
		}
		return ErrNotFound
	})
}

func (r *snapshotNotifications) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	var all []domain.Notification
	if err := r.store.Load(notificationsCollection, &all); err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			n := all[i]
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

func (r *snapshotNotifications) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	var all []domain.Notification
	if err := r.store.Load(notificationsCollection, &all); err != nil {
		return nil, err
	}
	var result []domain.Notification
	for _, n := range all {
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

type snapshotArticles struct {
	store *storage.Store
}

// NewArticleSnapshot returns a snapshot-backed article repository.
func NewArticleSnapshot(store *storage.Store) ArticleRepository {
	return &snapshotArticles{store: store}
}

func (r *snapshotArticles) Create(_ context.Context, article *domain.Article) error {
	return r.store.WithLock(articlesCollection, func() error {
		var all []domain.Article
		if err := r.store.Load(articlesCollection, &all); err != nil {
			return err
		}
		all = append(all, cloneArticle(*article))
		return r.store.Persist(articlesCollection, all)
	})
}

func (r *snapshotArticles) Update(_ context.Context, article *domain.Article) error {
	return r.store.WithLock(articlesCollection, func() error {
		var all []domain.Article
		if err := r.store.Load(articlesCollection, &all); err != nil {
			return err
		}
		for i := range all {
			if all[i].ID == article.ID {
				all[i] = cloneArticle(*article)
				return r.store.Persist(articlesCollection, all)
			}
		}
		return ErrNotFound
	})
}

func (r *snapshotArticles) Delete(_ context.Context, id string) error {
	return r.store.WithLock(articlesCollection, func() error {
		var all []domain.Article
		if err := r.store.Load(articlesCollection, &all); err != nil {
			return err
		}
		for i := range all {
			if all[i].ID == id {
				all = append(all[:i], all[i+1:]...)
				return r.store.Persist(articlesCollection, all)
			}
		}
		return ErrNotFound
	})
}

func (r *snapshotArticles) GetByID(_ context.Context, id string) (*domain.Article, error) {
	var all []domain.Article
	if err := r.store.Load(articlesCollection, &all); err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			article := cloneArticle(all[i])
			return &article, nil
		}
	}
	return nil, ErrNotFound
}

func (r *snapshotArticles) List(_ context.Context) ([]domain.Article, error) {
	var all []domain.Article
	if err := r.store.Load(articlesCollection, &all); err != nil {
		return nil, err
	}
	result := make([]domain.Article, 0, len(all))
	for i := range all {
		result = append(result, cloneArticle(all[i]))
	}
	return result, nil
}
