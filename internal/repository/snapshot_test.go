package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/storage"
)

func newSnapshotStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleTicket(requesterID string) *domain.Ticket {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       "laptop will not boot",
		Description: "black screen after the vendor logo",
		Type:        domain.TicketTypeIT,
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		RequesterID: requesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestTicketSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("survives a store reopen", func(t *testing.T) {
		dir := t.TempDir()
		store, err := storage.NewStore(dir)
		require.NoError(t, err)

		repo := NewTicketSnapshot(store)
		ticket := sampleTicket("req-1")
		require.NoError(t, repo.Create(ctx, ticket))

		reopened, err := storage.NewStore(dir)
		require.NoError(t, err)
		fresh := NewTicketSnapshot(reopened)

		got, err := fresh.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.Title, got.Title)
		assert.Equal(t, ticket.Status, got.Status)
		assert.True(t, ticket.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("update keeps the comment thread", func(t *testing.T) {
		repo := NewTicketSnapshot(newSnapshotStore(t))
		ticket := sampleTicket("req-1")
		require.NoError(t, repo.Create(ctx, ticket))

		comment := &domain.Comment{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			AuthorID:  "req-1",
			Body:      "still broken",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.AddComment(ctx, ticket, comment))

		ticket.Status = domain.TicketStatusInProgress
		require.NoError(t, repo.Update(ctx, ticket))

		got, err := repo.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, got.Status)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "still broken", got.Comments[0].Body)
	})

	t.Run("missing ids yield ErrNotFound", func(t *testing.T) {
		repo := NewTicketSnapshot(newSnapshotStore(t))

		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.True(t, errors.Is(err, ErrNotFound))

		err = repo.Update(ctx, sampleTicket("req-1"))
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("filters apply", func(t *testing.T) {
		repo := NewTicketSnapshot(newSnapshotStore(t))
		mine := sampleTicket("req-1")
		theirs := sampleTicket("req-2")
		require.NoError(t, repo.Create(ctx, mine))
		require.NoError(t, repo.Create(ctx, theirs))

		requester := "req-1"
		got, err := repo.List(ctx, TicketFilter{RequesterID: &requester})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, mine.ID, got[0].ID)
	})

	t.Run("recently updated first", func(t *testing.T) {
		repo := NewTicketSnapshot(newSnapshotStore(t))
		older := sampleTicket("req-1")
		newer := sampleTicket("req-1")
		older.UpdatedAt = older.UpdatedAt.Add(-time.Hour)
		require.NoError(t, repo.Create(ctx, older))
		require.NoError(t, repo.Create(ctx, newer))

		got, err := repo.List(ctx, TicketFilter{OrderByUpdatedDesc: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
	})
}

func TestUserSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup by id and username", func(t *testing.T) {
		repo := NewUserSnapshot(newSnapshotStore(t))
		user := &domain.User{
			ID:       uuid.NewString(),
			Username: "jdoe",
			Role:     domain.RoleTechnician,
			Active:   true,
		}
		require.NoError(t, repo.Create(ctx, user))

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "jdoe", byID.Username)

		byName, err := repo.GetByUsername(ctx, "jdoe")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		_, err = repo.GetByUsername(ctx, "nobody")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("update persists flag changes", func(t *testing.T) {
		repo := NewUserSnapshot(newSnapshotStore(t))
		user := &domain.User{ID: uuid.NewString(), Username: "jdoe", Role: domain.RoleEndUser, Active: true}
		require.NoError(t, repo.Create(ctx, user))

		user.Active = false
		require.NoError(t, repo.Update(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})
}

func TestNotificationSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient inbox is newest first", func(t *testing.T) {
		repo := NewNotificationSnapshot(newSnapshotStore(t))
		now := time.Now().UTC()
		older := &domain.Notification{
			ID: uuid.NewString(), RecipientID: "u1", TicketID: "t1",
			Kind: domain.NotificationStatusChanged, CreatedAt: now.Add(-time.Minute),
		}
		newer := &domain.Notification{
			ID: uuid.NewString(), RecipientID: "u1", TicketID: "t1",
			Kind: domain.NotificationCommentAdded, CreatedAt: now,
		}
		foreign := &domain.Notification{
			ID: uuid.NewString(), RecipientID: "u2", TicketID: "t1",
			Kind: domain.NotificationStatusChanged, CreatedAt: now,
		}
		for _, n := range []*domain.Notification{older, newer, foreign} {
			require.NoError(t, repo.Create(ctx, n))
		}

		inbox, err := repo.ListByRecipient(ctx, "u1", false)
		require.NoError(t, err)
		require.Len(t, inbox, 2)
		assert.Equal(t, newer.ID, inbox[0].ID)
	})

	t.Run("archived records are excluded", func(t *testing.T) {
		repo := NewNotificationSnapshot(newSnapshotStore(t))
		record := &domain.Notification{
			ID: uuid.NewString(), RecipientID: "u1", TicketID: "t1",
			Kind: domain.NotificationStatusChanged, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, record))

		record.Read = true
		record.Archived = true
		require.NoError(t, repo.Update(ctx, record))

		inbox, err := repo.ListByRecipient(ctx, "u1", false)
		require.NoError(t, err)
		assert.Empty(t, inbox)
	})

	t.Run("update flips only flags", func(t *testing.T) {
		repo := NewNotificationSnapshot(newSnapshotStore(t))
		record := &domain.Notification{
			ID: uuid.NewString(), RecipientID: "u1", TicketID: "t1",
			Kind: domain.NotificationStatusChanged, Message: "original",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, record))

		record.Read = true
		record.Message = "tampered"
		require.NoError(t, repo.Update(ctx, record))

		got, err := repo.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, got.Read)
		assert.Equal(t, "original", got.Message)
	})
}

func TestArticleSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("create, update, delete", func(t *testing.T) {
		repo := NewArticleSnapshot(newSnapshotStore(t))
		now := time.Now().UTC()
		article := &domain.Article{
			ID: uuid.NewString(), Title: "VPN setup", Content: "steps",
			AuthorID: "mgr", Keywords: []string{"remote"},
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, repo.Create(ctx, article))

		article.Content = "updated steps"
		require.NoError(t, repo.Update(ctx, article))

		got, err := repo.GetByID(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated steps", got.Content)

		require.NoError(t, repo.Delete(ctx, article.ID))
		_, err = repo.GetByID(ctx, article.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(repo.Delete(ctx, article.ID), ErrNotFound))
	})
}
