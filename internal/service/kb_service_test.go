package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

func TestKBArticles(t *testing.T) {
	ctx := context.Background()
	manager := newTestUser(domain.RoleTechManager)

	publish := func(t *testing.T, svc *KBService, title, content string, keywords ...string) *domain.Article {
		t.Helper()
		article, err := svc.Create(ctx, manager, ArticleInput{
			Title:    title,
			Content:  content,
			Keywords: keywords,
			Category: "how-to",
		})
		require.NoError(t, err)
		return article
	}

	t.Run("only managers publish", func(t *testing.T) {
		svc := NewKBService(repository.NewArticleMemory())
		_, err := svc.Create(ctx, newTestUser(domain.RoleTechnician), ArticleInput{Title: "t", Content: "c"})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("title and content required", func(t *testing.T) {
		svc := NewKBService(repository.NewArticleMemory())
		_, err := svc.Create(ctx, manager, ArticleInput{Title: " ", Content: "c"})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("search matches title, keywords and content", func(t *testing.T) {
		svc := NewKBService(repository.NewArticleMemory())
		vpn := publish(t, svc, "VPN setup", "Install the client and sign in.", "remote", "network")
		printer := publish(t, svc, "Printer troubleshooting", "Clear the paper path first.", "hardware")
		publish(t, svc, "Badge requests", "File a facilities request.", "access")

		byTitle, err := svc.Search(ctx, "vpn")
		require.NoError(t, err)
		require.Len(t, byTitle, 1)
		assert.Equal(t, vpn.ID, byTitle[0].ID)

		byKeyword, err := svc.Search(ctx, "HARDWARE")
		require.NoError(t, err)
		require.Len(t, byKeyword, 1)
		assert.Equal(t, printer.ID, byKeyword[0].ID)

		byContent, err := svc.Search(ctx, "paper path")
		require.NoError(t, err)
		require.Len(t, byContent, 1)
		assert.Equal(t, printer.ID, byContent[0].ID)

		none, err := svc.Search(ctx, "quantum")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("anyone reads", func(t *testing.T) {
		svc := NewKBService(repository.NewArticleMemory())
		article := publish(t, svc, "VPN setup", "Install the client.")

		got, err := svc.Get(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, article.Title, got.Title)

		all, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("update rewrites fields", func(t *testing.T) {
		svc := NewKBService(repository.NewArticleMemory())
		article := publish(t, svc, "VPN setup", "Install the client.")

		updated, err := svc.Update(ctx, manager, article.ID, ArticleInput{
			Title:   "VPN setup (2024)",
			Content: "Install the new client.",
		})
		require.NoError(t, err)
		assert.Equal(t, "VPN setup (2024)", updated.Title)
	})

	t.Run("delete removes the article", func(t *testing.T) {
		svc := NewKBService(repository.NewArticleMemory())
		article := publish(t, svc, "VPN setup", "Install the client.")

		require.NoError(t, svc.Delete(ctx, manager, article.ID))
		_, err := svc.Get(ctx, article.ID)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})
}
