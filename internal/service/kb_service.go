package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// KBService maintains the knowledge base. Any authenticated role may
// read and search; only managers write.
type KBService struct {
	articles repository.ArticleRepository
}

// NewKBService constructs the service.
func NewKBService(articles repository.ArticleRepository) *KBService {
	return &KBService{articles: articles}
}

// ArticleInput describes creation or update payload.
type ArticleInput struct {
	Title    string
	Content  string
	Keywords []string
	Category string
}

// Create publishes a new article.
func (s *KBService) Create(ctx context.Context, actor *domain.User, input ArticleInput) (*domain.Article, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can publish articles")
	}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, apperrors.NewValidationError("title and content are required", nil)
	}

	now := time.Now().UTC()
	article := &domain.Article{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		AuthorID:  actor.ID,
		Keywords:  input.Keywords,
		Category:  strings.TrimSpace(input.Category),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return article, nil
}

// Update rewrites an article's editable fields.
func (s *KBService) Update(ctx context.Context, actor *domain.User, id string, input ArticleInput) (*domain.Article, error) {
	if actor.Role != domain.RoleTechManager {
		return nil, apperrors.NewForbidden("only managers can edit articles")
	}
	article, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, apperrors.NewValidationError("title and content are required", nil)
	}
	article.Title = title
	article.Content = content
	article.Keywords = input.Keywords
	article.Category = strings.TrimSpace(input.Category)
	article.UpdatedAt = time.Now().UTC()
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return article, nil
}

// Delete removes an article.
func (s *KBService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if actor.Role != domain.RoleTechManager {
		return apperrors.NewForbidden("only managers can delete articles")
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("article", map[string]any{"article_id": id})
		}
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

// Get returns one article.
func (s *KBService) Get(ctx context.Context, id string) (*domain.Article, error) {
	return s.get(ctx, id)
}

// List returns all articles, most recently updated first.
func (s *KBService) List(ctx context.Context) ([]domain.Article, error) {
	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return articles, nil
}

// Search matches a query case-insensitively against title, keywords,
// and content.
func (s *KBService) Search(ctx context.Context, query string) ([]domain.Article, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, nil
	}
	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	var matched []domain.Article
	for _, article := range articles {
		if articleMatches(&article, query) {
			matched = append(matched, article)
		}
	}
	return matched, nil
}

func articleMatches(article *domain.Article, query string) bool {
	if strings.Contains(strings.ToLower(article.Title), query) {
		return true
	}
	for _, kw := range article.Keywords {
		if strings.Contains(strings.ToLower(kw), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(article.Content), query)
}

func (s *KBService) get(ctx context.Context, id string) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("article", map[string]any{"article_id": id})
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	return article, nil
}
