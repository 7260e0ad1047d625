package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityworks/helpdesk/internal/api/dto"
	"github.com/facilityworks/helpdesk/internal/auth"
	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/service"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// KBHandler serves knowledge base articles.
type KBHandler struct {
	service *service.KBService
}

// NewKBHandler constructs handler.
func NewKBHandler(kbService *service.KBService) *KBHandler {
	return &KBHandler{service: kbService}
}

// CreateArticle POST /kb/articles.
func (h *KBHandler) CreateArticle(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	input, err := parseArticleBody(c)
	if err != nil {
		return err
	}
	article, err := h.service.Create(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": articleResponse(article)})
}

// UpdateArticle PUT /kb/articles/:id.
func (h *KBHandler) UpdateArticle(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	input, err := parseArticleBody(c)
	if err != nil {
		return err
	}
	article, err := h.service.Update(c.UserContext(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": articleResponse(article)})
}

// DeleteArticle DELETE /kb/articles/:id.
func (h *KBHandler) DeleteArticle(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetArticle GET /kb/articles/:id.
func (h *KBHandler) GetArticle(c *fiber.Ctx) error {
	article, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": articleResponse(article)})
}

// ListArticles GET /kb/articles. A ?q= query switches to keyword search.
func (h *KBHandler) ListArticles(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	var (
		articles []domain.Article
		err      error
	)
	if query != "" {
		articles, err = h.service.Search(c.UserContext(), query)
	} else {
		articles, err = h.service.List(c.UserContext())
	}
	if err != nil {
		return err
	}
	items := make([]dto.ArticleResponse, 0, len(articles))
	for i := range articles {
		items = append(items, articleResponse(&articles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseArticleBody(c *fiber.Ctx) (service.ArticleInput, error) {
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return service.ArticleInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.ArticleInput{
		Title:    req.Title,
		Content:  req.Content,
		Keywords: req.Keywords,
		Category: req.Category,
	}, nil
}

func articleResponse(article *domain.Article) dto.ArticleResponse {
	return dto.ArticleResponse{
		ID:        article.ID,
		Title:     article.Title,
		Content:   article.Content,
		AuthorID:  article.AuthorID,
		Keywords:  article.Keywords,
		Category:  article.Category,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}
}
