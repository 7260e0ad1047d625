package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityworks/helpdesk/internal/domain"
)

const articleColumns = `id, title, content, author_id, keywords, category, created_at, updated_at`

type articlePostgres struct {
	pool *pgxpool.Pool
}

// NewArticlePostgres instantiates the Postgres-backed article repository.
func NewArticlePostgres(pool *pgxpool.Pool) ArticleRepository {
	return &articlePostgres{pool: pool}
}

func (r *articlePostgres) Create(ctx context.Context, article *domain.Article) error {
	const query = `
        INSERT INTO kb_articles (id, title, content, author_id, keywords, category, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		article.ID, article.Title, article.Content, article.AuthorID,
		article.Keywords, article.Category, article.CreatedAt, article.UpdatedAt,
	)
	return err
}

func (r *articlePostgres) Update(ctx context.Context, article *domain.Article) error {
	const query = `
        UPDATE kb_articles SET title=$1, content=$2, keywords=$3, category=$4, updated_at=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		article.Title, article.Content, article.Keywords, article.Category,
		article.UpdatedAt, article.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *articlePostgres) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM kb_articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *articlePostgres) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM kb_articles WHERE id=$1`
	var article domain.Article
	if err := scanArticle(r.pool.QueryRow(ctx, query, id), &article); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (r *articlePostgres) List(ctx context.Context) ([]domain.Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` FROM kb_articles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		var article domain.Article
		if err := scanArticle(rows, &article); err != nil {
			return nil, err
		}
		result = append(result, article)
	}
	return result, rows.Err()
}

func scanArticle(row pgx.Row, article *domain.Article) error {
	return row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&article.AuthorID,
		&article.Keywords,
		&article.Category,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
}
