package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"

	"github.com/lib/pq"
)

type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func scanCitations(raw []byte, dst *[]model.Citation) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (r *ArticleRepository) GetPublishedFeed(limit, offset int) ([]model.Article, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, language, headline, content, status, citations, needs_review, published_at, updated_at
		FROM article
		WHERE status = $1
		ORDER BY published_at DESC
		LIMIT $2 OFFSET $3
	`, model.ArticlePublished, limit, offset)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		var citations []byte
		err := rows.Scan(&a.ID, &a.Slug, &a.Language, &a.Headline, &a.Content, &a.Status, &citations, &a.NeedsReview, &a.PublishedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := scanCitations(citations, &a.Citations); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

func (r *ArticleRepository) GetFeedTotal() (int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM article WHERE status = $1
	`, model.ArticlePublished).Scan(&total)
	return total, err
}

func (r *ArticleRepository) GetBySlug(slug string) (*model.Article, error) {
	var a model.Article
	var citations []byte
	err := r.db.QueryRow(`
		SELECT id, slug, language, headline, content, status, citations, needs_review, published_at, updated_at
		FROM article
		WHERE slug = $1
	`, slug).Scan(&a.ID, &a.Slug, &a.Language, &a.Headline, &a.Content, &a.Status, &citations, &a.NeedsReview, &a.PublishedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := scanCitations(citations, &a.Citations); err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *ArticleRepository) GetByID(id int64) (*model.Article, error) {
	var a model.Article
	var citations []byte
	err := r.db.QueryRow(`
		SELECT id, slug, language, headline, content, status, citations, needs_review, published_at, updated_at
		FROM article
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Slug, &a.Language, &a.Headline, &a.Content, &a.Status, &citations, &a.NeedsReview, &a.PublishedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := scanCitations(citations, &a.Citations); err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *ArticleRepository) GetByIDs(ids []int64) ([]model.Article, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, language, headline, content, status, citations, needs_review, published_at, updated_at
		FROM article
		WHERE id = ANY($1)
		ORDER BY id ASC
	`, pq.Array(ids))

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		var citations []byte
		err := rows.Scan(&a.ID, &a.Slug, &a.Language, &a.Headline, &a.Content, &a.Status, &citations, &a.NeedsReview, &a.PublishedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := scanCitations(citations, &a.Citations); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

// FindArticleIDsCiting returns published articles whose citation list
// contains the given URL, in id order so chunk partitions are stable.
func (r *ArticleRepository) FindArticleIDsCiting(url string) ([]int64, error) {
	rows, err := r.db.Query(`
		SELECT id
		FROM article
		WHERE status = $1
		AND citations @> jsonb_build_array(jsonb_build_object('url', $2::text))
		ORDER BY id ASC
	`, model.ArticlePublished, url)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// UpdateCitations overwrites the whole citation list. Full overwrite
// keeps chunk reprocessing idempotent after stall recovery.
func (r *ArticleRepository) UpdateCitations(articleID int64, citations []model.Citation, needsReview bool) error {
	encoded, err := json.Marshal(citations)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		UPDATE article SET citations = $1, needs_review = $2, updated_at = NOW() WHERE id = $3
	`, encoded, needsReview, articleID)
	return err
}

func (r *ArticleRepository) GetPublishedWithCitations() ([]model.Article, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, language, headline, content, status, citations, needs_review, published_at, updated_at
		FROM article
		WHERE status = $1 AND citations IS NOT NULL
		ORDER BY id ASC
	`, model.ArticlePublished)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		var citations []byte
		err := rows.Scan(&a.ID, &a.Slug, &a.Language, &a.Headline, &a.Content, &a.Status, &citations, &a.NeedsReview, &a.PublishedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := scanCitations(citations, &a.Citations); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}
