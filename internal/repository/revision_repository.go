package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
)

type RevisionRepository struct {
	db *sql.DB
}

func NewRevisionRepository(db *sql.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Snapshot writes a pre-mutation copy of the article. The rollback
// window is fixed here and never renewed.
func (r *RevisionRepository) Snapshot(rev *model.ArticleRevision) error {
	citations, err := json.Marshal(rev.PreviousCitations)
	if err != nil {
		return err
	}

	return r.db.QueryRow(`
		INSERT INTO article_revision(article_id, previous_content, previous_citations, replacement_id, reason, can_rollback, rollback_expires_at)
		VALUES($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING id, created_at
	`, rev.ArticleID, rev.PreviousContent, citations, rev.ReplacementID, rev.Reason, rev.CanRollback, rev.RollbackExpiresAt).Scan(&rev.ID, &rev.CreatedAt)
}

func (r *RevisionRepository) Get(id int64) (*model.ArticleRevision, error) {
	var rev model.ArticleRevision
	var citations []byte
	var replacementID sql.NullString
	err := r.db.QueryRow(`
		SELECT id, article_id, previous_content, previous_citations, replacement_id, reason, can_rollback, rollback_expires_at, created_at
		FROM article_revision
		WHERE id = $1
	`, id).Scan(&rev.ID, &rev.ArticleID, &rev.PreviousContent, &citations, &replacementID, &rev.Reason, &rev.CanRollback, &rev.RollbackExpiresAt, &rev.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	rev.ReplacementID = replacementID.String
	if err := scanCitations(citations, &rev.PreviousCitations); err != nil {
		return nil, err
	}

	return &rev, nil
}

// ExecuteRollback restores the snapshot onto the article, consumes the
// revision, and records the rollback as a revision of its own, all in
// one transaction so history never loses the pre-rollback state.
func (r *RevisionRepository) ExecuteRollback(rev *model.ArticleRevision) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var currentContent string
	var currentCitations []byte
	err = tx.QueryRow(`
		SELECT content, citations FROM article WHERE id = $1
	`, rev.ArticleID).Scan(&currentContent, &currentCitations)
	if err == sql.ErrNoRows {
		return model.ErrArticleNotFound
	}
	if err != nil {
		return err
	}

	restored, err := json.Marshal(rev.PreviousCitations)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE article SET content = $1, citations = $2, updated_at = NOW() WHERE id = $3
	`, rev.PreviousContent, restored, rev.ArticleID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE article_revision SET can_rollback = FALSE WHERE id = $1
	`, rev.ID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO article_revision(article_id, previous_content, previous_citations, reason, can_rollback, rollback_expires_at)
		VALUES($1, $2, $3, 'rollback', FALSE, NOW())
	`, rev.ArticleID, currentContent, currentCitations)
	if err != nil {
		return err
	}

	return tx.Commit()
}
