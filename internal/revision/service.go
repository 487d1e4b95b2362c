package revision

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
)

type RevisionStore interface {
	Get(id int64) (*model.ArticleRevision, error)
	ExecuteRollback(rev *model.ArticleRevision) error
}

type Service struct {
	revisions RevisionStore
}

func NewService(revisions RevisionStore) *Service {
	return &Service{revisions: revisions}
}

// Rollback restores an article to its snapshotted state. It succeeds
// at most once per revision: expiry is checked before consumption so
// an expired revision reports Expired even while can_rollback is true.
func (s *Service) Rollback(revisionID int64) error {
	rev, err := s.revisions.Get(revisionID)
	if err != nil {
		return fmt.Errorf("loading revision %d: %w", revisionID, err)
	}
	if rev == nil {
		return model.ErrRevisionNotFound
	}

	if time.Now().After(rev.RollbackExpiresAt) {
		return model.ErrRollbackExpired
	}

	if !rev.CanRollback {
		return model.ErrRollbackUsed
	}

	if err := s.revisions.ExecuteRollback(rev); err != nil {
		return fmt.Errorf("executing rollback of revision %d: %w", revisionID, err)
	}

	slog.Info("article rolled back", "revision_id", rev.ID, "article_id", rev.ArticleID)
	return nil
}
