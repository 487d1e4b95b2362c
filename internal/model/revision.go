package model

import "time"

// RollbackWindow is fixed at snapshot time; expiry is absolute.
const RollbackWindow = 24 * time.Hour

type ArticleRevision struct {
	ID                int64
	ArticleID         int64
	PreviousContent   string
	PreviousCitations []Citation
	ReplacementID     string
	Reason            string
	CanRollback       bool
	RollbackExpiresAt time.Time
	CreatedAt         time.Time
}
