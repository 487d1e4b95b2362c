package model

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusRunning    = "running"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"

	ArticleDraft     = "draft"
	ArticlePublished = "published"
)

type Article struct {
	ID          int64
	Slug        string
	Language    string
	Headline    string
	Content     string
	Status      string
	Citations   []Citation
	NeedsReview bool
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// Citation is one entry of an article's ordered citation list,
// persisted as JSONB alongside the article row.
type Citation struct {
	URL              string `json:"url"`
	Source           string `json:"source"`
	Anchor           string `json:"anchor"`
	SourceType       string `json:"source_type,omitempty"`
	AuthorityScore   int    `json:"authority_score,omitempty"`
	VerificationDate string `json:"verification_date,omitempty"`
}
