package model

import "time"

type ReplacementJob struct {
	ID                string
	DeadURL           string
	ReplacementURL    string
	Status            string
	ProgressCurrent   int
	ProgressTotal     int
	ArticlesProcessed int
	AutoAppliedCount  int
	ManualReviewCount int
	FailedCount       int
	StartedAt         *time.Time
	CompletedAt       *time.Time
	ErrorMessage      string
	CreatedAt         time.Time
}

// ReplacementChunk owns a disjoint partition of the job's articles.
// The poller may reset a chunk from processing back to pending when
// updated_at is older than the stall threshold. Result counters live on
// the chunk row and are overwritten on completion, so a reprocessed
// chunk contributes to the job's aggregates exactly once.
type ReplacementChunk struct {
	ID                int64
	JobID             string
	ChunkNumber       int
	ArticleIDs        []int64
	Status            string
	ProgressCurrent   int
	ArticlesProcessed int
	AutoAppliedCount  int
	ManualReviewCount int
	FailedCount       int
	ErrorMessage      string
	UpdatedAt         time.Time
}

func (c *ReplacementChunk) Terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusFailed
}
