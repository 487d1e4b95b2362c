package handler

type CitationResponse struct {
	URL              string `json:"url"`
	Source           string `json:"source"`
	Anchor           string `json:"anchor"`
	SourceType       string `json:"source_type,omitempty"`
	AuthorityScore   int    `json:"authority_score,omitempty"`
	VerificationDate string `json:"verification_date,omitempty"`
}

type ArticleResponse struct {
	ID          int64              `json:"id"`
	Slug        string             `json:"slug"`
	Language    string             `json:"language"`
	Headline    string             `json:"headline"`
	Content     string             `json:"content,omitempty"`
	PublishedAt string             `json:"published_at"`
	Citations   []CitationResponse `json:"citations"`
}

type FeedResponse struct {
	Articles []ArticleResponse `json:"articles"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type CreateReplacementRequest struct {
	DeadURL        string `json:"dead_url" binding:"required"`
	ReplacementURL string `json:"replacement_url"`
}

type ChunkResponse struct {
	ID              int64  `json:"id"`
	ChunkNumber     int    `json:"chunk_number"`
	ArticleCount    int    `json:"article_count"`
	Status          string `json:"status"`
	ProgressCurrent int    `json:"progress_current"`
	ErrorMessage    string `json:"error_message,omitempty"`
	UpdatedAt       string `json:"updated_at"`
}

type JobResponse struct {
	ID                string          `json:"id"`
	DeadURL           string          `json:"dead_url"`
	ReplacementURL    string          `json:"replacement_url,omitempty"`
	Status            string          `json:"status"`
	ProgressCurrent   int             `json:"progress_current"`
	ProgressTotal     int             `json:"progress_total"`
	ArticlesProcessed int             `json:"articles_processed"`
	AutoAppliedCount  int             `json:"auto_applied_count"`
	ManualReviewCount int             `json:"manual_review_count"`
	FailedCount       int             `json:"failed_count"`
	StartedAt         string          `json:"started_at,omitempty"`
	CompletedAt       string          `json:"completed_at,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	Chunks            []ChunkResponse `json:"chunks,omitempty"`
}

type RestartResponse struct {
	JobID       string `json:"job_id"`
	ChunksReset int64  `json:"chunks_reset"`
}

type ComplianceReportResponse struct {
	ID                 int64  `json:"id"`
	Score              int    `json:"score"`
	ArticlesScanned    int    `json:"articles_scanned"`
	ArticlesFlagged    int    `json:"articles_flagged"`
	BannedCount        int    `json:"banned_count"`
	BrokenCount        int    `json:"broken_count"`
	PlacementCount     int    `json:"placement_count"`
	NewAlertCount      int    `json:"new_alert_count"`
	ResolvedStaleCount int    `json:"resolved_stale_count"`
	CreatedAt          string `json:"created_at"`
}

type AlertResponse struct {
	ID          int64  `json:"id"`
	ArticleID   int64  `json:"article_id"`
	CitationURL string `json:"citation_url"`
	AlertType   string `json:"alert_type"`
	Detail      string `json:"detail"`
	CreatedAt   string `json:"created_at"`
}
