package model

import "time"

const (
	AlertBannedDomain     = "banned_domain"
	AlertBrokenLink       = "broken_link"
	AlertMissingPlacement = "missing_placement"

	ScanOK      = "ok"
	ScanWarning = "warning"
	ScanFail    = "fail"
)

type ComplianceAlert struct {
	ID          int64
	ArticleID   int64
	CitationURL string
	AlertType   string
	Detail      string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

type ComplianceReport struct {
	ID                int64
	Score             int
	ArticlesScanned   int
	ArticlesFlagged   int
	BannedCount       int
	BrokenCount       int
	PlacementCount    int
	NewAlertCount     int
	ResolvedStaleCount int
	CreatedAt         time.Time
}

// ArticleScanResult records the outcome of one article's hygiene scan;
// a warning or fail never aborts the rest of the batch.
type ArticleScanResult struct {
	ArticleID  int64
	Status     string
	Violations []ComplianceAlert
	Err        error
}
