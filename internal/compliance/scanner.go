package compliance

import (
	"fmt"
	"log/slog"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
)

// Weighted penalty per violation class, subtracted from 100.
const (
	bannedPenalty    = 15
	brokenPenalty    = 10
	placementPenalty = 5
)

type ArticleStore interface {
	GetPublishedWithCitations() ([]model.Article, error)
}

type DomainStore interface {
	LookupURL(rawURL string) (*model.DomainInfo, error)
}

type AlertStore interface {
	GetOpenAlerts(articleID int64) ([]model.ComplianceAlert, error)
	CreateAlert(a *model.ComplianceAlert) error
	ResolveAlert(id int64) error
	SaveReport(r *model.ComplianceReport) error
}

type LinkChecker interface {
	Reachable(url string) bool
}

type Scanner struct {
	articles ArticleStore
	domains  DomainStore
	alerts   AlertStore
	checker  LinkChecker
}

func NewScanner(articles ArticleStore, domains DomainStore, alerts AlertStore, checker LinkChecker) *Scanner {
	return &Scanner{articles: articles, domains: domains, alerts: alerts, checker: checker}
}

// Scan runs the nightly citation hygiene pass over all published
// articles. A single article's failure is recorded and the batch
// continues; only failing to load the article set aborts the scan.
func (s *Scanner) Scan() (*model.ComplianceReport, error) {
	articles, err := s.articles.GetPublishedWithCitations()
	if err != nil {
		return nil, fmt.Errorf("loading published articles: %w", err)
	}

	report := &model.ComplianceReport{}
	for i := range articles {
		result := s.scanArticle(&articles[i])
		report.ArticlesScanned++

		if result.Err != nil {
			slog.Warn("article scan incomplete", "article_id", result.ArticleID, "status", result.Status, "error", result.Err)
		}

		if result.Status != model.ScanOK {
			report.ArticlesFlagged++
		}

		for _, v := range result.Violations {
			switch v.AlertType {
			case model.AlertBannedDomain:
				report.BannedCount++
			case model.AlertBrokenLink:
				report.BrokenCount++
			case model.AlertMissingPlacement:
				report.PlacementCount++
			}
		}

		created, resolved := s.reconcileAlerts(&articles[i], result.Violations)
		report.NewAlertCount += created
		report.ResolvedStaleCount += resolved
	}

	score := 100 - report.BannedCount*bannedPenalty - report.BrokenCount*brokenPenalty - report.PlacementCount*placementPenalty
	if score < 0 {
		score = 0
	}
	report.Score = score

	if err := s.alerts.SaveReport(report); err != nil {
		return nil, fmt.Errorf("saving compliance report: %w", err)
	}

	slog.Info("compliance scan finished", "score", report.Score, "articles", report.ArticlesScanned,
		"flagged", report.ArticlesFlagged, "new_alerts", report.NewAlertCount, "resolved_stale", report.ResolvedStaleCount)
	return report, nil
}

func (s *Scanner) scanArticle(article *model.Article) model.ArticleScanResult {
	result := model.ArticleScanResult{ArticleID: article.ID, Status: model.ScanOK}

	for _, c := range article.Citations {
		info, err := s.domains.LookupURL(c.URL)
		if err != nil {
			// One citation's lookup failure downgrades the article,
			// never the batch.
			result.Status = model.ScanWarning
			result.Err = err
			continue
		}

		if info == nil {
			result.Violations = append(result.Violations, model.ComplianceAlert{
				ArticleID:   article.ID,
				CitationURL: c.URL,
				AlertType:   model.AlertBrokenLink,
				Detail:      "citation url is malformed",
			})
			continue
		}

		if info.Banned {
			result.Violations = append(result.Violations, model.ComplianceAlert{
				ArticleID:   article.ID,
				CitationURL: c.URL,
				AlertType:   model.AlertBannedDomain,
				Detail:      fmt.Sprintf("domain %s is not allowed", info.Domain),
			})
		}

		if !s.checker.Reachable(c.URL) {
			result.Violations = append(result.Violations, model.ComplianceAlert{
				ArticleID:   article.ID,
				CitationURL: c.URL,
				AlertType:   model.AlertBrokenLink,
				Detail:      "citation url is unreachable",
			})
		}

		if c.Anchor == "" {
			result.Violations = append(result.Violations, model.ComplianceAlert{
				ArticleID:   article.ID,
				CitationURL: c.URL,
				AlertType:   model.AlertMissingPlacement,
				Detail:      "citation has no inline anchor",
			})
		}
	}

	if len(result.Violations) > 0 {
		result.Status = model.ScanFail
		for _, v := range result.Violations {
			if v.AlertType != model.AlertMissingPlacement {
				return result
			}
		}
		result.Status = model.ScanWarning
	}

	return result
}

// reconcileAlerts keeps alerts idempotent per (article, citation url):
// existing open alerts are left open, alerts for urls no longer cited
// are auto-resolved, and only newly detected violations create rows.
func (s *Scanner) reconcileAlerts(article *model.Article, violations []model.ComplianceAlert) (created, resolved int) {
	open, err := s.alerts.GetOpenAlerts(article.ID)
	if err != nil {
		slog.Error("error loading open alerts", "article_id", article.ID, "error", err)
		return 0, 0
	}

	cited := make(map[string]bool, len(article.Citations))
	for _, c := range article.Citations {
		cited[c.URL] = true
	}

	openByURL := make(map[string]bool, len(open))
	for _, a := range open {
		if !cited[a.CitationURL] {
			if err := s.alerts.ResolveAlert(a.ID); err != nil {
				slog.Error("error resolving stale alert", "alert_id", a.ID, "error", err)
				continue
			}
			resolved++
			continue
		}
		openByURL[a.CitationURL] = true
	}

	for i := range violations {
		if openByURL[violations[i].CitationURL] {
			continue
		}
		if err := s.alerts.CreateAlert(&violations[i]); err != nil {
			slog.Error("error creating alert", "article_id", article.ID, "url", violations[i].CitationURL, "error", err)
			continue
		}
		openByURL[violations[i].CitationURL] = true
		created++
	}

	return created, resolved
}
