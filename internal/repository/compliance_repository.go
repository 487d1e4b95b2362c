package repository

import (
	"database/sql"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
)

type ComplianceRepository struct {
	db *sql.DB
}

func NewComplianceRepository(db *sql.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

func (r *ComplianceRepository) GetOpenAlerts(articleID int64) ([]model.ComplianceAlert, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, citation_url, alert_type, detail, created_at, resolved_at
		FROM compliance_alert
		WHERE article_id = $1 AND resolved_at IS NULL
		ORDER BY created_at ASC
	`, articleID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (r *ComplianceRepository) GetAllOpenAlerts() ([]model.ComplianceAlert, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, citation_url, alert_type, detail, created_at, resolved_at
		FROM compliance_alert
		WHERE resolved_at IS NULL
		ORDER BY article_id ASC, created_at ASC
	`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]model.ComplianceAlert, error) {
	var alerts []model.ComplianceAlert
	for rows.Next() {
		var a model.ComplianceAlert
		err := rows.Scan(&a.ID, &a.ArticleID, &a.CitationURL, &a.AlertType, &a.Detail, &a.CreatedAt, &a.ResolvedAt)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}

func (r *ComplianceRepository) CreateAlert(a *model.ComplianceAlert) error {
	return r.db.QueryRow(`
		INSERT INTO compliance_alert(article_id, citation_url, alert_type, detail)
		VALUES($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.ArticleID, a.CitationURL, a.AlertType, a.Detail).Scan(&a.ID, &a.CreatedAt)
}

func (r *ComplianceRepository) ResolveAlert(id int64) error {
	_, err := r.db.Exec(`
		UPDATE compliance_alert SET resolved_at = NOW() WHERE id = $1 AND resolved_at IS NULL
	`, id)
	return err
}

func (r *ComplianceRepository) SaveReport(report *model.ComplianceReport) error {
	return r.db.QueryRow(`
		INSERT INTO compliance_report(score, articles_scanned, articles_flagged, banned_count, broken_count, placement_count, new_alert_count, resolved_stale_count)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, report.Score, report.ArticlesScanned, report.ArticlesFlagged, report.BannedCount,
		report.BrokenCount, report.PlacementCount, report.NewAlertCount, report.ResolvedStaleCount).Scan(&report.ID, &report.CreatedAt)
}

func (r *ComplianceRepository) GetLatestReport() (*model.ComplianceReport, error) {
	var report model.ComplianceReport
	err := r.db.QueryRow(`
		SELECT id, score, articles_scanned, articles_flagged, banned_count, broken_count, placement_count, new_alert_count, resolved_stale_count, created_at
		FROM compliance_report
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&report.ID, &report.Score, &report.ArticlesScanned, &report.ArticlesFlagged, &report.BannedCount,
		&report.BrokenCount, &report.PlacementCount, &report.NewAlertCount, &report.ResolvedStaleCount, &report.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &report, nil
}
