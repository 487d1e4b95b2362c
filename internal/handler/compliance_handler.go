package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"

	"github.com/gin-gonic/gin"
)

type ComplianceStore interface {
	GetLatestReport() (*model.ComplianceReport, error)
	GetAllOpenAlerts() ([]model.ComplianceAlert, error)
}

type ComplianceHandler struct {
	store ComplianceStore
}

func NewComplianceHandler(store ComplianceStore) *ComplianceHandler {
	return &ComplianceHandler{store: store}
}

func (h *ComplianceHandler) GetLatestReport(c *gin.Context) {
	report, err := h.store.GetLatestReport()
	if err != nil {
		slog.Error("error fetching compliance report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No compliance report yet"})
		return
	}

	c.JSON(http.StatusOK, ComplianceReportResponse{
		ID:                 report.ID,
		Score:              report.Score,
		ArticlesScanned:    report.ArticlesScanned,
		ArticlesFlagged:    report.ArticlesFlagged,
		BannedCount:        report.BannedCount,
		BrokenCount:        report.BrokenCount,
		PlacementCount:     report.PlacementCount,
		NewAlertCount:      report.NewAlertCount,
		ResolvedStaleCount: report.ResolvedStaleCount,
		CreatedAt:          report.CreatedAt.Format(time.RFC3339),
	})
}

func (h *ComplianceHandler) GetOpenAlerts(c *gin.Context) {
	alerts, err := h.store.GetAllOpenAlerts()
	if err != nil {
		slog.Error("error fetching compliance alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		res = append(res, AlertResponse{
			ID:          a.ID,
			ArticleID:   a.ArticleID,
			CitationURL: a.CitationURL,
			AlertType:   a.AlertType,
			Detail:      a.Detail,
			CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"alerts": res, "total": len(res)})
}
