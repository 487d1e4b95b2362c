package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/db"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/compliance"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/repository"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/linkcheck"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	complianceRepo := repository.NewComplianceRepository(db.DB)

	scanner := compliance.NewScanner(
		repository.NewArticleRepository(db.DB),
		repository.NewDomainRepository(db.DB),
		complianceRepo,
		linkcheck.New(),
	)

	report, err := scanner.Scan()
	if err != nil {
		log.Fatalf("error running compliance scan: %v", err)
	}

	slog.Info("compliance scan saved",
		"report_id", report.ID,
		"score", report.Score,
		"articles_scanned", report.ArticlesScanned,
		"articles_flagged", report.ArticlesFlagged,
		"new_alerts", report.NewAlertCount,
		"resolved_stale", report.ResolvedStaleCount,
	)
}
