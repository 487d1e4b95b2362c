package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/db"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/handler"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/jobs"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/repository"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/revision"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/llm"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func newCitationFinder() llm.CitationFinder {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return llm.NewAnthropicClient(key)
	}
	return llm.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"))
}

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	articleRepo := repository.NewArticleRepository(db.DB)
	domainRepo := repository.NewDomainRepository(db.DB)
	jobRepo := repository.NewJobRepository(db.DB)
	revisionRepo := repository.NewRevisionRepository(db.DB)
	complianceRepo := repository.NewComplianceRepository(db.DB)

	jobService := jobs.NewService(
		jobRepo,
		articleRepo,
		domainRepo,
		revisionRepo,
		search.NewSerperClient(os.Getenv("SERPER_API_KEY")),
		newCitationFinder(),
		db.AdvanceQueue{},
	)
	revisionService := revision.NewService(revisionRepo)

	articleHandler := handler.NewArticleHandler(articleRepo)
	jobHandler := handler.NewJobHandler(jobService)
	revisionHandler := handler.NewRevisionHandler(revisionService)
	complianceHandler := handler.NewComplianceHandler(complianceRepo)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/articles", articleHandler.GetFeed)
	r.GET("/articles/:slug", articleHandler.GetArticle)
	r.GET("/health", articleHandler.GetHealth)

	r.POST("/admin/replacements", jobHandler.CreateReplacement)
	r.GET("/admin/replacements/:id", jobHandler.GetReplacement)
	r.POST("/admin/replacements/:id/restart", jobHandler.RestartReplacement)
	r.POST("/admin/jobs/advance", jobHandler.Advance)
	r.POST("/admin/revisions/:id/rollback", revisionHandler.Rollback)
	r.GET("/admin/compliance/latest", complianceHandler.GetLatestReport)
	r.GET("/admin/compliance/alerts", complianceHandler.GetOpenAlerts)

	err = r.Run(":8080")
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
