package main

import (
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/db"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/jobs"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/repository"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/llm"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/search"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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

	const (
		popTimeout = 30 * time.Second
		maxRetries = 3
	)

	err := db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	err = db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	service := jobs.NewService(
		repository.NewJobRepository(db.DB),
		repository.NewArticleRepository(db.DB),
		repository.NewDomainRepository(db.DB),
		repository.NewRevisionRepository(db.DB),
		search.NewSerperClient(os.Getenv("SERPER_API_KEY")),
		newCitationFinder(),
		db.AdvanceQueue{},
	)

	slog.Info("poller started", "queue", db.AdvanceQueueKey)

	failCount := 0

	for {
		// The queue is only a wake-up: a pop timeout still triggers an
		// advance pass so stalled chunks recover without any message.
		jobID, err := db.PopFromQueue(db.AdvanceQueueKey, popTimeout)
		if err != nil && !errors.Is(err, redis.Nil) {
			slog.Error("error popping from Redis queue", "error", err)
			break
		}

		err = service.PollAndAdvance()
		if err == nil {
			failCount = 0
			continue
		}

		slog.Error("error advancing jobs", "job_id", jobID, "error", err)
		failCount++

		if jobID != "" && failCount >= maxRetries {
			slog.Warn("job exceeded max retries, moving to dead letter queue", "job_id", jobID)
			db.PushToQueue(db.DeadLetterKey, jobID)
			failCount = 0
		}

		time.Sleep(5 * time.Second)
	}
}
