package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/scoring"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/llm"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/search"

	"github.com/google/uuid"
)

const (
	// ChunkSize bounds one invocation's work so a single advance call
	// stays well inside serverless/cron execution limits.
	ChunkSize = 10

	// StallThreshold is how long a processing chunk may go without a
	// heartbeat before the poller presumes it dead.
	StallThreshold = 5 * time.Minute

	autoApplyThreshold = 70.0
	maxReplacements    = 3
	searchLimit        = 10
)

var (
	ErrNoArticles     = errors.New("no published articles cite the given url")
	ErrChunkNotFailed = errors.New("chunk is not in a failed state")
)

type JobStore interface {
	CreateJobWithChunks(job *model.ReplacementJob, chunks []model.ReplacementChunk) error
	GetJob(id string) (*model.ReplacementJob, error)
	GetActiveJobs() ([]model.ReplacementJob, error)
	GetChunks(jobID string) ([]model.ReplacementChunk, error)
	GetChunk(id int64) (*model.ReplacementChunk, error)
	ResetStalledChunks(jobID string, cutoff time.Time) (int64, error)
	NextPendingChunk(jobID string) (*model.ReplacementChunk, error)
	MarkChunkProcessing(id int64) error
	TouchChunkProgress(id int64, progress int) error
	CompleteChunk(id int64, processed, autoApplied, manualReview, failed int) error
	FailChunk(id int64, msg string) error
	MarkJobRunning(id string) error
	SyncJobCounters(id string) error
	FinalizeJob(id string) error
	FailJob(id string, msg string) error
	ResetFailedChunk(id int64) (bool, error)
	ResetFailedChunksForJob(jobID string) (int64, error)
	ReopenJob(id string) error
}

type ArticleStore interface {
	GetByIDs(ids []int64) ([]model.Article, error)
	FindArticleIDsCiting(url string) ([]int64, error)
	UpdateCitations(articleID int64, citations []model.Citation, needsReview bool) error
}

type DomainStore interface {
	LookupURL(rawURL string) (*model.DomainInfo, error)
	IncrementUsage(domain string) error
	LogScore(jobID string, articleID int64, s model.CitationScore) error
}

type RevisionStore interface {
	Snapshot(rev *model.ArticleRevision) error
}

// QueuePusher wakes the poller up after enqueue/restart. Losing a push
// only delays a job until the next tick; the rows stay authoritative.
type QueuePusher interface {
	Push(jobID string) error
}

type Service struct {
	jobs      JobStore
	articles  ArticleStore
	domains   DomainStore
	revisions RevisionStore
	search    search.SearchClient
	finder    llm.CitationFinder
	queue     QueuePusher
}

func NewService(jobs JobStore, articles ArticleStore, domains DomainStore, revisions RevisionStore, searchClient search.SearchClient, finder llm.CitationFinder, queue QueuePusher) *Service {
	return &Service{
		jobs:      jobs,
		articles:  articles,
		domains:   domains,
		revisions: revisions,
		search:    searchClient,
		finder:    finder,
		queue:     queue,
	}
}

// Enqueue creates a replacement job for every published article citing
// deadURL, partitioned into disjoint fixed-size chunks. replacementURL
// may be empty, in which case candidates are discovered per article.
func (s *Service) Enqueue(deadURL, replacementURL string) (*model.ReplacementJob, error) {
	ids, err := s.articles.FindArticleIDsCiting(deadURL)
	if err != nil {
		return nil, fmt.Errorf("finding citing articles: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoArticles
	}

	job := &model.ReplacementJob{
		ID:             uuid.NewString(),
		DeadURL:        deadURL,
		ReplacementURL: replacementURL,
		Status:         model.StatusPending,
		ProgressTotal:  len(ids),
	}

	var chunks []model.ReplacementChunk
	for start := 0; start < len(ids); start += ChunkSize {
		end := start + ChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, model.ReplacementChunk{
			JobID:       job.ID,
			ChunkNumber: len(chunks) + 1,
			ArticleIDs:  ids[start:end],
		})
	}

	if err := s.jobs.CreateJobWithChunks(job, chunks); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.wake(job.ID)
	slog.Info("replacement job enqueued", "job_id", job.ID, "dead_url", deadURL, "articles", len(ids), "chunks", len(chunks))
	return job, nil
}

// PollAndAdvance is the single entry point of the job state machine:
// it resets stalled chunks, then processes at most one pending chunk
// across all active jobs, and finalizes jobs whose chunks are all
// terminal. Invoked on a timer and on queue wake-ups.
func (s *Service) PollAndAdvance() error {
	active, err := s.jobs.GetActiveJobs()
	if err != nil {
		return fmt.Errorf("listing active jobs: %w", err)
	}

	for _, job := range active {
		reset, err := s.jobs.ResetStalledChunks(job.ID, time.Now().Add(-StallThreshold))
		if err != nil {
			return fmt.Errorf("resetting stalled chunks for job %s: %w", job.ID, err)
		}
		if reset > 0 {
			slog.Warn("reset stalled chunks", "job_id", job.ID, "count", reset)
		}

		chunk, err := s.jobs.NextPendingChunk(job.ID)
		if err != nil {
			return fmt.Errorf("fetching pending chunk for job %s: %w", job.ID, err)
		}

		if chunk != nil {
			if job.Status == model.StatusPending {
				if err := s.jobs.MarkJobRunning(job.ID); err != nil {
					return fmt.Errorf("marking job %s running: %w", job.ID, err)
				}
			}
			s.processChunk(&job, chunk)
			// One chunk per invocation bounds cost and concurrency.
			return nil
		}

		chunks, err := s.jobs.GetChunks(job.ID)
		if err != nil {
			return fmt.Errorf("listing chunks for job %s: %w", job.ID, err)
		}

		allTerminal := true
		failedChunks := 0
		for i := range chunks {
			if !chunks[i].Terminal() {
				allTerminal = false
				break
			}
			if chunks[i].Status == model.StatusFailed {
				failedChunks++
			}
		}

		if !allTerminal {
			continue
		}

		if failedChunks > 0 {
			msg := fmt.Sprintf("%d of %d chunks failed", failedChunks, len(chunks))
			if err := s.jobs.FailJob(job.ID, msg); err != nil {
				return fmt.Errorf("failing job %s: %w", job.ID, err)
			}
			slog.Error("replacement job failed", "job_id", job.ID, "failed_chunks", failedChunks)
			continue
		}

		if err := s.jobs.FinalizeJob(job.ID); err != nil {
			return fmt.Errorf("finalizing job %s: %w", job.ID, err)
		}
		slog.Info("replacement job completed", "job_id", job.ID)
	}

	return nil
}

// processChunk performs the chunk's work item by item. An item failure
// is counted and logged but never aborts its siblings; only a
// chunk-level setup failure marks the chunk failed.
func (s *Service) processChunk(job *model.ReplacementJob, chunk *model.ReplacementChunk) {
	if err := s.jobs.MarkChunkProcessing(chunk.ID); err != nil {
		slog.Error("error marking chunk processing", "chunk_id", chunk.ID, "error", err)
		return
	}

	articles, err := s.articles.GetByIDs(chunk.ArticleIDs)
	if err != nil {
		slog.Error("error loading chunk articles", "chunk_id", chunk.ID, "error", err)
		s.jobs.FailChunk(chunk.ID, fmt.Sprintf("loading articles: %v", err))
		return
	}

	var processed, autoApplied, manualReview, failed int
	for i := range articles {
		applied, err := s.replaceInArticle(job, &articles[i])
		processed++
		if err != nil {
			failed++
			slog.Error("error replacing citation", "job_id", job.ID, "article_id", articles[i].ID, "error", err)
		} else if applied {
			autoApplied++
		} else {
			manualReview++
		}

		if err := s.jobs.TouchChunkProgress(chunk.ID, i+1); err != nil {
			slog.Error("error updating chunk progress", "chunk_id", chunk.ID, "error", err)
		}
	}

	if err := s.jobs.CompleteChunk(chunk.ID, processed, autoApplied, manualReview, failed); err != nil {
		slog.Error("error completing chunk", "chunk_id", chunk.ID, "error", err)
		return
	}

	if err := s.jobs.SyncJobCounters(job.ID); err != nil {
		slog.Error("error syncing job counters", "job_id", job.ID, "error", err)
	}

	slog.Info("chunk processed", "job_id", job.ID, "chunk", chunk.ChunkNumber,
		"processed", processed, "auto_applied", autoApplied, "manual_review", manualReview, "failed", failed)
}

// replaceInArticle snapshots the article, removes the dead citation
// and either applies the best replacement or flags the article for
// manual review. The citation list is fully overwritten so redoing the
// work after stall recovery converges to the same state.
func (s *Service) replaceInArticle(job *model.ReplacementJob, article *model.Article) (applied bool, err error) {
	rev := &model.ArticleRevision{
		ArticleID:         article.ID,
		PreviousContent:   article.Content,
		PreviousCitations: article.Citations,
		ReplacementID:     job.ID,
		Reason:            "citation_replacement",
		CanRollback:       true,
		RollbackExpiresAt: time.Now().Add(model.RollbackWindow),
	}
	if err := s.revisions.Snapshot(rev); err != nil {
		return false, fmt.Errorf("snapshotting revision: %w", err)
	}

	var remaining []model.Citation
	var dead *model.Citation
	for _, c := range article.Citations {
		if c.URL == job.DeadURL {
			removed := c
			dead = &removed
			continue
		}
		remaining = append(remaining, c)
	}

	replacement, err := s.pickReplacement(job, article, dead)
	if err != nil {
		return false, err
	}

	needsReview := replacement == nil
	if replacement != nil && !containsURL(remaining, replacement.URL) {
		remaining = append(remaining, *replacement)
	}

	if err := s.articles.UpdateCitations(article.ID, remaining, needsReview); err != nil {
		return false, fmt.Errorf("updating citations: %w", err)
	}

	if replacement != nil {
		domain := scoring.ExtractDomain(replacement.URL)
		if err := s.domains.IncrementUsage(domain); err != nil {
			slog.Warn("error incrementing domain usage", "domain", domain, "error", err)
		}
	}

	return replacement != nil, nil
}

// pickReplacement returns the citation to apply, or nil when the
// article should go to manual review instead.
func (s *Service) pickReplacement(job *model.ReplacementJob, article *model.Article, dead *model.Citation) (*model.Citation, error) {
	if job.ReplacementURL != "" {
		info, err := s.domains.LookupURL(job.ReplacementURL)
		if err != nil {
			return nil, fmt.Errorf("looking up replacement domain: %w", err)
		}
		if info == nil {
			return nil, fmt.Errorf("replacement url is malformed: %s", job.ReplacementURL)
		}
		if info.Banned {
			return nil, fmt.Errorf("replacement domain %s is banned", info.Domain)
		}

		anchor := ""
		if dead != nil {
			anchor = dead.Anchor
		}
		sc := scoring.Score(job.ReplacementURL, 100, *info)
		s.logScore(job.ID, article.ID, sc)
		return &model.Citation{URL: job.ReplacementURL, Source: info.Domain, Anchor: anchor}, nil
	}

	hits, err := s.search.Search(article.Headline, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching candidates: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	input := llm.FindInput{
		Headline: article.Headline,
		Excerpt:  article.Content,
		DeadURL:  job.DeadURL,
	}
	for _, h := range hits {
		input.Hits = append(input.Hits, llm.SearchHit{URL: h.URL, Title: h.Title, Snippet: h.Snippet})
	}

	found, err := s.finder.FindCitations(input)
	if err != nil {
		return nil, fmt.Errorf("finding citations: %w", err)
	}

	var scored []model.CitationScore
	for _, cand := range found.Candidates {
		info, err := s.domains.LookupURL(cand.URL)
		if err != nil {
			return nil, fmt.Errorf("looking up candidate domain: %w", err)
		}
		if info == nil || info.Banned {
			continue
		}

		sc := scoring.Score(cand.URL, cand.Relevance, *info)
		sc.Source = cand.Source
		sc.Anchor = cand.Anchor
		s.logScore(job.ID, article.ID, sc)
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	picks := scoring.EnforceDomainDiversity(scored, maxReplacements)
	if len(picks) == 0 || picks[0].FinalScore < autoApplyThreshold {
		return nil, nil
	}

	best := picks[0]
	return &model.Citation{URL: best.URL, Source: best.Source, Anchor: best.Anchor}, nil
}

// logScore is best-effort: audit failures are reported, never raised.
func (s *Service) logScore(jobID string, articleID int64, sc model.CitationScore) {
	if err := s.domains.LogScore(jobID, articleID, sc); err != nil {
		slog.Warn("error writing citation score audit", "job_id", jobID, "article_id", articleID, "error", err)
	}
}

func (s *Service) Status(jobID string) (*model.ReplacementJob, []model.ReplacementChunk, error) {
	job, err := s.jobs.GetJob(jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, model.ErrJobNotFound
	}

	chunks, err := s.jobs.GetChunks(jobID)
	if err != nil {
		return nil, nil, err
	}

	return job, chunks, nil
}

// RestartJob resets every failed chunk of the job back to pending and
// wakes the poller. Returns the number of reset chunks.
func (s *Service) RestartJob(jobID string) (int64, error) {
	job, err := s.jobs.GetJob(jobID)
	if err != nil {
		return 0, err
	}
	if job == nil {
		return 0, model.ErrJobNotFound
	}

	reset, err := s.jobs.ResetFailedChunksForJob(jobID)
	if err != nil {
		return 0, err
	}

	if reset > 0 {
		if err := s.jobs.ReopenJob(jobID); err != nil {
			return reset, err
		}
		s.wake(jobID)
	}

	return reset, nil
}

// RestartChunk resets one failed chunk back to pending.
func (s *Service) RestartChunk(chunkID int64) error {
	chunk, err := s.jobs.GetChunk(chunkID)
	if err != nil {
		return err
	}
	if chunk == nil {
		return model.ErrChunkNotFound
	}

	reset, err := s.jobs.ResetFailedChunk(chunkID)
	if err != nil {
		return err
	}
	if !reset {
		return fmt.Errorf("chunk %d: %w", chunkID, ErrChunkNotFailed)
	}

	if err := s.jobs.ReopenJob(chunk.JobID); err != nil {
		return err
	}

	s.wake(chunk.JobID)
	return nil
}

func (s *Service) wake(jobID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Push(jobID); err != nil {
		slog.Warn("error pushing to advance queue", "job_id", jobID, "error", err)
	}
}

func containsURL(citations []model.Citation, url string) bool {
	for _, c := range citations {
		if c.URL == url {
			return true
		}
	}
	return false
}
