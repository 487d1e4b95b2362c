package jobs

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/scoring"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/llm"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/pkg/search"

	"github.com/go-playground/assert/v2"
)

type fakeJobStore struct {
	jobs        map[string]*model.ReplacementJob
	chunks      map[int64]*model.ReplacementChunk
	nextChunkID int64
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		jobs:   map[string]*model.ReplacementJob{},
		chunks: map[int64]*model.ReplacementChunk{},
	}
}

func (f *fakeJobStore) CreateJobWithChunks(job *model.ReplacementJob, chunks []model.ReplacementChunk) error {
	copied := *job
	f.jobs[job.ID] = &copied
	for i := range chunks {
		f.nextChunkID++
		c := chunks[i]
		c.ID = f.nextChunkID
		c.Status = model.StatusPending
		c.UpdatedAt = time.Now()
		f.chunks[c.ID] = &c
	}
	return nil
}

func (f *fakeJobStore) GetJob(id string) (*model.ReplacementJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *j
	return &copied, nil
}

func (f *fakeJobStore) GetActiveJobs() ([]model.ReplacementJob, error) {
	var out []model.ReplacementJob
	for _, j := range f.jobs {
		if j.Status == model.StatusPending || j.Status == model.StatusRunning {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeJobStore) GetChunks(jobID string) ([]model.ReplacementChunk, error) {
	var out []model.ReplacementChunk
	for id := int64(1); id <= f.nextChunkID; id++ {
		if c, ok := f.chunks[id]; ok && c.JobID == jobID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeJobStore) GetChunk(id int64) (*model.ReplacementChunk, error) {
	c, ok := f.chunks[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeJobStore) ResetStalledChunks(jobID string, cutoff time.Time) (int64, error) {
	var n int64
	for _, c := range f.chunks {
		if c.JobID == jobID && c.Status == model.StatusProcessing && c.UpdatedAt.Before(cutoff) {
			c.Status = model.StatusPending
			c.ErrorMessage = ""
			c.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (f *fakeJobStore) NextPendingChunk(jobID string) (*model.ReplacementChunk, error) {
	var best *model.ReplacementChunk
	for _, c := range f.chunks {
		if c.JobID != jobID || c.Status != model.StatusPending {
			continue
		}
		if best == nil || c.ChunkNumber < best.ChunkNumber {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

func (f *fakeJobStore) MarkChunkProcessing(id int64) error {
	f.chunks[id].Status = model.StatusProcessing
	f.chunks[id].UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobStore) TouchChunkProgress(id int64, progress int) error {
	f.chunks[id].ProgressCurrent = progress
	f.chunks[id].UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobStore) CompleteChunk(id int64, processed, autoApplied, manualReview, failed int) error {
	c := f.chunks[id]
	c.Status = model.StatusCompleted
	c.ArticlesProcessed = processed
	c.AutoAppliedCount = autoApplied
	c.ManualReviewCount = manualReview
	c.FailedCount = failed
	return nil
}

func (f *fakeJobStore) FailChunk(id int64, msg string) error {
	f.chunks[id].Status = model.StatusFailed
	f.chunks[id].ErrorMessage = msg
	return nil
}

func (f *fakeJobStore) MarkJobRunning(id string) error {
	f.jobs[id].Status = model.StatusRunning
	return nil
}

func (f *fakeJobStore) SyncJobCounters(id string) error {
	j := f.jobs[id]
	j.ProgressCurrent = 0
	j.ArticlesProcessed = 0
	j.AutoAppliedCount = 0
	j.ManualReviewCount = 0
	j.FailedCount = 0
	for _, c := range f.chunks {
		if c.JobID != id || c.Status != model.StatusCompleted {
			continue
		}
		j.ProgressCurrent += c.ArticlesProcessed
		j.ArticlesProcessed += c.ArticlesProcessed
		j.AutoAppliedCount += c.AutoAppliedCount
		j.ManualReviewCount += c.ManualReviewCount
		j.FailedCount += c.FailedCount
	}
	return nil
}

func (f *fakeJobStore) FinalizeJob(id string) error {
	f.jobs[id].Status = model.StatusCompleted
	return nil
}

func (f *fakeJobStore) FailJob(id string, msg string) error {
	f.jobs[id].Status = model.StatusFailed
	f.jobs[id].ErrorMessage = msg
	return nil
}

func (f *fakeJobStore) ResetFailedChunk(id int64) (bool, error) {
	c, ok := f.chunks[id]
	if !ok || c.Status != model.StatusFailed {
		return false, nil
	}
	c.Status = model.StatusPending
	c.ErrorMessage = ""
	c.ProgressCurrent = 0
	return true, nil
}

func (f *fakeJobStore) ResetFailedChunksForJob(jobID string) (int64, error) {
	var n int64
	for id, c := range f.chunks {
		if c.JobID == jobID && c.Status == model.StatusFailed {
			ok, _ := f.ResetFailedChunk(id)
			if ok {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeJobStore) ReopenJob(id string) error {
	f.jobs[id].Status = model.StatusRunning
	f.jobs[id].ErrorMessage = ""
	return nil
}

type fakeArticleStore struct {
	articles map[int64]*model.Article
	citing   []int64
	loadErr  error
	updates  map[int64][]model.Citation
	reviews  map[int64]bool
}

func newFakeArticleStore(articles ...*model.Article) *fakeArticleStore {
	s := &fakeArticleStore{
		articles: map[int64]*model.Article{},
		updates:  map[int64][]model.Citation{},
		reviews:  map[int64]bool{},
	}
	for _, a := range articles {
		s.articles[a.ID] = a
		s.citing = append(s.citing, a.ID)
	}
	return s
}

func (f *fakeArticleStore) GetByIDs(ids []int64) ([]model.Article, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []model.Article
	for _, id := range ids {
		if a, ok := f.articles[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleStore) FindArticleIDsCiting(url string) ([]int64, error) {
	return f.citing, nil
}

func (f *fakeArticleStore) UpdateCitations(articleID int64, citations []model.Citation, needsReview bool) error {
	f.updates[articleID] = citations
	f.reviews[articleID] = needsReview
	if a, ok := f.articles[articleID]; ok {
		a.Citations = citations
		a.NeedsReview = needsReview
	}
	return nil
}

type fakeDomainStore struct {
	infos      map[string]model.DomainInfo
	increments map[string]int
	logged     []model.CitationScore
	logErr     error
}

func newFakeDomainStore() *fakeDomainStore {
	return &fakeDomainStore{
		infos:      map[string]model.DomainInfo{},
		increments: map[string]int{},
	}
}

func (f *fakeDomainStore) LookupURL(rawURL string) (*model.DomainInfo, error) {
	domain := scoring.ExtractDomain(rawURL)
	if domain == "" {
		return nil, nil
	}
	if info, ok := f.infos[domain]; ok {
		return &info, nil
	}
	return &model.DomainInfo{Domain: domain, TrustScore: model.DefaultTrustScore}, nil
}

func (f *fakeDomainStore) IncrementUsage(domain string) error {
	f.increments[domain]++
	return nil
}

func (f *fakeDomainStore) LogScore(jobID string, articleID int64, s model.CitationScore) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logged = append(f.logged, s)
	return nil
}

type fakeRevisionStore struct {
	snapshots []model.ArticleRevision
	err       error
}

func (f *fakeRevisionStore) Snapshot(rev *model.ArticleRevision) error {
	if f.err != nil {
		return f.err
	}
	rev.ID = int64(len(f.snapshots) + 1)
	f.snapshots = append(f.snapshots, *rev)
	return nil
}

type fakeSearch struct {
	hits []search.Result
	err  error
}

func (f *fakeSearch) Search(query string, limit int) ([]search.Result, error) {
	return f.hits, f.err
}

func (f *fakeSearch) Name() string { return "fake" }

type fakeFinder struct {
	find func(input llm.FindInput) (*llm.FindResult, error)
}

func (f *fakeFinder) FindCitations(input llm.FindInput) (*llm.FindResult, error) {
	return f.find(input)
}

type fakeQueue struct {
	pushes []string
}

func (f *fakeQueue) Push(jobID string) error {
	f.pushes = append(f.pushes, jobID)
	return nil
}

const deadURL = "https://dead.example.com/report"

func testArticle(id int64) *model.Article {
	return &model.Article{
		ID:       id,
		Slug:     fmt.Sprintf("article-%d", id),
		Headline: fmt.Sprintf("Housing market update %d", id),
		Content:  "Prices rose according to official data.",
		Status:   model.ArticlePublished,
		Citations: []model.Citation{
			{URL: deadURL, Source: "dead.example.com", Anchor: "official data"},
			{URL: "https://keep.example.org/stats", Source: "keep.example.org", Anchor: "regional stats"},
		},
	}
}

func goodFinder(relevance float64) *fakeFinder {
	return &fakeFinder{find: func(input llm.FindInput) (*llm.FindResult, error) {
		return &llm.FindResult{
			Candidates: []llm.Candidate{
				{URL: "https://www.ine.es/report", Source: "INE", Anchor: "national statistics", Relevance: relevance},
			},
			ModelUsed: "fake-model",
		}, nil
	}}
}

func newTestService(js *fakeJobStore, as *fakeArticleStore, ds *fakeDomainStore, rs *fakeRevisionStore, finder llm.CitationFinder, q QueuePusher) *Service {
	searchClient := &fakeSearch{hits: []search.Result{
		{URL: "https://www.ine.es/report", Title: "Housing statistics", Snippet: "Official data", Rank: 1},
	}}
	return NewService(js, as, ds, rs, searchClient, finder, q)
}

func TestEnqueuePartitionsChunks(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore()
	for i := int64(1); i <= 25; i++ {
		as.citing = append(as.citing, i)
	}
	q := &fakeQueue{}

	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), q)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, model.StatusPending, job.Status)
	assert.Equal(t, 25, job.ProgressTotal)
	assert.Equal(t, []string{job.ID}, q.pushes)

	chunks, _ := js.GetChunks(job.ID)
	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, 10, len(chunks[0].ArticleIDs))
	assert.Equal(t, 10, len(chunks[1].ArticleIDs))
	assert.Equal(t, 5, len(chunks[2].ArticleIDs))

	seen := map[int64]bool{}
	for _, c := range chunks {
		for _, id := range c.ArticleIDs {
			if seen[id] {
				t.Fatalf("article %d assigned to two chunks", id)
			}
			seen[id] = true
		}
	}
	assert.Equal(t, 25, len(seen))
}

func TestEnqueueNoCitingArticles(t *testing.T) {
	svc := newTestService(newFakeJobStore(), newFakeArticleStore(), newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	_, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, true, errors.Is(err, ErrNoArticles))
}

func TestPollAndAdvanceProcessesOneChunkPerCall(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1), testArticle(2))
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)

	// Force two chunks by splitting the ids manually.
	js.chunks = map[int64]*model.ReplacementChunk{}
	js.nextChunkID = 0
	js.CreateJobWithChunks(job, []model.ReplacementChunk{
		{JobID: job.ID, ChunkNumber: 1, ArticleIDs: []int64{1}},
		{JobID: job.ID, ChunkNumber: 2, ArticleIDs: []int64{2}},
	})

	assert.Equal(t, nil, svc.PollAndAdvance())
	chunks, _ := js.GetChunks(job.ID)
	assert.Equal(t, model.StatusCompleted, chunks[0].Status)
	assert.Equal(t, model.StatusPending, chunks[1].Status)

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, model.StatusRunning, got.Status)

	assert.Equal(t, nil, svc.PollAndAdvance())
	chunks, _ = js.GetChunks(job.ID)
	assert.Equal(t, model.StatusCompleted, chunks[1].Status)

	// Third call finds no pending chunks and finalizes.
	assert.Equal(t, nil, svc.PollAndAdvance())
	got, _ = js.GetJob(job.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestPollAndAdvanceResetsStalledChunks(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	js.MarkJobRunning(job.ID)

	chunks, _ := js.GetChunks(job.ID)
	stuck := js.chunks[chunks[0].ID]
	stuck.Status = model.StatusProcessing
	stuck.UpdatedAt = time.Now().Add(-10 * time.Minute)

	assert.Equal(t, nil, svc.PollAndAdvance())

	chunks, _ = js.GetChunks(job.ID)
	assert.Equal(t, model.StatusCompleted, chunks[0].Status)
}

func TestPollAndAdvanceLeavesFreshProcessingChunks(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	js.MarkJobRunning(job.ID)

	chunks, _ := js.GetChunks(job.ID)
	inflight := js.chunks[chunks[0].ID]
	inflight.Status = model.StatusProcessing
	inflight.UpdatedAt = time.Now().Add(-2 * time.Minute)

	assert.Equal(t, nil, svc.PollAndAdvance())

	chunks, _ = js.GetChunks(job.ID)
	assert.Equal(t, model.StatusProcessing, chunks[0].Status)

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, model.StatusRunning, got.Status)
}

func TestProcessChunkItemFailureDoesNotAbortSiblings(t *testing.T) {
	js := newFakeJobStore()
	a1, a2, a3 := testArticle(1), testArticle(2), testArticle(3)
	as := newFakeArticleStore(a1, a2, a3)

	finder := &fakeFinder{find: func(input llm.FindInput) (*llm.FindResult, error) {
		if input.Headline == a2.Headline {
			return nil, errors.New("model timeout")
		}
		return goodFinder(80).find(input)
	}}

	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, finder, nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	chunks, _ := js.GetChunks(job.ID)
	assert.Equal(t, model.StatusCompleted, chunks[0].Status)

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, 3, got.ArticlesProcessed)
	assert.Equal(t, 2, got.AutoAppliedCount)
	assert.Equal(t, 1, got.FailedCount)
}

func TestProcessChunkSetupFailureFailsChunk(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)

	as.loadErr = errors.New("db down")
	assert.Equal(t, nil, svc.PollAndAdvance())

	chunks, _ := js.GetChunks(job.ID)
	assert.Equal(t, model.StatusFailed, chunks[0].Status)
	assert.NotEqual(t, "", chunks[0].ErrorMessage)

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, 0, got.ArticlesProcessed)

	// With every chunk terminal and one failed, the next pass moves the
	// job itself to failed instead of completing it.
	assert.Equal(t, nil, svc.PollAndAdvance())
	got, _ = js.GetJob(job.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.NotEqual(t, "", got.ErrorMessage)
}

func TestJobWithMixedChunkOutcomesFails(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1), testArticle(2))
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)

	js.chunks = map[int64]*model.ReplacementChunk{}
	js.nextChunkID = 0
	js.CreateJobWithChunks(job, []model.ReplacementChunk{
		{JobID: job.ID, ChunkNumber: 1, ArticleIDs: []int64{1}},
		{JobID: job.ID, ChunkNumber: 2, ArticleIDs: []int64{2}},
	})

	assert.Equal(t, nil, svc.PollAndAdvance())

	chunks, _ := js.GetChunks(job.ID)
	js.FailChunk(chunks[1].ID, "boom")

	assert.Equal(t, nil, svc.PollAndAdvance())

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	// Results from the completed chunk are kept.
	assert.Equal(t, 1, got.AutoAppliedCount)
}

func TestReplacementAutoApplied(t *testing.T) {
	js := newFakeJobStore()
	a := testArticle(1)
	as := newFakeArticleStore(a)
	ds := newFakeDomainStore()
	rs := &fakeRevisionStore{}
	svc := newTestService(js, as, ds, rs, goodFinder(80), nil)

	_, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	updated := as.updates[1]
	assert.Equal(t, 2, len(updated))
	assert.Equal(t, "https://keep.example.org/stats", updated[0].URL)
	assert.Equal(t, "https://www.ine.es/report", updated[1].URL)
	assert.Equal(t, "national statistics", updated[1].Anchor)
	assert.Equal(t, false, as.reviews[1])
	assert.Equal(t, 1, ds.increments["ine.es"])

	// Snapshot captured the pre-mutation citation list.
	assert.Equal(t, 1, len(rs.snapshots))
	assert.Equal(t, deadURL, rs.snapshots[0].PreviousCitations[0].URL)
	assert.Equal(t, true, rs.snapshots[0].CanRollback)
}

func TestLowScoreGoesToManualReview(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	ds := newFakeDomainStore()
	svc := newTestService(js, as, ds, &fakeRevisionStore{}, goodFinder(30), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	// Dead citation removed, nothing added, article flagged.
	updated := as.updates[1]
	assert.Equal(t, 1, len(updated))
	assert.Equal(t, true, as.reviews[1])
	assert.Equal(t, 0, len(ds.increments))

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, 1, got.ManualReviewCount)
	assert.Equal(t, 0, got.AutoAppliedCount)
}

func TestBannedDomainHardExcluded(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	ds := newFakeDomainStore()
	ds.infos["ine.es"] = model.DomainInfo{Domain: "ine.es", TrustScore: 90, Banned: true}
	svc := newTestService(js, as, ds, &fakeRevisionStore{}, goodFinder(95), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, 1, got.ManualReviewCount)
	assert.Equal(t, true, as.reviews[1])
	assert.Equal(t, 0, len(ds.logged))
}

func TestManualReplacementURLApplied(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	ds := newFakeDomainStore()
	svc := newTestService(js, as, ds, &fakeRevisionStore{}, goodFinder(0), nil)

	_, err := svc.Enqueue(deadURL, "https://stats.gov.es/housing")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	updated := as.updates[1]
	assert.Equal(t, 2, len(updated))
	assert.Equal(t, "https://stats.gov.es/housing", updated[1].URL)
	// Anchor carried over from the dead citation.
	assert.Equal(t, "official data", updated[1].Anchor)
	assert.Equal(t, 1, ds.increments["stats.gov.es"])
}

func TestAuditLogFailureDoesNotFailScoring(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	ds := newFakeDomainStore()
	ds.logErr = errors.New("audit table missing")
	svc := newTestService(js, as, ds, &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, 1, got.AutoAppliedCount)
	assert.Equal(t, 0, got.FailedCount)
}

func TestRestartJobResetsFailedChunks(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	q := &fakeQueue{}
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), q)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)

	chunks, _ := js.GetChunks(job.ID)
	js.FailChunk(chunks[0].ID, "boom")
	js.FailJob(job.ID, "boom")

	reset, err := svc.RestartJob(job.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), reset)

	got, _ := js.GetJob(job.ID)
	assert.Equal(t, model.StatusRunning, got.Status)
	assert.Equal(t, "", got.ErrorMessage)
	assert.Equal(t, 2, len(q.pushes))

	chunks, _ = js.GetChunks(job.ID)
	assert.Equal(t, model.StatusPending, chunks[0].Status)
	assert.Equal(t, "", chunks[0].ErrorMessage)
}

func TestRestartJobNotFound(t *testing.T) {
	svc := newTestService(newFakeJobStore(), newFakeArticleStore(), newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	_, err := svc.RestartJob("missing")
	assert.Equal(t, true, errors.Is(err, model.ErrJobNotFound))
}

func TestRestartChunkRequiresFailedState(t *testing.T) {
	js := newFakeJobStore()
	as := newFakeArticleStore(testArticle(1))
	svc := newTestService(js, as, newFakeDomainStore(), &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)

	chunks, _ := js.GetChunks(job.ID)
	err = svc.RestartChunk(chunks[0].ID)
	assert.Equal(t, true, errors.Is(err, ErrChunkNotFailed))

	js.FailChunk(chunks[0].ID, "boom")
	assert.Equal(t, nil, svc.RestartChunk(chunks[0].ID))

	chunks, _ = js.GetChunks(job.ID)
	assert.Equal(t, model.StatusPending, chunks[0].Status)
}

func TestReprocessingChunkIsIdempotent(t *testing.T) {
	js := newFakeJobStore()
	a := testArticle(1)
	as := newFakeArticleStore(a)
	ds := newFakeDomainStore()
	svc := newTestService(js, as, ds, &fakeRevisionStore{}, goodFinder(80), nil)

	job, err := svc.Enqueue(deadURL, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, svc.PollAndAdvance())

	first := as.updates[1]

	// Simulate stall recovery redoing the same chunk.
	chunks, _ := js.GetChunks(job.ID)
	js.chunks[chunks[0].ID].Status = model.StatusPending
	assert.Equal(t, nil, svc.PollAndAdvance())

	second := as.updates[1]
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[len(first)-1].URL, second[len(second)-1].URL)

	// Aggregates are derived from the chunk rows, so redoing a chunk
	// leaves them equal to a single pass over the one-article job.
	got, _ := js.GetJob(job.ID)
	assert.Equal(t, 1, got.ArticlesProcessed)
	assert.Equal(t, 1, got.ProgressCurrent)
	assert.Equal(t, 1, got.AutoAppliedCount)
	assert.Equal(t, 0, got.FailedCount)
}
