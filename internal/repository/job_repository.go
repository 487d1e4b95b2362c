package repository

import (
	"database/sql"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"

	"github.com/lib/pq"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJobWithChunks writes the job row and its full chunk partition
// in one transaction, so a job can never exist half-enqueued.
func (r *JobRepository) CreateJobWithChunks(job *model.ReplacementJob, chunks []model.ReplacementChunk) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO replacement_job(id, dead_url, replacement_url, status, progress_total)
		VALUES($1, $2, $3, $4, $5)
	`, job.ID, job.DeadURL, job.ReplacementURL, model.StatusPending, job.ProgressTotal)
	if err != nil {
		return err
	}

	for i := range chunks {
		err = tx.QueryRow(`
			INSERT INTO replacement_chunk(job_id, chunk_number, article_ids, status)
			VALUES($1, $2, $3, $4)
			RETURNING id
		`, job.ID, chunks[i].ChunkNumber, pq.Array(chunks[i].ArticleIDs), model.StatusPending).Scan(&chunks[i].ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *JobRepository) GetJob(id string) (*model.ReplacementJob, error) {
	var j model.ReplacementJob
	err := r.db.QueryRow(`
		SELECT id, dead_url, replacement_url, status, progress_current, progress_total,
			articles_processed, auto_applied_count, manual_review_count, failed_count,
			started_at, completed_at, error_message, created_at
		FROM replacement_job
		WHERE id = $1
	`, id).Scan(&j.ID, &j.DeadURL, &j.ReplacementURL, &j.Status, &j.ProgressCurrent, &j.ProgressTotal,
		&j.ArticlesProcessed, &j.AutoAppliedCount, &j.ManualReviewCount, &j.FailedCount,
		&j.StartedAt, &j.CompletedAt, &j.ErrorMessage, &j.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &j, nil
}

func (r *JobRepository) GetActiveJobs() ([]model.ReplacementJob, error) {
	rows, err := r.db.Query(`
		SELECT id, dead_url, replacement_url, status, progress_current, progress_total,
			articles_processed, auto_applied_count, manual_review_count, failed_count,
			started_at, completed_at, error_message, created_at
		FROM replacement_job
		WHERE status = $1 OR status = $2
		ORDER BY created_at ASC
	`, model.StatusPending, model.StatusRunning)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.ReplacementJob
	for rows.Next() {
		var j model.ReplacementJob
		err := rows.Scan(&j.ID, &j.DeadURL, &j.ReplacementURL, &j.Status, &j.ProgressCurrent, &j.ProgressTotal,
			&j.ArticlesProcessed, &j.AutoAppliedCount, &j.ManualReviewCount, &j.FailedCount,
			&j.StartedAt, &j.CompletedAt, &j.ErrorMessage, &j.CreatedAt)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func (r *JobRepository) GetChunks(jobID string) ([]model.ReplacementChunk, error) {
	rows, err := r.db.Query(`
		SELECT id, job_id, chunk_number, article_ids, status, progress_current,
			articles_processed, auto_applied_count, manual_review_count, failed_count,
			error_message, updated_at
		FROM replacement_chunk
		WHERE job_id = $1
		ORDER BY chunk_number ASC
	`, jobID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []model.ReplacementChunk
	for rows.Next() {
		var c model.ReplacementChunk
		var ids pq.Int64Array
		err := rows.Scan(&c.ID, &c.JobID, &c.ChunkNumber, &ids, &c.Status, &c.ProgressCurrent,
			&c.ArticlesProcessed, &c.AutoAppliedCount, &c.ManualReviewCount, &c.FailedCount,
			&c.ErrorMessage, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		c.ArticleIDs = ids
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chunks, nil
}

func (r *JobRepository) GetChunk(id int64) (*model.ReplacementChunk, error) {
	var c model.ReplacementChunk
	var ids pq.Int64Array
	err := r.db.QueryRow(`
		SELECT id, job_id, chunk_number, article_ids, status, progress_current,
			articles_processed, auto_applied_count, manual_review_count, failed_count,
			error_message, updated_at
		FROM replacement_chunk
		WHERE id = $1
	`, id).Scan(&c.ID, &c.JobID, &c.ChunkNumber, &ids, &c.Status, &c.ProgressCurrent,
		&c.ArticlesProcessed, &c.AutoAppliedCount, &c.ManualReviewCount, &c.FailedCount,
		&c.ErrorMessage, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	c.ArticleIDs = ids
	return &c, nil
}

// ResetStalledChunks moves processing chunks whose last heartbeat is
// older than the cutoff back to pending. Recovery is purely age-based:
// a merely slow invocation may be reprocessed, which is safe because
// chunk work is idempotent.
func (r *JobRepository) ResetStalledChunks(jobID string, cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE replacement_chunk
		SET status = $1, error_message = '', updated_at = NOW()
		WHERE job_id = $2 AND status = $3 AND updated_at < $4
	`, model.StatusPending, jobID, model.StatusProcessing, cutoff)

	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *JobRepository) NextPendingChunk(jobID string) (*model.ReplacementChunk, error) {
	var c model.ReplacementChunk
	var ids pq.Int64Array
	err := r.db.QueryRow(`
		SELECT id, job_id, chunk_number, article_ids, status, progress_current,
			articles_processed, auto_applied_count, manual_review_count, failed_count,
			error_message, updated_at
		FROM replacement_chunk
		WHERE job_id = $1 AND status = $2
		ORDER BY chunk_number ASC
		LIMIT 1
	`, jobID, model.StatusPending).Scan(&c.ID, &c.JobID, &c.ChunkNumber, &ids, &c.Status, &c.ProgressCurrent,
		&c.ArticlesProcessed, &c.AutoAppliedCount, &c.ManualReviewCount, &c.FailedCount,
		&c.ErrorMessage, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	c.ArticleIDs = ids
	return &c, nil
}

func (r *JobRepository) MarkChunkProcessing(id int64) error {
	_, err := r.db.Exec(`
		UPDATE replacement_chunk SET status = $1, updated_at = NOW() WHERE id = $2
	`, model.StatusProcessing, id)
	return err
}

// TouchChunkProgress doubles as the stall-detection heartbeat.
func (r *JobRepository) TouchChunkProgress(id int64, progress int) error {
	_, err := r.db.Exec(`
		UPDATE replacement_chunk SET progress_current = $1, updated_at = NOW() WHERE id = $2
	`, progress, id)
	return err
}

// CompleteChunk records the chunk's results by overwrite, never by
// addition: redoing the chunk after stall recovery leaves the same row.
func (r *JobRepository) CompleteChunk(id int64, processed, autoApplied, manualReview, failed int) error {
	_, err := r.db.Exec(`
		UPDATE replacement_chunk
		SET status = $1, articles_processed = $2, auto_applied_count = $3,
			manual_review_count = $4, failed_count = $5, updated_at = NOW()
		WHERE id = $6
	`, model.StatusCompleted, processed, autoApplied, manualReview, failed, id)
	return err
}

func (r *JobRepository) FailChunk(id int64, msg string) error {
	_, err := r.db.Exec(`
		UPDATE replacement_chunk SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3
	`, model.StatusFailed, msg, id)
	return err
}

func (r *JobRepository) MarkJobRunning(id string) error {
	_, err := r.db.Exec(`
		UPDATE replacement_job
		SET status = $1, started_at = COALESCE(started_at, NOW())
		WHERE id = $2
	`, model.StatusRunning, id)
	return err
}

// SyncJobCounters derives the job's aggregates from its completed chunk
// rows. Because the chunk rows hold each chunk's results exactly once,
// the sums stay correct no matter how often a chunk was reprocessed.
func (r *JobRepository) SyncJobCounters(id string) error {
	_, err := r.db.Exec(`
		UPDATE replacement_job j
		SET progress_current = agg.processed,
			articles_processed = agg.processed,
			auto_applied_count = agg.auto_applied,
			manual_review_count = agg.manual_review,
			failed_count = agg.failed
		FROM (
			SELECT COALESCE(SUM(articles_processed), 0) AS processed,
				COALESCE(SUM(auto_applied_count), 0) AS auto_applied,
				COALESCE(SUM(manual_review_count), 0) AS manual_review,
				COALESCE(SUM(failed_count), 0) AS failed
			FROM replacement_chunk
			WHERE job_id = $1 AND status = $2
		) agg
		WHERE j.id = $1
	`, id, model.StatusCompleted)
	return err
}

func (r *JobRepository) FinalizeJob(id string) error {
	_, err := r.db.Exec(`
		UPDATE replacement_job SET status = $1, completed_at = NOW() WHERE id = $2
	`, model.StatusCompleted, id)
	return err
}

func (r *JobRepository) FailJob(id string, msg string) error {
	_, err := r.db.Exec(`
		UPDATE replacement_job SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3
	`, model.StatusFailed, msg, id)
	return err
}

func (r *JobRepository) ResetFailedChunk(id int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE replacement_chunk
		SET status = $1, error_message = '', progress_current = 0, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, model.StatusPending, id, model.StatusFailed)

	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *JobRepository) ResetFailedChunksForJob(jobID string) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE replacement_chunk
		SET status = $1, error_message = '', progress_current = 0, updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`, model.StatusPending, jobID, model.StatusFailed)

	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReopenJob puts a finished job back into the running state after a
// chunk restart so the poller picks it up again.
func (r *JobRepository) ReopenJob(id string) error {
	_, err := r.db.Exec(`
		UPDATE replacement_job
		SET status = $1, error_message = '', completed_at = NULL
		WHERE id = $2
	`, model.StatusRunning, id)
	return err
}
