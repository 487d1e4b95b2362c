package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/jobs"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"

	"github.com/gin-gonic/gin"
)

type JobService interface {
	Enqueue(deadURL, replacementURL string) (*model.ReplacementJob, error)
	Status(jobID string) (*model.ReplacementJob, []model.ReplacementChunk, error)
	RestartJob(jobID string) (int64, error)
	RestartChunk(chunkID int64) error
	PollAndAdvance() error
}

type JobHandler struct {
	service JobService
}

func NewJobHandler(service JobService) *JobHandler {
	return &JobHandler{service: service}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toJobResponse(job *model.ReplacementJob, chunks []model.ReplacementChunk) JobResponse {
	res := JobResponse{
		ID:                job.ID,
		DeadURL:           job.DeadURL,
		ReplacementURL:    job.ReplacementURL,
		Status:            job.Status,
		ProgressCurrent:   job.ProgressCurrent,
		ProgressTotal:     job.ProgressTotal,
		ArticlesProcessed: job.ArticlesProcessed,
		AutoAppliedCount:  job.AutoAppliedCount,
		ManualReviewCount: job.ManualReviewCount,
		FailedCount:       job.FailedCount,
		StartedAt:         formatTimePtr(job.StartedAt),
		CompletedAt:       formatTimePtr(job.CompletedAt),
		ErrorMessage:      job.ErrorMessage,
	}

	for _, c := range chunks {
		res.Chunks = append(res.Chunks, ChunkResponse{
			ID:              c.ID,
			ChunkNumber:     c.ChunkNumber,
			ArticleCount:    len(c.ArticleIDs),
			Status:          c.Status,
			ProgressCurrent: c.ProgressCurrent,
			ErrorMessage:    c.ErrorMessage,
			UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
		})
	}

	return res
}

func (h *JobHandler) CreateReplacement(c *gin.Context) {
	var req CreateReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dead_url is required"})
		return
	}

	job, err := h.service.Enqueue(req.DeadURL, req.ReplacementURL)
	if errors.Is(err, jobs.ErrNoArticles) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No published articles cite the given URL"})
		return
	}
	if err != nil {
		slog.Error("error enqueueing replacement job", "dead_url", req.DeadURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue replacement job"})
		return
	}

	c.JSON(http.StatusAccepted, toJobResponse(job, nil))
}

func (h *JobHandler) GetReplacement(c *gin.Context) {
	id := c.Param("id")

	job, chunks, err := h.service.Status(id)
	if errors.Is(err, model.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Replacement job not found"})
		return
	}
	if err != nil {
		slog.Error("error fetching replacement job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job, chunks))
}

// RestartReplacement resets failed chunks back to pending: the whole
// job by default, a single chunk when chunk_id is given.
func (h *JobHandler) RestartReplacement(c *gin.Context) {
	id := c.Param("id")

	if rawChunk := c.Query("chunk_id"); rawChunk != "" {
		chunkID, err := strconv.ParseInt(rawChunk, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chunk id"})
			return
		}

		err = h.service.RestartChunk(chunkID)
		if errors.Is(err, model.ErrChunkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chunk not found"})
			return
		}
		if errors.Is(err, jobs.ErrChunkNotFailed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Chunk is not in a failed state"})
			return
		}
		if err != nil {
			slog.Error("error restarting chunk", "chunk_id", chunkID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restart chunk"})
			return
		}

		c.JSON(http.StatusOK, RestartResponse{JobID: id, ChunksReset: 1})
		return
	}

	reset, err := h.service.RestartJob(id)
	if errors.Is(err, model.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Replacement job not found"})
		return
	}
	if err != nil {
		slog.Error("error restarting job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restart job"})
		return
	}

	c.JSON(http.StatusOK, RestartResponse{JobID: id, ChunksReset: reset})
}

// Advance is the external trigger surface for the scheduler: each call
// advances at most one chunk and is safe to repeat.
func (h *JobHandler) Advance(c *gin.Context) {
	if err := h.service.PollAndAdvance(); err != nil {
		slog.Error("error advancing jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to advance jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "advanced"})
}
