package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"

	"github.com/gin-gonic/gin"
)

type RevisionService interface {
	Rollback(revisionID int64) error
}

type RevisionHandler struct {
	service RevisionService
}

func NewRevisionHandler(service RevisionService) *RevisionHandler {
	return &RevisionHandler{service: service}
}

// Rollback restores a snapshotted article. A revision is rolled back at
// most once, and only inside its rollback window.
func (h *RevisionHandler) Rollback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid revision id"})
		return
	}

	err = h.service.Rollback(id)
	switch {
	case errors.Is(err, model.ErrRevisionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Revision not found"})
	case errors.Is(err, model.ErrRollbackExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Rollback window has expired"})
	case errors.Is(err, model.ErrRollbackUsed):
		c.JSON(http.StatusConflict, gin.H{"error": "Revision has already been rolled back"})
	case err != nil:
		slog.Error("error rolling back revision", "revision_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to roll back revision"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "rolled_back", "revision_id": id})
	}
}
