package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"

	"github.com/gin-gonic/gin"
)

type ArticleStore interface {
	GetPublishedFeed(limit, offset int) ([]model.Article, error)
	GetFeedTotal() (int, error)
	GetBySlug(slug string) (*model.Article, error)
}

type ArticleHandler struct {
	repository ArticleStore
}

func NewArticleHandler(repository ArticleStore) *ArticleHandler {
	return &ArticleHandler{repository: repository}
}

func toCitationResponses(citations []model.Citation) []CitationResponse {
	res := make([]CitationResponse, 0, len(citations))
	for _, c := range citations {
		res = append(res, CitationResponse{
			URL:              c.URL,
			Source:           c.Source,
			Anchor:           c.Anchor,
			SourceType:       c.SourceType,
			AuthorityScore:   c.AuthorityScore,
			VerificationDate: c.VerificationDate,
		})
	}
	return res
}

func (h *ArticleHandler) GetFeed(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	articles, err := h.repository.GetPublishedFeed(limit, offset)
	if err != nil {
		slog.Error("error fetching article feed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.GetFeedTotal()
	if err != nil {
		slog.Error("error fetching feed total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var articleRes []ArticleResponse
	for _, a := range articles {
		articleRes = append(articleRes, ArticleResponse{
			ID:          a.ID,
			Slug:        a.Slug,
			Language:    a.Language,
			Headline:    a.Headline,
			PublishedAt: a.PublishedAt.Format(time.RFC3339),
			Citations:   toCitationResponses(a.Citations),
		})
	}

	c.JSON(http.StatusOK, FeedResponse{
		Articles: articleRes,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	slug := c.Param("slug")

	article, err := h.repository.GetBySlug(slug)
	if err != nil {
		slog.Error("error fetching article", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, ArticleResponse{
		ID:          article.ID,
		Slug:        article.Slug,
		Language:    article.Language,
		Headline:    article.Headline,
		Content:     article.Content,
		PublishedAt: article.PublishedAt.Format(time.RFC3339),
		Citations:   toCitationResponses(article.Citations),
	})
}

func (h *ArticleHandler) GetHealth(c *gin.Context) {
	_, err := h.repository.GetFeedTotal()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	raw := c.Query(name)

	if raw == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", raw, "error", err)
		return defaultValue
	}

	return parsed
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 10
		maxLimit     = 100
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		slog.Warn("invalid query parameter, using default", "param", "offset", "value", offset, "default", 0)
		return 0
	}
	return offset
}
