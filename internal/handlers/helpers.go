package handlers

import (
	"errors"

	apierrors "github.com/blogpulse/backend/internal/errors"
	"github.com/blogpulse/backend/internal/logger"
	"github.com/blogpulse/backend/internal/middleware"
	"github.com/blogpulse/backend/internal/models"
	"github.com/blogpulse/backend/internal/repository"
	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps any error to a structured response. Typed API
// errors pass through; everything else is logged and masked as 500.
func respondError(c *gin.Context, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	logger.Log.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	middleware.RecordError("internal", c.Request.URL.Path)
	util.RespondInternalError(c)
}

// loadPostBySlug resolves the :slug param to a post, responding 404
// itself on a miss. Returns nil when the response was already sent.
func (h *Handlers) loadPostBySlug(c *gin.Context) *models.Post {
	slug := c.Param("slug")
	post, err := h.posts.GetPostBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			util.RespondNotFound(c, "post")
			return nil
		}
		respondError(c, err)
		return nil
	}
	return post
}
