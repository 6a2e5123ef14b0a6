package handlers

import (
	"net/http"

	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// ListPosts returns a page of posts with their engagement counts
// GET /api/v1/posts
func (h *Handlers) ListPosts(c *gin.Context) {
	limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"))

	posts, total, err := h.posts.ListPosts(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetPost returns one post by slug with its engagement counts
// GET /api/v1/posts/:slug
func (h *Handlers) GetPost(c *gin.Context) {
	post := h.loadPostBySlug(c)
	if post == nil {
		return
	}

	c.JSON(http.StatusOK, post)
}
