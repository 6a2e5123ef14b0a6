package handlers

import (
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/blogpulse/backend/internal/errors"
	"github.com/blogpulse/backend/internal/metrics"
	"github.com/blogpulse/backend/internal/moderation"
	"github.com/blogpulse/backend/internal/models"
	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// CreateComment runs a submission through the moderation pipeline and
// stores the cleaned result
// POST /api/v1/posts/:slug/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	post := h.loadPostBySlug(c)
	if post == nil {
		return
	}

	var req struct {
		DisplayName string `json:"displayName"`
		Content     string `json:"content"`
		ClientID    string `json:"clientId"`
		UserIP      string `json:"userIP"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	actor, ok := h.resolveActor(c, req.ClientID, req.UserIP)
	if !ok {
		return
	}

	// Throttle keys on the address digest regardless of the identity
	// variant so token rotation cannot dodge it
	addrHash := h.resolver.HashAddress(c.ClientIP())

	cleaned, err := h.pipeline.CheckComment(c.Request.Context(), post.ID, addrHash, moderation.CommentInput{
		Body:        req.Content,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		recordCommentRejection(err)
		respondError(c, err)
		return
	}

	comment := models.Comment{
		PostID:      post.ID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Content:     cleaned,
		Status:      models.CommentStatusApproved,
	}
	if token, ok := actor.Token(); ok {
		comment.ClientID = &token
	} else if hash, ok := actor.AddressHash(); ok {
		comment.IPHash = &hash
	}

	if err := h.comments.InsertComment(c.Request.Context(), &comment); err != nil {
		respondError(c, err)
		return
	}

	metrics.Get().CommentsTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"comment":  comment,
		"clientId": actorClientID(actor),
	})
}

// ListComments returns approved comments for a post, newest first
// GET /api/v1/posts/:slug/comments
func (h *Handlers) ListComments(c *gin.Context) {
	post := h.loadPostBySlug(c)
	if post == nil {
		return
	}

	limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"))

	comments, total, err := h.comments.ListComments(c.Request.Context(), post.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// recordCommentRejection labels the rejection counter by gate outcome
func recordCommentRejection(err error) {
	reason := "other"
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		reason = strings.ToLower(string(apiErr.Code))
	}
	metrics.Get().CommentsRejectedTotal.WithLabelValues(reason).Inc()
}
