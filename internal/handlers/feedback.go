package handlers

import (
	"net/http"
	"strings"

	"github.com/blogpulse/backend/internal/metrics"
	"github.com/blogpulse/backend/internal/moderation"
	"github.com/blogpulse/backend/internal/models"
	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// SubmitFeedback validates and stores a site feedback submission
// POST /api/v1/feedback
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req struct {
		UUID   string `json:"uuid"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Rating int    `json:"rating"`
		Text   string `json:"feedback_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if req.Email != "" && !util.ValidateEmail(req.Email) {
		util.RespondValidationError(c, "email", "email address is malformed")
		return
	}

	err := h.pipeline.CheckFeedback(c.Request.Context(), moderation.FeedbackInput{
		ActorUUID: req.UUID,
		Rating:    req.Rating,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	fb := models.Feedback{
		ActorUUID: req.UUID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Rating:    req.Rating,
		Text:      strings.TrimSpace(req.Text),
		Status:    models.FeedbackPending,
	}
	if err := h.feedback.InsertFeedback(c.Request.Context(), &fb); err != nil {
		respondError(c, err)
		return
	}

	metrics.Get().FeedbackTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"feedbackId": fb.ID,
	})
}

// GetFeedbackStats returns feedback totals and rating distribution
// GET /api/v1/feedback/stats
func (h *Handlers) GetFeedbackStats(c *gin.Context) {
	stats, err := h.feedback.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentFeedback lists recent feedback with optional filters
// GET /api/v1/feedback/recent
func (h *Handlers) GetRecentFeedback(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	minRating := util.ParseInt(c.Query("min_rating"), 0)

	items, err := h.feedback.Recent(c.Request.Context(), limit, c.Query("status"), minRating)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": items,
		"count":    len(items),
	})
}
