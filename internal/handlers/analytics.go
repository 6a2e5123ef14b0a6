package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blogpulse/backend/internal/identity"
	"github.com/blogpulse/backend/internal/logger"
	"github.com/blogpulse/backend/internal/metrics"
	"github.com/blogpulse/backend/internal/models"
	"github.com/blogpulse/backend/internal/repository"
	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TrackEvent ingests one behavioral event. The event is always stored;
// session counters are updated best-effort afterward.
// POST /api/v1/analytics/track
func (h *Handlers) TrackEvent(c *gin.Context) {
	var req struct {
		UUID        string         `json:"uuid"`
		SessionID   string         `json:"session_id"`
		EventType   string         `json:"event_type"`
		PageURL     string         `json:"page_url"`
		PageTitle   string         `json:"page_title"`
		ElementID   string         `json:"element_id"`
		ElementType string         `json:"element_type"`
		ScrollDepth int            `json:"scroll_depth"`
		Duration    int            `json:"duration"`
		Metadata    models.JSONMap `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if req.UUID == "" || !identity.ValidToken(req.UUID) {
		util.RespondValidationError(c, "uuid", "uuid must be a valid UUID")
		return
	}
	if req.SessionID == "" {
		util.RespondValidationError(c, "session_id", "session_id is required")
		return
	}
	if !models.ValidEventTypes[req.EventType] {
		util.RespondValidationError(c, "event_type", "unknown event type")
		return
	}
	if req.ScrollDepth < 0 || req.ScrollDepth > 100 {
		util.RespondValidationError(c, "scroll_depth", "scroll_depth must be between 0 and 100")
		return
	}
	if req.Duration < 0 {
		util.RespondValidationError(c, "duration", "duration cannot be negative")
		return
	}

	event := models.AnalyticsEvent{
		ActorUUID:   req.UUID,
		SessionID:   req.SessionID,
		EventType:   req.EventType,
		PageURL:     req.PageURL,
		PageTitle:   req.PageTitle,
		ElementID:   req.ElementID,
		ElementType: req.ElementType,
		ScrollDepth: req.ScrollDepth,
		Duration:    req.Duration,
		Metadata:    req.Metadata,
	}
	if err := h.analytics.InsertEvent(c.Request.Context(), &event); err != nil {
		respondError(c, err)
		return
	}

	metrics.Get().AnalyticsEventsTotal.WithLabelValues(req.EventType).Inc()

	// Counter drift heals at session end, so a failure here only logs
	if err := h.analytics.ApplyEvent(c.Request.Context(), &event); err != nil {
		logger.Warn("session counter update failed",
			logger.WithSessionID(req.SessionID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"eventId": event.ID,
	})
}

// StartSession opens a browsing session
// POST /api/v1/analytics/session
func (h *Handlers) StartSession(c *gin.Context) {
	var req struct {
		UUID      string `json:"uuid"`
		SessionID string `json:"session_id"`
		EntryPage string `json:"entry_page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if req.UUID == "" || !identity.ValidToken(req.UUID) {
		util.RespondValidationError(c, "uuid", "uuid must be a valid UUID")
		return
	}
	if req.SessionID == "" {
		util.RespondValidationError(c, "session_id", "session_id is required")
		return
	}

	session := models.UserSession{
		SessionID: req.SessionID,
		ActorUUID: req.UUID,
		EntryPage: req.EntryPage,
		UserAgent: c.Request.UserAgent(),
	}
	if _, err := h.analytics.StartSession(c.Request.Context(), &session); err != nil {
		if errors.Is(err, repository.ErrSessionEnded) {
			util.RespondConflict(c, "session has already ended")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// EndSession finalizes a session with the client-reported aggregates
// POST /api/v1/analytics/session/end
func (h *Handlers) EndSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
		PageViews int    `json:"page_views"`
		Clicks    int    `json:"clicks"`
		MaxScroll int    `json:"max_scroll_depth"`
		TotalTime int    `json:"total_time"`
		ExitPage  string `json:"exit_page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if req.SessionID == "" {
		util.RespondValidationError(c, "session_id", "session_id is required")
		return
	}

	session, err := h.analytics.FinalizeSession(c.Request.Context(), req.SessionID, repository.SessionEnd{
		PageViews: req.PageViews,
		Clicks:    req.Clicks,
		MaxScroll: req.MaxScroll,
		TotalTime: req.TotalTime,
		ExitPage:  req.ExitPage,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			util.RespondNotFound(c, "session")
			return
		}
		if errors.Is(err, repository.ErrSessionEnded) {
			util.RespondConflict(c, "session has already ended")
			return
		}
		respondError(c, err)
		return
	}

	metrics.Get().SessionsFinalizedTotal.WithLabelValues(strconv.FormatBool(session.Bounced)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"bounced":          session.Bounced,
		"page_views":       session.PageViews,
		"clicks":           session.Clicks,
		"max_scroll_depth": session.MaxScroll,
		"total_time":       session.TotalTime,
	})
}

// GetDashboard returns aggregate analytics over a trailing window
// GET /api/v1/analytics/dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	days := util.ParseInt(c.Query("days"), 7)
	if days < 1 || days > 365 {
		util.RespondValidationError(c, "days", "days must be between 1 and 365")
		return
	}

	report, err := h.analytics.Dashboard(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
