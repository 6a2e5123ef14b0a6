package handlers

import (
	"errors"
	"net/http"

	"github.com/blogpulse/backend/internal/metrics"
	"github.com/blogpulse/backend/internal/repository"
	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	Email string `json:"email"`
}

// Subscribe adds or reactivates a newsletter subscription
// POST /api/v1/newsletter/subscribe
func (h *Handlers) Subscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	email := repository.NormalizeEmail(req.Email)
	if !util.ValidateEmail(email) {
		util.RespondValidationError(c, "email", "a valid email address is required")
		return
	}

	_, outcome, err := h.newsletter.UpsertSubscription(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionBounced) {
			util.RespondConflict(c, "this address has bounced and cannot be re-subscribed")
			return
		}
		respondError(c, err)
		return
	}

	var action, message string
	status := http.StatusCreated
	switch outcome {
	case repository.OutcomeSubscribed:
		action, message = "subscribed", "subscribed"
	case repository.OutcomeReactivated:
		action, message = "reactivated", "subscription reactivated"
	default:
		action, message = "already_subscribed", "already subscribed"
		status = http.StatusOK
	}
	metrics.Get().SubscriptionsTotal.WithLabelValues(action).Inc()

	c.JSON(status, gin.H{
		"success": true,
		"message": message,
	})
}

// Unsubscribe deactivates a subscription. Idempotent: repeating it on
// an already-unsubscribed address succeeds.
// POST /api/v1/newsletter/unsubscribe
func (h *Handlers) Unsubscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	email := repository.NormalizeEmail(req.Email)
	if !util.ValidateEmail(email) {
		util.RespondValidationError(c, "email", "a valid email address is required")
		return
	}

	if _, err := h.newsletter.Unsubscribe(c.Request.Context(), email); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			util.RespondNotFound(c, "subscription")
			return
		}
		respondError(c, err)
		return
	}

	metrics.Get().SubscriptionsTotal.WithLabelValues("unsubscribed").Inc()

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SubscriptionStatus reports the lifecycle state of an address without
// creating or mutating anything
// GET /api/v1/newsletter/status
func (h *Handlers) SubscriptionStatus(c *gin.Context) {
	email := repository.NormalizeEmail(c.Query("email"))
	if !util.ValidateEmail(email) {
		util.RespondValidationError(c, "email", "a valid email address is required")
		return
	}

	sub, err := h.newsletter.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			util.RespondNotFound(c, "subscription")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":           sub.Email,
		"status":          sub.Status,
		"subscribed_at":   sub.SubscribedAt,
		"unsubscribed_at": sub.UnsubscribedAt,
	})
}
