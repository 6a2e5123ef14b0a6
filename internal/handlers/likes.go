package handlers

import (
	"errors"
	"net/http"

	"github.com/blogpulse/backend/internal/identity"
	"github.com/blogpulse/backend/internal/logger"
	"github.com/blogpulse/backend/internal/metrics"
	"github.com/blogpulse/backend/internal/middleware"
	"github.com/blogpulse/backend/internal/repository"
	"github.com/blogpulse/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// likeRequest is the optional body for like/unlike calls. userIP lets
// trusted proxies forward the original caller address.
type likeRequest struct {
	ClientID string `json:"clientId"`
	UserIP   string `json:"userIP"`
}

// resolveActor builds the caller identity from the optional client
// token and the request address. Responds itself on failure.
func (h *Handlers) resolveActor(c *gin.Context, clientID, userIP string) (identity.Identity, bool) {
	if clientID == "" {
		clientID = c.Query("clientId")
	}
	addr := userIP
	if addr == "" {
		addr = c.ClientIP()
	}

	actor, err := h.resolver.Resolve(clientID, addr)
	if err != nil {
		respondError(c, err)
		return identity.Identity{}, false
	}
	return actor, true
}

// actorClientID returns the caller's token, minting one for callers
// that arrived without it so their future actions dedup across networks
func actorClientID(actor identity.Identity) string {
	if token, ok := actor.Token(); ok {
		return token
	}
	return identity.NewToken()
}

// refreshLikeCount recomputes the true count after a write and pushes
// it into the cache so readers never see a stale value cross a write.
func (h *Handlers) refreshLikeCount(c *gin.Context, postID string) int64 {
	count, err := h.likes.CountLikes(c.Request.Context(), postID)
	if err != nil {
		logger.Warn("like count refresh failed",
			logger.WithPostID(postID),
			zap.Error(err),
		)
		return 0
	}
	h.likeCounts.Set(c.Request.Context(), postID, count)
	return count
}

// LikePost records an anonymous like
// POST /api/v1/posts/:slug/like
func (h *Handlers) LikePost(c *gin.Context) {
	post := h.loadPostBySlug(c)
	if post == nil {
		return
	}

	var req likeRequest
	_ = c.ShouldBindJSON(&req)

	actor, ok := h.resolveActor(c, req.ClientID, req.UserIP)
	if !ok {
		return
	}

	if _, err := h.likes.InsertLike(c.Request.Context(), post.ID, actor); err != nil {
		if errors.Is(err, repository.ErrDuplicateLike) {
			util.RespondConflict(c, "post already liked")
			return
		}
		respondError(c, err)
		return
	}

	metrics.Get().LikesTotal.WithLabelValues("like").Inc()
	count := h.refreshLikeCount(c, post.ID)

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"likes":    count,
		"clientId": actorClientID(actor),
	})
}

// UnlikePost removes the caller's like
// DELETE /api/v1/posts/:slug/unlike
func (h *Handlers) UnlikePost(c *gin.Context) {
	post := h.loadPostBySlug(c)
	if post == nil {
		return
	}

	var req likeRequest
	_ = c.ShouldBindJSON(&req)

	actor, ok := h.resolveActor(c, req.ClientID, req.UserIP)
	if !ok {
		return
	}

	if err := h.likes.DeleteLike(c.Request.Context(), post.ID, actor); err != nil {
		if errors.Is(err, repository.ErrLikeNotFound) {
			util.RespondNotFound(c, "like")
			return
		}
		respondError(c, err)
		return
	}

	metrics.Get().LikesTotal.WithLabelValues("unlike").Inc()
	count := h.refreshLikeCount(c, post.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"likes":   count,
	})
}

// GetLikes returns the like count for a post, served read-through from
// the cache
// GET /api/v1/posts/:slug/likes
func (h *Handlers) GetLikes(c *gin.Context) {
	post := h.loadPostBySlug(c)
	if post == nil {
		return
	}

	if count, hit := h.likeCounts.Get(c.Request.Context(), post.ID); hit {
		middleware.RecordCacheHit("like_counts")
		c.JSON(http.StatusOK, gin.H{"postId": post.ID, "likes": count, "cached": true})
		return
	}
	middleware.RecordCacheMiss("like_counts")

	count, err := h.likes.CountLikes(c.Request.Context(), post.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.likeCounts.Set(c.Request.Context(), post.ID, count)

	c.JSON(http.StatusOK, gin.H{"postId": post.ID, "likes": count, "cached": false})
}
