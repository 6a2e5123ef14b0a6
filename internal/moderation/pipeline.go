// Package moderation is the synchronous validation and anti-abuse
// pipeline applied to free-text submissions before they are persisted.
// Each gate is hard: the first failure aborts with a specific error.
package moderation

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/blogpulse/backend/internal/cache"
	apierrors "github.com/blogpulse/backend/internal/errors"
	"github.com/blogpulse/backend/internal/identity"
)

// Comment gate limits. Length bounds apply to the cleaned body - the
// stored representation - not the raw submission.
const (
	MinCommentLength = 10
	MaxCommentLength = 2000
	MaxDisplayName   = 50

	CommentWindow = 60 * time.Second
	CommentBurst  = 5

	DuplicateWindow = time.Hour
)

// Feedback variant limits
const (
	MinFeedbackLength = 1
	MaxFeedbackLength = 2000
	MinRating         = 1
	MaxRating         = 5

	FeedbackWindow = time.Minute
	FeedbackBurst  = 10
)

// DuplicateChecker answers whether an identical cleaned body was already
// stored for a post recently. Implemented by the comment repository.
type DuplicateChecker interface {
	HasRecentDuplicate(ctx context.Context, postID, content string, since time.Time) (bool, error)
}

// CommentInput is a raw comment submission
type CommentInput struct {
	Body        string
	DisplayName string
}

// Pipeline runs the comment gates in order. Throttle counters live in
// the shared cache so all replicas observe one window per actor.
type Pipeline struct {
	counters   *cache.Counters
	duplicates DuplicateChecker
}

// NewPipeline creates the moderation pipeline
func NewPipeline(counters *cache.Counters, duplicates DuplicateChecker) *Pipeline {
	return &Pipeline{counters: counters, duplicates: duplicates}
}

// CheckComment runs every gate against a submission and returns the
// cleaned body to persist. addrHash keys the per-actor throttle; it is
// the salted address digest, never the raw address.
func (p *Pipeline) CheckComment(ctx context.Context, postID, addrHash string, input CommentInput) (string, error) {
	// Presence
	if input.Body == "" {
		return "", apierrors.ValidationError("content", "comment content is required")
	}
	if input.DisplayName == "" {
		return "", apierrors.ValidationError("displayName", "display name is required")
	}
	if utf8.RuneCountInString(input.DisplayName) > MaxDisplayName {
		return "", apierrors.ValidationError("displayName", fmt.Sprintf("display name must be at most %d characters", MaxDisplayName))
	}

	// Sanitize, then bound the cleaned text. Limits are characters, not
	// bytes, so multibyte text is measured the way readers see it.
	cleaned := Sanitize(input.Body)
	if utf8.RuneCountInString(cleaned) < MinCommentLength {
		return "", apierrors.ValidationError("content", fmt.Sprintf("comment must be at least %d characters", MinCommentLength))
	}
	if utf8.RuneCountInString(cleaned) > MaxCommentLength {
		return "", apierrors.ValidationError("content", fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}

	// Spam lexicon
	if term := FindSpamTerm(cleaned); term != "" {
		return "", apierrors.SpamDetected("comment contains blocked content")
	}

	// Repetition heuristic
	if IsRepetitive(cleaned) {
		return "", apierrors.SpamDetected("comment looks like repetitive spam")
	}

	// Per-actor throttle
	if addrHash != "" {
		key := fmt.Sprintf("throttle:comments:%s", addrHash)
		count, err := p.counters.Incr(ctx, key, CommentWindow)
		if err == nil && count > CommentBurst {
			return "", apierrors.RateLimited("too many comments, slow down")
		}
	}

	// Duplicate content for the same post within the window
	if p.duplicates != nil {
		dup, err := p.duplicates.HasRecentDuplicate(ctx, postID, cleaned, time.Now().UTC().Add(-DuplicateWindow))
		if err != nil {
			return "", err
		}
		if dup {
			return "", apierrors.Conflict("an identical comment was posted recently")
		}
	}

	return cleaned, nil
}

// FeedbackInput is a raw feedback submission
type FeedbackInput struct {
	ActorUUID string
	Rating    int
	Text      string
}

// CheckFeedback runs the lighter feedback variant: presence, identifier
// format, rating bounds and length only - no spam or repetition gates.
func (p *Pipeline) CheckFeedback(ctx context.Context, input FeedbackInput) error {
	if input.ActorUUID == "" {
		return apierrors.ValidationError("uuid", "uuid is required")
	}
	if !identity.ValidToken(input.ActorUUID) {
		return apierrors.ValidationError("uuid", "uuid must be a valid UUID")
	}
	if input.Rating < MinRating || input.Rating > MaxRating {
		return apierrors.ValidationError("rating", fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	if utf8.RuneCountInString(input.Text) < MinFeedbackLength {
		return apierrors.ValidationError("feedback_text", "feedback_text is required")
	}
	if utf8.RuneCountInString(input.Text) > MaxFeedbackLength {
		return apierrors.ValidationError("feedback_text", fmt.Sprintf("feedback_text must be at most %d characters", MaxFeedbackLength))
	}

	key := fmt.Sprintf("throttle:feedback:%s", input.ActorUUID)
	count, err := p.counters.Incr(ctx, key, FeedbackWindow)
	if err == nil && count > FeedbackBurst {
		return apierrors.RateLimited("too many feedback submissions, try again later")
	}

	return nil
}
