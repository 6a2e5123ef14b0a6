package moderation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blogpulse/backend/internal/cache"
	apierrors "github.com/blogpulse/backend/internal/errors"
	"github.com/blogpulse/backend/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDuplicates lets tests flip the duplicate-content answer
type stubDuplicates struct {
	duplicate bool
}

func (s *stubDuplicates) HasRecentDuplicate(ctx context.Context, postID, content string, since time.Time) (bool, error) {
	return s.duplicate, nil
}

func newTestPipeline(dup bool) *Pipeline {
	return NewPipeline(cache.NewCounters(nil), &stubDuplicates{duplicate: dup})
}

func validInput() CommentInput {
	return CommentInput{
		Body:        "This is a perfectly reasonable comment.",
		DisplayName: "Reader",
	}
}

func assertCode(t *testing.T, err error, code apierrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok, "expected APIError, got %T", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestCheckCommentAcceptsCleanSubmission(t *testing.T) {
	p := newTestPipeline(false)

	cleaned, err := p.CheckComment(context.Background(), "post-1", "hash", validInput())
	require.NoError(t, err)
	assert.Equal(t, "This is a perfectly reasonable comment.", cleaned)
}

func TestCheckCommentLengthBoundsApplyToCleanedText(t *testing.T) {
	p := newTestPipeline(false)

	// 9 characters after cleanup: under the floor
	_, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "too short",
		DisplayName: "Reader",
	})
	assertCode(t, err, apierrors.ErrValidation)

	// 10 characters: exactly at the floor
	cleaned, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "ten chars!",
		DisplayName: "Reader",
	})
	require.NoError(t, err)
	assert.Equal(t, "ten chars!", cleaned)

	// Markup that pads a too-short body does not help
	_, err = p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "<div><span>short</span></div>",
		DisplayName: "Reader",
	})
	assertCode(t, err, apierrors.ErrValidation)

	// Over the ceiling
	_, err = p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        strings.Repeat("a", MaxCommentLength+1),
		DisplayName: "Reader",
	})
	assertCode(t, err, apierrors.ErrValidation)
}

func TestCheckCommentStripsScriptContent(t *testing.T) {
	p := newTestPipeline(false)

	cleaned, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        `Great post! <script>alert("x")</script> Thanks for writing it.`,
		DisplayName: "Reader",
	})
	require.NoError(t, err)
	assert.NotContains(t, cleaned, "script")
	assert.NotContains(t, cleaned, "alert")
	assert.Contains(t, cleaned, "Great post!")
}

func TestCheckCommentRejectsMissingFields(t *testing.T) {
	p := newTestPipeline(false)

	_, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{DisplayName: "Reader"})
	assertCode(t, err, apierrors.ErrValidation)

	_, err = p.CheckComment(context.Background(), "post-1", "hash", CommentInput{Body: "hello there friend"})
	assertCode(t, err, apierrors.ErrValidation)

	_, err = p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "hello there friend",
		DisplayName: strings.Repeat("n", MaxDisplayName+1),
	})
	assertCode(t, err, apierrors.ErrValidation)
}

func TestCheckCommentBlocksSpamLexicon(t *testing.T) {
	p := newTestPipeline(false)

	_, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "Buy now, free money!!! Visit my site today.",
		DisplayName: "Spammer",
	})
	assertCode(t, err, apierrors.ErrSpamDetected)
}

func TestCheckCommentBlocksRepetition(t *testing.T) {
	p := newTestPipeline(false)

	_, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "spam spam spam spam spam spam spam spam",
		DisplayName: "Reader",
	})
	assertCode(t, err, apierrors.ErrSpamDetected)

	// Short bodies are not exempt: three tokens of one word is 100%
	_, err = p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "spam spam spam",
		DisplayName: "Reader",
	})
	assertCode(t, err, apierrors.ErrSpamDetected)
}

func TestCheckCommentCountsCharactersNotBytes(t *testing.T) {
	p := newTestPipeline(false)

	// Five characters (fifteen bytes): still under the floor
	_, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "すごく良い",
		DisplayName: "Reader",
	})
	assertCode(t, err, apierrors.ErrValidation)

	// Eleven characters clears the floor regardless of byte width
	cleaned, err := p.CheckComment(context.Background(), "post-1", "hash", CommentInput{
		Body:        "とても勉強になりました",
		DisplayName: "Reader",
	})
	require.NoError(t, err)
	assert.Equal(t, "とても勉強になりました", cleaned)
}

func TestCheckCommentThrottlesSixthSubmission(t *testing.T) {
	p := newTestPipeline(false)
	ctx := context.Background()

	for i := 0; i < CommentBurst; i++ {
		input := validInput()
		input.Body = fmt.Sprintf("This is comment number %d in the burst.", i)
		_, err := p.CheckComment(ctx, "post-1", "same-actor", input)
		require.NoError(t, err, "comment %d should pass", i+1)
	}

	_, err := p.CheckComment(ctx, "post-1", "same-actor", validInput())
	assertCode(t, err, apierrors.ErrRateLimited)

	// A different actor is unaffected
	_, err = p.CheckComment(ctx, "post-1", "other-actor", validInput())
	require.NoError(t, err)
}

func TestCheckCommentRejectsRecentDuplicate(t *testing.T) {
	p := newTestPipeline(true)

	_, err := p.CheckComment(context.Background(), "post-1", "hash", validInput())
	assertCode(t, err, apierrors.ErrConflict)
}

func TestCheckFeedbackValidation(t *testing.T) {
	p := newTestPipeline(false)
	ctx := context.Background()
	actor := identity.NewToken()

	// Valid
	require.NoError(t, p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 5, Text: "Love it"}))

	// Rating out of bounds
	err := p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 6, Text: "Love it"})
	assertCode(t, err, apierrors.ErrValidation)
	err = p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 0, Text: "Love it"})
	assertCode(t, err, apierrors.ErrValidation)

	// Malformed actor UUID
	err = p.CheckFeedback(ctx, FeedbackInput{ActorUUID: "nope", Rating: 3, Text: "Love it"})
	assertCode(t, err, apierrors.ErrValidation)

	// Empty and oversized text
	err = p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 3, Text: ""})
	assertCode(t, err, apierrors.ErrValidation)
	err = p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 3, Text: strings.Repeat("a", MaxFeedbackLength+1)})
	assertCode(t, err, apierrors.ErrValidation)
}

func TestCheckFeedbackThrottlesEleventhSubmission(t *testing.T) {
	p := newTestPipeline(false)
	ctx := context.Background()
	actor := identity.NewToken()

	for i := 0; i < FeedbackBurst; i++ {
		require.NoError(t, p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 4, Text: "Solid"}))
	}

	err := p.CheckFeedback(ctx, FeedbackInput{ActorUUID: actor, Rating: 4, Text: "Solid"})
	assertCode(t, err, apierrors.ErrRateLimited)
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		avoid []string
	}{
		{
			name:  "script block removed",
			in:    `before <script type="text/javascript">evil()</script> after`,
			want:  "before after",
			avoid: []string{"evil", "script"},
		},
		{
			name:  "event handler removed",
			in:    `<img src=x onerror="steal()"> hello world`,
			avoid: []string{"onerror", "steal"},
		},
		{
			name:  "javascript uri removed",
			in:    `link javascript:alert(1) end`,
			avoid: []string{"javascript:"},
		},
		{
			name: "plain text untouched",
			in:   "just a normal comment",
			want: "just a normal comment",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.in)
			if tc.want != "" {
				assert.Equal(t, tc.want, got)
			}
			for _, bad := range tc.avoid {
				assert.NotContains(t, strings.ToLower(got), bad)
			}
		})
	}
}

func TestIsRepetitive(t *testing.T) {
	// Token share at or above 30% is flagged once the token repeats
	assert.True(t, IsRepetitive("spam spam spam"))
	assert.True(t, IsRepetitive("wow wow nice post"))
	assert.True(t, IsRepetitive("wow wow wow nice post"))
	// Every token unique: nothing repeats, so the ratio never applies
	assert.False(t, IsRepetitive("ten chars!"))
	assert.False(t, IsRepetitive("each word here is entirely different from others"))
	// One repeat in seven tokens sits under the threshold
	assert.False(t, IsRepetitive("good good points raised in this article"))
	assert.False(t, IsRepetitive(""))
}
