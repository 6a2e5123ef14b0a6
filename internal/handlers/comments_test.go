package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/blogpulse/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CommentTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	post     *models.Post
}

func (suite *CommentTestSuite) SetupSuite() {
	suite.db = newTestDB(suite.T(), "comments_test")

	suite.post = createTestPost(suite.T(), suite.db, "commented-post")
}

// SetupTest rebuilds handlers so each test gets fresh throttle windows
func (suite *CommentTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM comments")

	suite.handlers = NewHandlers(suite.db, nil, "test-salt")
	suite.router = gin.New()
	posts := suite.router.Group("/api/v1/posts")
	posts.POST("/:slug/comments", suite.handlers.CreateComment)
	posts.GET("/:slug/comments", suite.handlers.ListComments)
}

func commentPayload(content string) gin.H {
	return gin.H{
		"displayName": "Reader",
		"content":     content,
	}
}

func (suite *CommentTestSuite) TestCreateCommentStoresCleanedBody() {
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
		commentPayload(`Nice write-up! <script>alert("x")</script> Learned a lot.`))
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.Equal(suite.T(), true, body["success"])

	comment, ok := body["comment"].(map[string]interface{})
	require.True(suite.T(), ok)
	content, _ := comment["content"].(string)
	assert.NotContains(suite.T(), content, "script")
	assert.NotContains(suite.T(), content, "alert")
	assert.Contains(suite.T(), content, "Nice write-up!")
	assert.Equal(suite.T(), models.CommentStatusApproved, comment["status"])

	var stored models.Comment
	require.NoError(suite.T(), suite.db.First(&stored).Error)
	assert.NotContains(suite.T(), stored.Content, "<script>")

	// Anonymous commenters get a token to persist for future submissions
	issued, ok := body["clientId"].(string)
	require.True(suite.T(), ok)
	assert.NotEmpty(suite.T(), issued)
}

func (suite *CommentTestSuite) TestCreateCommentTooShortAfterCleanup() {
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
		commentPayload("<div><b>short</b></div>"))
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", body["code"])
}

func (suite *CommentTestSuite) TestCreateCommentSpamBlocked() {
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
		commentPayload("Buy now, free money!!! Visit my site for a crypto giveaway."))
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "SPAM_DETECTED", body["code"])

	var count int64
	suite.db.Model(&models.Comment{}).Count(&count)
	assert.EqualValues(suite.T(), 0, count)
}

func (suite *CommentTestSuite) TestCreateCommentThrottled() {
	for i := 0; i < 5; i++ {
		w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
			commentPayload(fmt.Sprintf("This is burst comment number %d with enough length.", i)))
		require.Equal(suite.T(), http.StatusCreated, w.Code, "comment %d should pass", i+1)
	}

	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
		commentPayload("One more comment beyond the allowed burst."))
	assert.Equal(suite.T(), http.StatusTooManyRequests, w.Code)
	assert.Equal(suite.T(), "RATE_LIMITED", body["code"])
}

func (suite *CommentTestSuite) TestCreateCommentDuplicateContent() {
	first, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
		commentPayload("An insightful observation about this article."))
	require.Equal(suite.T(), http.StatusCreated, first.Code)

	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
		commentPayload("An insightful observation about this article."))
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "CONFLICT", body["code"])
}

func (suite *CommentTestSuite) TestCreateCommentUnknownPost() {
	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/missing/comments",
		commentPayload("A comment destined for nowhere at all."))
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *CommentTestSuite) TestListCommentsNewestFirstApprovedOnly() {
	for i := 0; i < 3; i++ {
		w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/commented-post/comments",
			commentPayload(fmt.Sprintf("Listed comment number %d with enough length.", i)))
		require.Equal(suite.T(), http.StatusCreated, w.Code)
	}

	// A pending comment stays hidden
	pending := models.Comment{
		PostID:      suite.post.ID,
		DisplayName: "Mod Queue",
		Content:     "held for review, should not appear",
		Status:      models.CommentStatusPending,
	}
	require.NoError(suite.T(), suite.db.Create(&pending).Error)

	w, body := doJSON(suite.router, http.MethodGet, "/api/v1/posts/commented-post/comments", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.EqualValues(suite.T(), 3, body["total"])

	comments, ok := body["comments"].([]interface{})
	require.True(suite.T(), ok)
	assert.Len(suite.T(), comments, 3)
}

func TestCommentTestSuite(t *testing.T) {
	suite.Run(t, new(CommentTestSuite))
}
