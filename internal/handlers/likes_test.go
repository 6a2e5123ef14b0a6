package handlers

import (
	"net/http"
	"testing"

	"github.com/blogpulse/backend/internal/identity"
	"github.com/blogpulse/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type LikeTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	post     *models.Post
}

func (suite *LikeTestSuite) SetupSuite() {
	suite.db = newTestDB(suite.T(), "likes_test")
	suite.handlers = NewHandlers(suite.db, nil, "test-salt")

	suite.router = gin.New()
	posts := suite.router.Group("/api/v1/posts")
	posts.POST("/:slug/like", suite.handlers.LikePost)
	posts.DELETE("/:slug/unlike", suite.handlers.UnlikePost)
	posts.GET("/:slug/likes", suite.handlers.GetLikes)

	suite.post = createTestPost(suite.T(), suite.db, "hello-world")
}

func (suite *LikeTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM likes")
}

func (suite *LikeTestSuite) TestLikeWithClientToken() {
	token := identity.NewToken()

	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": token})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.Equal(suite.T(), true, body["success"])
	assert.EqualValues(suite.T(), 1, body["likes"])
	// Token callers get their own identity echoed back, not a new one
	assert.Equal(suite.T(), token, body["clientId"])
}

func (suite *LikeTestSuite) TestRepeatLikeSameTokenConflicts() {
	token := identity.NewToken()

	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": token})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": token})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "CONFLICT", body["code"])

	var count int64
	suite.db.Model(&models.Like{}).Count(&count)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *LikeTestSuite) TestAnonymousLikeIssuesToken() {
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	issued, ok := body["clientId"].(string)
	require.True(suite.T(), ok, "response should hand back a clientId")
	assert.True(suite.T(), identity.ValidToken(issued))

	// Same address, same day: deduped
	w, _ = doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *LikeTestSuite) TestLikeHonorsForwardedAddress() {
	// A proxy may forward the original caller address; dedup follows it
	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"userIP": "203.0.113.7"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w, _ = doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"userIP": "203.0.113.7"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// A different forwarded address is a different actor
	w, _ = doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"userIP": "203.0.113.8"})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
}

func (suite *LikeTestSuite) TestMalformedTokenRejected() {
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": "not-a-uuid"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", body["code"])

	var count int64
	suite.db.Model(&models.Like{}).Count(&count)
	assert.EqualValues(suite.T(), 0, count)
}

func (suite *LikeTestSuite) TestUnlikeIsSymmetric() {
	token := identity.NewToken()

	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": token})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w, body := doJSON(suite.router, http.MethodDelete, "/api/v1/posts/hello-world/unlike", gin.H{"clientId": token})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), true, body["success"])
	assert.EqualValues(suite.T(), 0, body["likes"])

	// Nothing left to remove
	w, _ = doJSON(suite.router, http.MethodDelete, "/api/v1/posts/hello-world/unlike", gin.H{"clientId": token})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *LikeTestSuite) TestLikeUnknownPost() {
	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/no-such-post/like", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *LikeTestSuite) TestGetLikesCountsFromDatabase() {
	for i := 0; i < 3; i++ {
		token := identity.NewToken()
		w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": token})
		require.Equal(suite.T(), http.StatusCreated, w.Code)
	}

	w, body := doJSON(suite.router, http.MethodGet, "/api/v1/posts/hello-world/likes", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), suite.post.ID, body["postId"])
	assert.EqualValues(suite.T(), 3, body["likes"])
	// No Redis in tests, so reads always go to the database
	assert.Equal(suite.T(), false, body["cached"])
}

func (suite *LikeTestSuite) TestTokenAndAddressScopesAreIndependent() {
	// An anonymous like and a token like from the same address both stand
	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	token := identity.NewToken()
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/posts/hello-world/like", gin.H{"clientId": token})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.EqualValues(suite.T(), 2, body["likes"])
}

func TestLikeTestSuite(t *testing.T) {
	suite.Run(t, new(LikeTestSuite))
}
