package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blogpulse/backend/internal/identity"
	"github.com/blogpulse/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type AnalyticsTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
}

func (suite *AnalyticsTestSuite) SetupSuite() {
	suite.db = newTestDB(suite.T(), "analytics_test")
	suite.handlers = NewHandlers(suite.db, nil, "test-salt")

	suite.router = gin.New()
	a := suite.router.Group("/api/v1/analytics")
	a.POST("/track", suite.handlers.TrackEvent)
	a.POST("/session", suite.handlers.StartSession)
	a.POST("/session/end", suite.handlers.EndSession)
	a.GET("/dashboard", suite.handlers.GetDashboard)
}

func (suite *AnalyticsTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM analytics_events")
	suite.db.Exec("DELETE FROM user_sessions")
}

func (suite *AnalyticsTestSuite) startSession(sessionID string) string {
	actor := identity.NewToken()
	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session", gin.H{
		"uuid":       actor,
		"session_id": sessionID,
		"entry_page": "/posts/hello",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	return actor
}

func (suite *AnalyticsTestSuite) trackEvent(actor, sessionID, eventType string, extra gin.H) {
	payload := gin.H{
		"uuid":       actor,
		"session_id": sessionID,
		"event_type": eventType,
	}
	for k, v := range extra {
		payload[k] = v
	}
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/track", payload)
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	require.Equal(suite.T(), true, body["success"])
	require.NotEmpty(suite.T(), body["eventId"])
}

func (suite *AnalyticsTestSuite) TestSessionBounceRule() {
	cases := []struct {
		name      string
		pageViews int
		totalTime int
		bounced   bool
	}{
		{"single short view bounces", 1, 10, true},
		{"two views never bounce", 2, 10, false},
		{"long single view does not bounce", 1, 45, false},
		{"zero activity bounces", 0, 0, true},
	}

	for i, tc := range cases {
		suite.Run(tc.name, func() {
			sessionID := fmt.Sprintf("bounce-%d", i)
			suite.startSession(sessionID)

			w, body := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session/end", gin.H{
				"session_id": sessionID,
				"page_views": tc.pageViews,
				"total_time": tc.totalTime,
			})
			require.Equal(suite.T(), http.StatusOK, w.Code)
			assert.Equal(suite.T(), tc.bounced, body["bounced"])
		})
	}
}

func (suite *AnalyticsTestSuite) TestEventsAccumulateOnLiveSession() {
	actor := suite.startSession("active-1")

	suite.trackEvent(actor, "active-1", models.EventPageView, nil)
	suite.trackEvent(actor, "active-1", models.EventPageView, nil)
	suite.trackEvent(actor, "active-1", models.EventClick, nil)
	suite.trackEvent(actor, "active-1", models.EventScroll, gin.H{"scroll_depth": 80})
	suite.trackEvent(actor, "active-1", models.EventTimeOnPage, gin.H{"duration": 40})

	var session models.UserSession
	require.NoError(suite.T(), suite.db.Where("session_id = ?", "active-1").First(&session).Error)
	assert.Equal(suite.T(), 2, session.PageViews)
	assert.Equal(suite.T(), 1, session.Clicks)
	assert.Equal(suite.T(), 80, session.MaxScroll)
	assert.Equal(suite.T(), 40, session.TotalTime)

	// Reported aggregates below the observed ones do not shrink them
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session/end", gin.H{
		"session_id": "active-1",
		"page_views": 1,
		"total_time": 5,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.EqualValues(suite.T(), 2, body["page_views"])
	assert.EqualValues(suite.T(), 40, body["total_time"])
	assert.Equal(suite.T(), false, body["bounced"])
}

func (suite *AnalyticsTestSuite) TestEventForUnknownSessionStillStored() {
	actor := identity.NewToken()
	suite.trackEvent(actor, "never-started", models.EventPageView, nil)

	var count int64
	suite.db.Model(&models.AnalyticsEvent{}).Where("session_id = ?", "never-started").Count(&count)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *AnalyticsTestSuite) TestEndUnknownSession() {
	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session/end", gin.H{
		"session_id": "ghost",
	})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", body["code"])
}

func (suite *AnalyticsTestSuite) TestDoubleEndConflicts() {
	suite.startSession("once-only")

	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session/end", gin.H{
		"session_id": "once-only",
		"page_views": 3,
		"total_time": 120,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w, body := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session/end", gin.H{
		"session_id": "once-only",
		"page_views": 99,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "CONFLICT", body["code"])

	// The first finalization stands
	var session models.UserSession
	require.NoError(suite.T(), suite.db.Where("session_id = ?", "once-only").First(&session).Error)
	assert.Equal(suite.T(), 3, session.PageViews)
}

func (suite *AnalyticsTestSuite) TestEventValidation() {
	actor := identity.NewToken()

	cases := []gin.H{
		{"uuid": "bad", "session_id": "s", "event_type": models.EventPageView},
		{"uuid": actor, "session_id": "", "event_type": models.EventPageView},
		{"uuid": actor, "session_id": "s", "event_type": "teleport"},
		{"uuid": actor, "session_id": "s", "event_type": models.EventScroll, "scroll_depth": 140},
		{"uuid": actor, "session_id": "s", "event_type": models.EventTimeOnPage, "duration": -5},
	}

	for i, payload := range cases {
		w, body := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/track", payload)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "case %d should be rejected", i)
		assert.Equal(suite.T(), "VALIDATION_ERROR", body["code"])
	}
}

func (suite *AnalyticsTestSuite) TestSessionDeviceContextFromUserAgent() {
	actor := identity.NewToken()
	payload, _ := json.Marshal(gin.H{
		"uuid":       actor,
		"session_id": "ua-test",
		"entry_page": "/",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/session", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari/604.1")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var session models.UserSession
	require.NoError(suite.T(), suite.db.Where("session_id = ?", "ua-test").First(&session).Error)
	assert.Equal(suite.T(), "mobile", session.DeviceType)
	assert.Equal(suite.T(), "safari", session.Browser)
	assert.Equal(suite.T(), "ios", session.OS)
}

func (suite *AnalyticsTestSuite) TestDashboardAggregates() {
	actor := suite.startSession("dash-1")
	suite.trackEvent(actor, "dash-1", models.EventPageView, gin.H{"page_url": "/posts/a"})
	suite.trackEvent(actor, "dash-1", models.EventPageView, gin.H{"page_url": "/posts/a"})
	suite.trackEvent(actor, "dash-1", models.EventClick, gin.H{"page_url": "/posts/a"})

	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/analytics/session/end", gin.H{
		"session_id": "dash-1",
		"total_time": 5,
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w, body := doJSON(suite.router, http.MethodGet, "/api/v1/analytics/dashboard?days=7", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.EqualValues(suite.T(), 3, body["total_events"])
	assert.EqualValues(suite.T(), 1, body["total_sessions"])

	byType, ok := body["events_by_type"].(map[string]interface{})
	require.True(suite.T(), ok)
	assert.EqualValues(suite.T(), 2, byType[models.EventPageView])

	topPages, ok := body["top_pages"].([]interface{})
	require.True(suite.T(), ok)
	require.Len(suite.T(), topPages, 1)
}

func (suite *AnalyticsTestSuite) TestDashboardRejectsBadWindow() {
	for _, days := range []string{"0", "366", "-3"} {
		w, _ := doJSON(suite.router, http.MethodGet, "/api/v1/analytics/dashboard?days="+days, nil)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	}
}

func TestAnalyticsTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsTestSuite))
}
