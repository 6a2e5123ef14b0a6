package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blogpulse/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound is returned when finalizing an unknown session
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded guards the no-mutation-after-end rule
	ErrSessionEnded = errors.New("session already ended")
)

// bounceMaxSeconds: a session with at most one page view shorter than
// this is a bounce
const bounceMaxSeconds = 30

// SessionEnd carries the client-reported aggregates of the end beacon.
// Observed counters from ingested events win when they are larger.
type SessionEnd struct {
	PageViews int
	Clicks    int
	MaxScroll int
	TotalTime int // seconds
	ExitPage  string
}

// DashboardReport is the aggregate view over a trailing window
type DashboardReport struct {
	Days              int              `json:"days"`
	TotalEvents       int64            `json:"total_events"`
	EventsByType      map[string]int64 `json:"events_by_type"`
	TopPages          []PageViews      `json:"top_pages"`
	TotalSessions     int64            `json:"total_sessions"`
	BouncedSessions   int64            `json:"bounced_sessions"`
	BounceRate        float64          `json:"bounce_rate"`
	AvgSessionSeconds float64          `json:"avg_session_seconds"`
}

// PageViews is a page with its view count
type PageViews struct {
	PageURL string `json:"page_url"`
	Views   int64  `json:"views"`
}

// AnalyticsRepository handles event and session persistence
type AnalyticsRepository interface {
	InsertEvent(ctx context.Context, event *models.AnalyticsEvent) error
	StartSession(ctx context.Context, session *models.UserSession) (*models.UserSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.UserSession, error)
	ApplyEvent(ctx context.Context, event *models.AnalyticsEvent) error
	FinalizeSession(ctx context.Context, sessionID string, end SessionEnd) (*models.UserSession, error)
	Dashboard(ctx context.Context, days int) (*DashboardReport, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// InsertEvent appends one event. Events never update and never create
// sessions implicitly: an event for an unknown session is still stored
// for audit.
func (r *analyticsRepository) InsertEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// StartSession creates the session row, deriving device context from
// the user agent. A repeat start for a live session refreshes the entry
// context instead of erroring; a start for an ended session is rejected.
func (r *analyticsRepository) StartSession(ctx context.Context, session *models.UserSession) (*models.UserSession, error) {
	session.DeviceType, session.Browser, session.OS = parseUserAgent(session.UserAgent)
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		existing, getErr := r.GetSession(ctx, session.SessionID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Ended() {
			return nil, ErrSessionEnded
		}

		updates := map[string]interface{}{
			"entry_page":  session.EntryPage,
			"user_agent":  session.UserAgent,
			"device_type": session.DeviceType,
			"browser":     session.Browser,
			"os":          session.OS,
		}
		if err := r.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	return session, nil
}

// GetSession looks up a session by its external id
func (r *analyticsRepository) GetSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ApplyEvent bumps the live counters of the event's session. Unknown or
// ended sessions are left alone - the event itself was already stored.
func (r *analyticsRepository) ApplyEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	session, err := r.GetSession(ctx, event.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if session.Ended() {
		return nil
	}

	updates := map[string]interface{}{}
	switch event.EventType {
	case models.EventPageView:
		updates["page_views"] = gorm.Expr("page_views + 1")
	case models.EventClick:
		updates["clicks"] = gorm.Expr("clicks + 1")
	case models.EventScroll:
		if event.ScrollDepth > session.MaxScroll {
			updates["max_scroll"] = event.ScrollDepth
		}
	case models.EventTimeOnPage:
		if event.Duration > 0 {
			updates["total_time"] = gorm.Expr("total_time + ?", event.Duration)
		}
	}

	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(session).Updates(updates).Error
}

// FinalizeSession ends a session exactly once: it records aggregates
// (max of reported vs. observed), the exit page and the bounce flag.
// A second end call is a conflict, not an overwrite.
func (r *analyticsRepository) FinalizeSession(ctx context.Context, sessionID string, end SessionEnd) (*models.UserSession, error) {
	session, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return nil, ErrSessionEnded
	}

	now := time.Now().UTC()
	pageViews := maxInt(session.PageViews, end.PageViews)
	clicks := maxInt(session.Clicks, end.Clicks)
	maxScroll := maxInt(session.MaxScroll, end.MaxScroll)
	totalTime := maxInt(session.TotalTime, end.TotalTime)
	bounced := pageViews <= 1 && totalTime < bounceMaxSeconds

	updates := map[string]interface{}{
		"ended_at":   now,
		"page_views": pageViews,
		"clicks":     clicks,
		"max_scroll": maxScroll,
		"total_time": totalTime,
		"bounced":    bounced,
	}
	if end.ExitPage != "" {
		updates["exit_page"] = end.ExitPage
	}

	if err := r.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		return nil, err
	}

	session.EndedAt = &now
	session.PageViews = pageViews
	session.Clicks = clicks
	session.MaxScroll = maxScroll
	session.TotalTime = totalTime
	session.Bounced = bounced
	if end.ExitPage != "" {
		session.ExitPage = end.ExitPage
	}

	return session, nil
}

// Dashboard aggregates events and sessions over the trailing window
func (r *analyticsRepository) Dashboard(ctx context.Context, days int) (*DashboardReport, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	report := &DashboardReport{
		Days:         days,
		EventsByType: make(map[string]int64),
	}

	err := r.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Where("created_at >= ?", since).
		Count(&report.TotalEvents).Error
	if err != nil {
		return nil, err
	}

	type typeCount struct {
		EventType string
		Count     int64
	}
	var types []typeCount
	err = r.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("event_type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&types).Error
	if err != nil {
		return nil, err
	}
	for _, tc := range types {
		report.EventsByType[tc.EventType] = tc.Count
	}

	err = r.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("page_url, COUNT(*) AS views").
		Where("created_at >= ? AND event_type = ? AND page_url <> ''", since, models.EventPageView).
		Group("page_url").
		Order("views DESC").
		Limit(10).
		Scan(&report.TopPages).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("started_at >= ?", since).
		Count(&report.TotalSessions).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("started_at >= ? AND bounced = ?", since, true).
		Count(&report.BouncedSessions).Error
	if err != nil {
		return nil, err
	}

	if report.TotalSessions > 0 {
		report.BounceRate = float64(report.BouncedSessions) / float64(report.TotalSessions)
	}

	var avg struct{ Avg float64 }
	err = r.db.WithContext(ctx).Model(&models.UserSession{}).
		Select("COALESCE(AVG(total_time), 0) AS avg").
		Where("started_at >= ? AND ended_at IS NOT NULL", since).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	report.AvgSessionSeconds = avg.Avg

	return report, nil
}

// parseUserAgent derives coarse device context from a user agent
// string. Heuristic on purpose: this feeds dashboards, not decisions.
func parseUserAgent(ua string) (device, browser, os string) {
	lowered := strings.ToLower(ua)

	device = "desktop"
	switch {
	case strings.Contains(lowered, "ipad") || strings.Contains(lowered, "tablet"):
		device = "tablet"
	case strings.Contains(lowered, "mobile") || strings.Contains(lowered, "iphone") || strings.Contains(lowered, "android"):
		device = "mobile"
	}

	switch {
	case strings.Contains(lowered, "edg/"):
		browser = "edge"
	case strings.Contains(lowered, "opr/") || strings.Contains(lowered, "opera"):
		browser = "opera"
	case strings.Contains(lowered, "chrome"):
		browser = "chrome"
	case strings.Contains(lowered, "safari"):
		browser = "safari"
	case strings.Contains(lowered, "firefox"):
		browser = "firefox"
	default:
		browser = "other"
	}

	switch {
	case strings.Contains(lowered, "windows"):
		os = "windows"
	case strings.Contains(lowered, "android"):
		os = "android"
	case strings.Contains(lowered, "iphone") || strings.Contains(lowered, "ipad") || strings.Contains(lowered, "ios"):
		os = "ios"
	case strings.Contains(lowered, "mac os") || strings.Contains(lowered, "macintosh"):
		os = "macos"
	case strings.Contains(lowered, "linux"):
		os = "linux"
	default:
		os = "other"
	}

	return device, browser, os
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
