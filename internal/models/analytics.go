package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Analytics event kinds accepted by the tracking endpoint
const (
	EventPageView   = "pageview"
	EventClick      = "click"
	EventScroll     = "scroll"
	EventTimeOnPage = "time_on_page"
	EventExit       = "exit"
	EventCustom     = "custom"
)

// ValidEventTypes is the closed set of accepted event kinds
var ValidEventTypes = map[string]bool{
	EventPageView:   true,
	EventClick:      true,
	EventScroll:     true,
	EventTimeOnPage: true,
	EventExit:       true,
	EventCustom:     true,
}

// JSONMap is a free-form metadata blob stored as JSON text.
// Implements Scanner and Valuer so it works under both the Postgres
// and sqlite drivers.
type JSONMap map[string]interface{}

// Scan implements the sql.Scanner interface for reading from database
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		*m = nil
		return nil
	}

	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Value implements the driver.Valuer interface for writing to database
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// AnalyticsEvent is one fire-and-forget behavioral event. Append-only:
// events are never updated or deleted by this API. An event referencing
// an unknown session is still stored for audit.
type AnalyticsEvent struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ActorUUID   string    `gorm:"not null;index:idx_events_actor_created" json:"uuid"`
	SessionID   string    `gorm:"not null;index" json:"session_id"`
	EventType   string    `gorm:"not null;index" json:"event_type"`
	PageURL     string    `json:"page_url,omitempty"`
	PageTitle   string    `json:"page_title,omitempty"`
	ElementID   string    `json:"element_id,omitempty"`
	ElementType string    `json:"element_type,omitempty"`
	ScrollDepth int       `json:"scroll_depth,omitempty"`
	Duration    int       `json:"duration,omitempty"` // seconds, for time_on_page
	Metadata    JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time `gorm:"index:idx_events_actor_created" json:"created_at"`
}

// TableName specifies the table name
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// BeforeCreate generates the ID when the database has no uuid default
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// UserSession aggregates one browsing session. Counters accumulate while
// the session is active; EndedAt plus the bounce flag are written exactly
// once by the session-end call, after which the row is immutable.
type UserSession struct {
	ID         string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SessionID  string     `gorm:"uniqueIndex;not null" json:"session_id"`
	ActorUUID  string     `gorm:"not null;index" json:"uuid"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	PageViews  int        `gorm:"default:0" json:"page_views"`
	Clicks     int        `gorm:"default:0" json:"clicks"`
	MaxScroll  int        `gorm:"default:0" json:"max_scroll_depth"`
	TotalTime  int        `gorm:"default:0" json:"total_time"` // seconds
	EntryPage  string     `json:"entry_page,omitempty"`
	ExitPage   string     `json:"exit_page,omitempty"`
	UserAgent  string     `gorm:"type:text" json:"-"`
	DeviceType string     `json:"device_type,omitempty"`
	Browser    string     `json:"browser,omitempty"`
	OS         string     `json:"os,omitempty"`
	Bounced    bool       `gorm:"default:false" json:"bounced"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (UserSession) TableName() string {
	return "user_sessions"
}

// BeforeCreate generates the ID when the database has no uuid default
func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Ended reports whether the session has been finalized
func (s *UserSession) Ended() bool {
	return s.EndedAt != nil
}
