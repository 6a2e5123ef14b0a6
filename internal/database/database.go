package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/blogpulse/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "blogpulse")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// Configure GORM logger
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// TranslateError makes unique-constraint violations surface as
	// gorm.ErrDuplicatedKey regardless of driver. The like/subscription
	// dedup paths depend on that signal.
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	instrument(db)
	go reportPoolStats(sqlDB)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.NewsletterSubscription{},
		&models.Feedback{},
		&models.AnalyticsEvent{},
		&models.UserSession{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := CreateIndexes(DB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// CreateIndexes creates the performance and uniqueness indexes. The two
// partial unique indexes on likes are the source of truth for dedup:
// the handler pre-check is UX only and loses races, these never do.
// Exported so test setups can apply the same constraints to their DB.
func CreateIndexes(db *gorm.DB) error {
	statements := []string{
		// Like dedup: one like per (post, token); one per (post, address hash,
		// UTC day) when no token was supplied.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_post_client ON likes (post_id, client_id) WHERE client_id IS NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_post_ip_day ON likes (post_id, ip_hash, like_day) WHERE client_id IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_likes_post_created ON likes (post_id, created_at DESC)",

		// Comment retrieval and duplicate-content lookups
		"CREATE INDEX IF NOT EXISTS idx_comments_post_status ON comments (post_id, status, created_at DESC)",

		// Analytics queries group by type and page over trailing windows
		"CREATE INDEX IF NOT EXISTS idx_events_type_created ON analytics_events (event_type, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_events_page_created ON analytics_events (page_url, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_started ON user_sessions (started_at DESC)",

		// Feedback browsing
		"CREATE INDEX IF NOT EXISTS idx_feedback_actor_created ON feedback (actor_uuid, created_at DESC)",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
