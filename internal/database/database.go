package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/corclo/backend/internal/models"
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
		dbname := getEnvOrDefault("DB_NAME", "corclo")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// Configure GORM logger
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
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

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

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
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.Bookmark{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.MessageLike{},
		&models.Story{},
		&models.StoryView{},
		&models.EngagementLog{},
		&models.AffinityPing{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance and integrity indexes. The unique pair
// indexes are load-bearing: they are the actual race-breakers behind the
// application-level existence checks.
func createIndexes() error {
	// User lookups
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Post feed queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC)")

	// Comments
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id) WHERE parent_id IS NOT NULL")

	// One like per (user, post)
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_unique ON likes (user_id, post_id)")

	// One follow edge per ordered pair
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_follows_unique ON follows (follower_id, following_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_follows_following ON follows (following_id)")

	// One bookmark per (user, post)
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_bookmarks_unique ON bookmarks (user_id, post_id)")

	// Conversations and messages
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_participants_unique ON conversation_participants (conversation_id, user_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at)")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_message_likes_unique ON message_likes (user_id, message_id)")

	// Stories
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_stories_author_expires ON stories (author_id, expires_at DESC)")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_story_views_unique ON story_views (story_id, viewer_id)")

	// Engagement logs: append-only, read newest-first per actor
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_engagement_logs_actor_created ON engagement_logs (actor_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_engagement_logs_actor_type ON engagement_logs (actor_id, type)")

	// At most one affinity ping per ordered (sender, receiver) pair
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_affinity_pings_pair ON affinity_pings (sender_id, receiver_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_affinity_pings_sender_created ON affinity_pings (sender_id, created_at)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_affinity_pings_receiver ON affinity_pings (receiver_id)")

	// Notifications: unread dedup lookups and list views
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications (recipient_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_dedup ON notifications (recipient_id, sender_id, type, post_id) WHERE read = false")

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
