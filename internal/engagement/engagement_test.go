package engagement

import (
	"fmt"
	"testing"

	"github.com/corclo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// Create tables manually with SQLite-compatible syntax
	// (GORM AutoMigrate tries to use PostgreSQL-specific features like gen_random_uuid)
	err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL,
			bio TEXT,
			password_hash TEXT,
			avatar_url TEXT,
			follower_count INTEGER DEFAULT 0,
			following_count INTEGER DEFAULT 0,
			post_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL,
			content TEXT,
			media_url TEXT,
			media_type TEXT,
			like_count INTEGER DEFAULT 0,
			comment_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE engagement_logs (
			id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			type TEXT NOT NULL,
			target_post_id TEXT,
			target_user_id TEXT,
			created_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, id, username string) *models.User {
	user := &models.User{
		ID:          id,
		Username:    username,
		DisplayName: username + " Display",
		Email:       username + "@test.com",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, id, authorID string) *models.Post {
	post := &models.Post{ID: id, AuthorID: authorID, Content: "post " + id}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestWriter_Log(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "user-1", "user")
	post := createTestPost(t, db, "post-1", user.ID)

	writer := NewWriter(db)
	writer.LogView(user.ID, post.ID)
	writer.LogLike(user.ID, post.ID)

	var logs []models.EngagementLog
	require.NoError(t, db.Order("created_at ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, models.EngagementView, logs[0].Type)
	require.NotNil(t, logs[0].TargetPostID)
	assert.Equal(t, post.ID, *logs[0].TargetPostID)
	assert.Equal(t, models.EngagementLike, logs[1].Type)
}

func TestWriter_LogUserTarget(t *testing.T) {
	db := setupTestDB(t)
	actor := createTestUser(t, db, "actor-1", "actor")
	target := createTestUser(t, db, "target-1", "target")

	writer := NewWriter(db)
	writer.LogFollow(actor.ID, target.ID)
	writer.LogDMSend(actor.ID, target.ID)
	writer.LogPingSend(actor.ID, target.ID)

	var logs []models.EngagementLog
	require.NoError(t, db.Where("actor_id = ?", actor.ID).Find(&logs).Error)
	require.Len(t, logs, 3)
	for _, log := range logs {
		require.NotNil(t, log.TargetUserID)
		assert.Equal(t, target.ID, *log.TargetUserID)
		assert.Nil(t, log.TargetPostID)
	}
}

func TestWriter_SwallowsFailures(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "user-1", "user")

	// Break the log table; the write must fail silently, not panic or error
	require.NoError(t, db.Exec("DROP TABLE engagement_logs").Error)

	writer := NewWriter(db)
	assert.NotPanics(t, func() {
		writer.LogView(user.ID, "post-1")
	})
}

func TestComputeAttentionMetrics_Empty(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "user-1", "user")

	attention, err := ComputeAttentionMetrics(db, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, attention.TotalViews)
	assert.Equal(t, 0, attention.UniquePostsViewed)
	assert.Equal(t, int64(0), attention.InteractionLogs)
	// No views means ratio 0, not NaN
	assert.Equal(t, 0.0, attention.AttentionRatio)
}

func TestComputeAttentionMetrics_Basic(t *testing.T) {
	db := setupTestDB(t)
	viewer := createTestUser(t, db, "viewer-1", "viewer")
	author := createTestUser(t, db, "author-1", "author")

	writer := NewWriter(db)
	for i := 0; i < 4; i++ {
		post := createTestPost(t, db, fmt.Sprintf("post-%d", i), author.ID)
		writer.LogView(viewer.ID, post.ID)
	}
	// Repeat view of an existing post: counted in total, not in unique
	writer.LogView(viewer.ID, "post-0")
	writer.LogLike(viewer.ID, "post-0")
	writer.LogComment(viewer.ID, "post-1")

	attention, err := ComputeAttentionMetrics(db, viewer.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, attention.TotalViews)
	assert.Equal(t, 4, attention.UniquePostsViewed)
	assert.Equal(t, int64(2), attention.InteractionLogs)
	assert.InDelta(t, 50.0, attention.AttentionRatio, 0.001)
}

func TestComputeAttentionMetrics_WindowCapsViews(t *testing.T) {
	db := setupTestDB(t)
	viewer := createTestUser(t, db, "viewer-1", "viewer")
	author := createTestUser(t, db, "author-1", "author")

	writer := NewWriter(db)
	for i := 0; i < feedLogWindow+20; i++ {
		post := createTestPost(t, db, fmt.Sprintf("post-%d", i), author.ID)
		writer.LogView(viewer.ID, post.ID)
	}

	attention, err := ComputeAttentionMetrics(db, viewer.ID)
	require.NoError(t, err)

	assert.Equal(t, feedLogWindow, attention.TotalViews)
	assert.Equal(t, feedLogWindow, attention.UniquePostsViewed)
}

func TestComputeAttentionMetrics_RatioCanExceedHundred(t *testing.T) {
	db := setupTestDB(t)
	viewer := createTestUser(t, db, "viewer-1", "viewer")
	author := createTestUser(t, db, "author-1", "author")

	writer := NewWriter(db)
	post := createTestPost(t, db, "post-1", author.ID)
	writer.LogView(viewer.ID, post.ID)

	// Interactions count over the whole history while views are windowed, so
	// the ratio is deliberately unbounded
	for i := 0; i < 3; i++ {
		writer.LogLike(viewer.ID, post.ID)
	}

	attention, err := ComputeAttentionMetrics(db, viewer.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, attention.UniquePostsViewed)
	assert.Equal(t, int64(3), attention.InteractionLogs)
	assert.InDelta(t, 300.0, attention.AttentionRatio, 0.001)
}

func TestComputeAttentionMetrics_OnlyOwnLogs(t *testing.T) {
	db := setupTestDB(t)
	viewer := createTestUser(t, db, "viewer-1", "viewer")
	other := createTestUser(t, db, "other-1", "other")
	author := createTestUser(t, db, "author-1", "author")
	post := createTestPost(t, db, "post-1", author.ID)

	writer := NewWriter(db)
	writer.LogView(other.ID, post.ID)
	writer.LogLike(other.ID, post.ID)

	attention, err := ComputeAttentionMetrics(db, viewer.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, attention.TotalViews)
	assert.Equal(t, int64(0), attention.InteractionLogs)
}
