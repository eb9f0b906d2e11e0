package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/corclo/backend/internal/affinity"
	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/engagement"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/notifications"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB wires an in-memory SQLite database into the global database.DB
// used by the handlers
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// Create tables manually with SQLite-compatible syntax
	// (GORM AutoMigrate tries to use PostgreSQL-specific features like gen_random_uuid)
	statements := []string{
		`CREATE TABLE users (
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
		)`,
		`CREATE TABLE posts (
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
		)`,
		`CREATE TABLE comments (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			parent_id TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE likes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			post_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE follows (
			id TEXT PRIMARY KEY,
			follower_id TEXT NOT NULL,
			following_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE bookmarks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			post_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE engagement_logs (
			id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			type TEXT NOT NULL,
			target_post_id TEXT,
			target_user_id TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE notifications (
			id TEXT PRIMARY KEY,
			recipient_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			type TEXT NOT NULL,
			post_id TEXT,
			comment_id TEXT,
			read INTEGER DEFAULT 0,
			created_at DATETIME
		)`,
		`CREATE TABLE affinity_pings (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			status TEXT NOT NULL,
			score REAL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX idx_affinity_pings_pair ON affinity_pings (sender_id, receiver_id)`,
		`CREATE TABLE stories (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL,
			media_url TEXT NOT NULL,
			media_type TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			view_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE story_views (
			id TEXT PRIMARY KEY,
			story_id TEXT NOT NULL,
			viewer_id TEXT NOT NULL,
			viewed_at DATETIME NOT NULL
		)`,
		`CREATE TABLE conversations (
			id TEXT PRIMARY KEY,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE conversation_participants (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			content TEXT,
			media_url TEXT,
			media_type TEXT,
			is_edited INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE message_likes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	database.DB = db
	return db
}

// setupRouter builds a router with the handler under test mounted behind a
// stub auth middleware that injects the given user
func setupRouter(user *models.User) (*gin.Engine, *Handlers) {
	gin.SetMode(gin.TestMode)

	h := NewHandlers(
		engagement.NewWriter(database.DB),
		affinity.NewService(database.DB, engagement.NewWriter(database.DB)),
		notifications.NewService(database.DB),
	)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	})
	return r, h
}

func createTestUser(t *testing.T, id, username string) *models.User {
	user := &models.User{
		ID:          id,
		Username:    username,
		DisplayName: username + " Display",
		Email:       username + "@test.com",
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, id, authorID string) *models.Post {
	post := &models.Post{ID: id, AuthorID: authorID, Content: "post " + id}
	require.NoError(t, database.DB.Create(post).Error)
	return post
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(r *gin.Engine, method, path string, fields map[string]string) *httptest.ResponseRecorder {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLikePost_FanOut(t *testing.T) {
	setupTestDB(t)
	liker := createTestUser(t, "liker-1", "liker")
	author := createTestUser(t, "author-1", "author")
	post := createTestPost(t, "post-1", author.ID)

	r, h := setupRouter(liker)
	r.POST("/posts/:id/like", h.LikePost)

	w := doJSON(r, "POST", "/posts/"+post.ID+"/like", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Counter, engagement log and notification all land
	var updated models.Post
	require.NoError(t, database.DB.First(&updated, "id = ?", post.ID).Error)
	assert.Equal(t, 1, updated.LikeCount)

	var logCount int64
	database.DB.Model(&models.EngagementLog{}).
		Where("actor_id = ? AND type = ?", liker.ID, models.EngagementLike).
		Count(&logCount)
	assert.Equal(t, int64(1), logCount)

	var notifCount int64
	database.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", author.ID, models.NotificationLike).
		Count(&notifCount)
	assert.Equal(t, int64(1), notifCount)

	// Second like is a no-op, nothing double-counts
	w = doJSON(r, "POST", "/posts/"+post.ID+"/like", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&updated, "id = ?", post.ID).Error)
	assert.Equal(t, 1, updated.LikeCount)
}

func TestUnlikePost_NoLogNoNotification(t *testing.T) {
	setupTestDB(t)
	liker := createTestUser(t, "liker-1", "liker")
	author := createTestUser(t, "author-1", "author")
	post := createTestPost(t, "post-1", author.ID)

	r, h := setupRouter(liker)
	r.POST("/posts/:id/like", h.LikePost)
	r.DELETE("/posts/:id/like", h.UnlikePost)

	doJSON(r, "POST", "/posts/"+post.ID+"/like", nil)
	w := doJSON(r, "DELETE", "/posts/"+post.ID+"/like", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var likeCount int64
	database.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeCount)
	assert.Equal(t, int64(0), likeCount)

	// Unlike leaves no engagement log of its own; the like log stays
	var logCount int64
	database.DB.Model(&models.EngagementLog{}).Where("actor_id = ?", liker.ID).Count(&logCount)
	assert.Equal(t, int64(1), logCount)

	// Unliking again is a 404
	w = doJSON(r, "DELETE", "/posts/"+post.ID+"/like", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowUser_SelfRejected(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user-1", "user")

	r, h := setupRouter(user)
	r.POST("/users/:id/follow", h.FollowUser)

	w := doJSON(r, "POST", "/users/"+user.ID+"/follow", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var followCount int64
	database.DB.Model(&models.Follow{}).Count(&followCount)
	assert.Equal(t, int64(0), followCount)
}

func TestGetFeed_LogsViews(t *testing.T) {
	setupTestDB(t)
	viewer := createTestUser(t, "viewer-1", "viewer")
	author := createTestUser(t, "author-1", "author")
	require.NoError(t, database.DB.Create(&models.Follow{
		ID: "follow-1", FollowerID: viewer.ID, FollowingID: author.ID,
	}).Error)

	for i := 0; i < 3; i++ {
		createTestPost(t, fmt.Sprintf("post-%d", i), author.ID)
	}
	// Not followed, must not appear or be logged
	stranger := createTestUser(t, "stranger-1", "stranger")
	createTestPost(t, "stranger-post", stranger.ID)

	r, h := setupRouter(viewer)
	r.GET("/feed", h.GetFeed)

	w := doJSON(r, "GET", "/feed", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts []models.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Posts, 3)

	// Every served post gets a VIEW log for the viewer
	var logCount int64
	database.DB.Model(&models.EngagementLog{}).
		Where("actor_id = ? AND type = ?", viewer.ID, models.EngagementView).
		Count(&logCount)
	assert.Equal(t, int64(3), logCount)
}

func TestCreateComment_ReplyFanOut(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author-1", "author")
	commenter := createTestUser(t, "commenter-1", "commenter")
	replier := createTestUser(t, "replier-1", "replier")
	post := createTestPost(t, "post-1", author.ID)

	// Top-level comment notifies the post author
	r, h := setupRouter(commenter)
	r.POST("/posts/:id/comments", h.CreateComment)
	w := doJSON(r, "POST", "/posts/"+post.ID+"/comments", gin.H{"content": "nice post"})
	require.Equal(t, http.StatusCreated, w.Code)

	var comment models.Comment
	require.NoError(t, database.DB.First(&comment, "user_id = ?", commenter.ID).Error)

	// Reply notifies the post author and the parent comment's author
	r2, h2 := setupRouter(replier)
	r2.POST("/posts/:id/comments", h2.CreateComment)
	w = doJSON(r2, "POST", "/posts/"+post.ID+"/comments", gin.H{
		"content":   "agreed",
		"parent_id": comment.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var commentNotifs, replyNotifs int64
	database.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", author.ID, models.NotificationComment).
		Count(&commentNotifs)
	database.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", commenter.ID, models.NotificationReply).
		Count(&replyNotifs)
	assert.Equal(t, int64(2), commentNotifs)
	assert.Equal(t, int64(1), replyNotifs)
}

func TestSendPing_EndToEnd(t *testing.T) {
	setupTestDB(t)
	sender := createTestUser(t, "sender-1", "sender")
	receiver := createTestUser(t, "receiver-1", "receiver")

	r, h := setupRouter(sender)
	r.POST("/affinity/pings", h.SendPing)

	w := doJSON(r, "POST", "/affinity/pings", gin.H{"target_user_id": receiver.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp affinity.PingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Ping)
	assert.Equal(t, models.PingPending, resp.Ping.Status)

	// Duplicate comes back as a result, not an HTTP error
	w = doJSON(r, "POST", "/affinity/pings", gin.H{"target_user_id": receiver.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)

	// Missing target is a hard 404
	w = doJSON(r, "POST", "/affinity/pings", gin.H{"target_user_id": "missing-user"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAcceptPing_OnlyReceiver(t *testing.T) {
	setupTestDB(t)
	sender := createTestUser(t, "sender-1", "sender")
	receiver := createTestUser(t, "receiver-1", "receiver")

	rSender, hSender := setupRouter(sender)
	rSender.POST("/affinity/pings", hSender.SendPing)
	rSender.POST("/affinity/pings/:id/accept", hSender.AcceptPing)

	w := doJSON(rSender, "POST", "/affinity/pings", gin.H{"target_user_id": receiver.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var resp affinity.PingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Ping)

	// The sender cannot accept their own ping
	w = doJSON(rSender, "POST", "/affinity/pings/"+resp.Ping.ID+"/accept", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	rReceiver, hReceiver := setupRouter(receiver)
	rReceiver.POST("/affinity/pings/:id/accept", hReceiver.AcceptPing)
	w = doJSON(rReceiver, "POST", "/affinity/pings/"+resp.Ping.ID+"/accept", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var ping models.AffinityPing
	require.NoError(t, database.DB.First(&ping, "id = ?", resp.Ping.ID).Error)
	assert.Equal(t, models.PingAccepted, ping.Status)

	// Unknown ping is a 404
	w = doJSON(rReceiver, "POST", "/affinity/pings/missing/accept", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAttentionMetrics_Endpoint(t *testing.T) {
	setupTestDB(t)
	viewer := createTestUser(t, "viewer-1", "viewer")
	author := createTestUser(t, "author-1", "author")
	post := createTestPost(t, "post-1", author.ID)

	writer := engagement.NewWriter(database.DB)
	writer.LogView(viewer.ID, post.ID)
	writer.LogLike(viewer.ID, post.ID)

	r, h := setupRouter(viewer)
	r.GET("/dashboard/attention", h.GetAttentionMetrics)

	w := doJSON(r, "GET", "/dashboard/attention", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp engagement.AttentionMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalViews)
	assert.Equal(t, 1, resp.UniquePostsViewed)
	assert.Equal(t, int64(1), resp.InteractionLogs)
	assert.InDelta(t, 100.0, resp.AttentionRatio, 0.001)
}

func TestExportData_ScopedToCaller(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "user-1", "user")
	other := createTestUser(t, "other-1", "other")
	createTestPost(t, "mine", user.ID)
	createTestPost(t, "theirs", other.ID)

	r, h := setupRouter(user)
	r.GET("/dashboard/export", h.ExportData)

	w := doJSON(r, "GET", "/dashboard/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	var resp struct {
		User  models.User   `json:"user"`
		Posts []models.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.User.ID)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "mine", resp.Posts[0].ID)
}
