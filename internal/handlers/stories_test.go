package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStory(t *testing.T, id, authorID string, expiresAt time.Time) *models.Story {
	story := &models.Story{
		ID:        id,
		AuthorID:  authorID,
		MediaURL:  "https://cdn.test/stories/" + id + ".jpg",
		MediaType: models.MediaTypeImage,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, database.DB.Create(story).Error)
	return story
}

func TestGetStories_FollowedAndUnexpiredOnly(t *testing.T) {
	setupTestDB(t)
	viewer := createTestUser(t, "viewer-1", "viewer")
	followed := createTestUser(t, "followed-1", "followed")
	stranger := createTestUser(t, "stranger-1", "stranger")
	require.NoError(t, database.DB.Create(&models.Follow{
		ID: "follow-1", FollowerID: viewer.ID, FollowingID: followed.ID,
	}).Error)

	live := createTestStory(t, "live", followed.ID, time.Now().Add(12*time.Hour))
	createTestStory(t, "expired", followed.ID, time.Now().Add(-time.Hour))
	createTestStory(t, "stranger-story", stranger.ID, time.Now().Add(12*time.Hour))
	own := createTestStory(t, "own", viewer.ID, time.Now().Add(12*time.Hour))

	r, h := setupRouter(viewer)
	r.GET("/stories", h.GetStories)

	w := doJSON(r, "GET", "/stories", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stories []models.Story `json:"stories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Stories, 2)

	ids := []string{resp.Stories[0].ID, resp.Stories[1].ID}
	assert.Contains(t, ids, live.ID)
	assert.Contains(t, ids, own.ID)
}

func TestViewStory_CountsUniqueViewers(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author-1", "author")
	viewer := createTestUser(t, "viewer-1", "viewer")
	story := createTestStory(t, "story-1", author.ID, time.Now().Add(12*time.Hour))

	r, h := setupRouter(viewer)
	r.POST("/stories/:id/view", h.ViewStory)

	w := doJSON(r, "POST", "/stories/"+story.ID+"/view", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	// Repeat view is a no-op
	w = doJSON(r, "POST", "/stories/"+story.ID+"/view", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Story
	require.NoError(t, database.DB.First(&updated, "id = ?", story.ID).Error)
	assert.Equal(t, 1, updated.ViewCount)
}

func TestViewStory_ExpiredIsGone(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author-1", "author")
	viewer := createTestUser(t, "viewer-1", "viewer")
	story := createTestStory(t, "story-1", author.ID, time.Now().Add(-time.Minute))

	r, h := setupRouter(viewer)
	r.POST("/stories/:id/view", h.ViewStory)

	w := doJSON(r, "POST", "/stories/"+story.ID+"/view", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStoryViews_AuthorOnly(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author-1", "author")
	viewer := createTestUser(t, "viewer-1", "viewer")
	story := createTestStory(t, "story-1", author.ID, time.Now().Add(12*time.Hour))

	rViewer, hViewer := setupRouter(viewer)
	rViewer.POST("/stories/:id/view", hViewer.ViewStory)
	rViewer.GET("/stories/:id/views", hViewer.GetStoryViews)

	doJSON(rViewer, "POST", "/stories/"+story.ID+"/view", nil)

	// Non-authors cannot see the viewer list
	w := doJSON(rViewer, "GET", "/stories/"+story.ID+"/views", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	rAuthor, hAuthor := setupRouter(author)
	rAuthor.GET("/stories/:id/views", hAuthor.GetStoryViews)
	w = doJSON(rAuthor, "GET", "/stories/"+story.ID+"/views", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Views     []models.StoryView `json:"views"`
		ViewCount int                `json:"view_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Views, 1)
	assert.Equal(t, viewer.ID, resp.Views[0].ViewerID)
	assert.Equal(t, 1, resp.ViewCount)
}

func TestCreateStory_RequiresMedia(t *testing.T) {
	setupTestDB(t)
	author := createTestUser(t, "author-1", "author")

	r, h := setupRouter(author)
	r.POST("/stories", h.CreateStory)

	// No media file at all
	w := doForm(r, "POST", "/stories", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
