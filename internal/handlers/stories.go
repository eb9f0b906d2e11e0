package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateStory uploads a 24-hour story for the caller. Stories are media-only,
// so unlike posts an upload failure is a hard error.
// POST /api/v1/stories
func (h *Handlers) CreateStory(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	file, err := c.FormFile("media")
	if err != nil {
		util.RespondValidationError(c, "media", "a story requires a media file")
		return
	}
	if !util.IsImageFile(file.Filename) && !util.IsVideoFile(file.Filename) {
		util.RespondValidationError(c, "media", "unsupported media type")
		return
	}
	if h.uploader == nil {
		util.RespondInternalError(c, "media storage is not configured")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.RespondBadRequest(c, "failed to read media file")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		util.RespondBadRequest(c, "failed to read media file")
		return
	}

	result, err := h.uploader.UploadMedia(c.Request.Context(), data, "stories", userID, file.Filename)
	if err != nil {
		util.RespondInternalError(c, "media upload failed")
		return
	}

	story := models.Story{
		AuthorID:  userID,
		MediaURL:  result.URL,
		MediaType: mediaTypeForFilename(file.Filename),
	}
	if err := database.DB.Create(&story).Error; err != nil {
		util.RespondInternalError(c, "failed to create story")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"story": story})
}

// GetStories returns unexpired stories from followed users and the caller,
// newest first. Expiry is enforced by the query, there is no sweeper.
// GET /api/v1/stories
func (h *Handlers) GetStories(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var followedIDs []string
	if err := database.DB.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &followedIDs).Error; err != nil {
		util.RespondInternalError(c, "failed to load stories")
		return
	}
	followedIDs = append(followedIDs, userID)

	var stories []models.Story
	err := database.DB.Preload("Author").
		Where("author_id IN ? AND expires_at > ?", followedIDs, time.Now()).
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load stories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// ViewStory records the caller's view on a story. A repeat view from the same
// user does not bump the counter.
// POST /api/v1/stories/:id/view
func (h *Handlers) ViewStory(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	storyID := c.Param("id")

	var story models.Story
	if err := database.DB.First(&story, "id = ? AND expires_at > ?", storyID, time.Now()).Error; err != nil {
		util.RespondNotFound(c, "story")
		return
	}

	var existing models.StoryView
	if err := database.DB.Where("story_id = ? AND viewer_id = ?", storyID, userID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"viewed": true})
		return
	}

	view := models.StoryView{StoryID: storyID, ViewerID: userID}
	if err := database.DB.Create(&view).Error; err != nil {
		// Concurrent duplicate hits the unique index; treat as viewed
		c.JSON(http.StatusOK, gin.H{"viewed": true})
		return
	}

	database.DB.Model(&models.Story{}).Where("id = ?", storyID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	c.JSON(http.StatusOK, gin.H{"viewed": true})
}

// GetStoryViews lists who viewed the caller's story
// GET /api/v1/stories/:id/views
func (h *Handlers) GetStoryViews(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	storyID := c.Param("id")

	var story models.Story
	if err := database.DB.First(&story, "id = ?", storyID).Error; err != nil {
		util.RespondNotFound(c, "story")
		return
	}
	if story.AuthorID != userID {
		util.RespondForbidden(c, "only the author can see story viewers")
		return
	}

	var views []models.StoryView
	err := database.DB.Preload("Viewer").
		Where("story_id = ?", storyID).
		Order("viewed_at DESC").
		Find(&views).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load story views")
		return
	}

	c.JSON(http.StatusOK, gin.H{"views": views, "view_count": story.ViewCount})
}
