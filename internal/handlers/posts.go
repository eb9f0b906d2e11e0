package handlers

import (
	"io"
	"net/http"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreatePost creates a new post with optional image/video media.
// A failed media upload degrades the post to text-only rather than failing
// the whole action.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	content := c.PostForm("content")

	var mediaURL *string
	var mediaType *models.MediaType

	file, err := c.FormFile("media")
	if err == nil && file != nil && h.uploader != nil {
		src, openErr := file.Open()
		if openErr != nil {
			logger.WarnWithFields("failed to open uploaded media", openErr)
		} else {
			data, readErr := io.ReadAll(src)
			src.Close()
			if readErr != nil {
				logger.WarnWithFields("failed to read uploaded media", readErr)
			} else if result, upErr := h.uploader.UploadMedia(c.Request.Context(), data, "posts", userID, file.Filename); upErr != nil {
				// Degrade to text-only
				logger.WarnWithFields("media upload failed, posting text-only", upErr)
			} else {
				mediaURL = &result.URL
				mt := mediaTypeForFilename(file.Filename)
				mediaType = &mt
			}
		}
	}

	if content == "" && mediaURL == nil {
		util.RespondValidationError(c, "content", "post needs text or media")
		return
	}

	post := models.Post{
		AuthorID:  userID,
		Content:   content,
		MediaURL:  mediaURL,
		MediaType: mediaType,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "failed to create post")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
		logger.WarnWithFields("failed to increment post count for user "+userID, err)
	}

	if err := database.DB.Preload("Author").First(&post, "id = ?", post.ID).Error; err != nil {
		logger.WarnWithFields("failed to reload post "+post.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetFeed returns the chronological feed: posts by followed users plus the
// user's own, newest first. Each returned post is recorded as a VIEW
// engagement log (best-effort).
// GET /api/v1/feed
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if limit > 100 {
		limit = 100
	}

	var followingIDs []string
	if err := database.DB.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &followingIDs).Error; err != nil {
		util.RespondInternalError(c, "failed to load follow graph")
		return
	}
	authorIDs := append(followingIDs, userID)

	var posts []models.Post
	err := database.DB.Preload("Author").
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	// Transparency log: every post served to the feed is a recorded view
	for _, post := range posts {
		h.engagement.LogView(userID, post.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(posts),
		},
	})
}

// GetPost returns a single post
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.Preload("Author").First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	h.engagement.LogView(userID, post.ID)

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost deletes the caller's own post
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if post.AuthorID != userID {
		util.RespondForbidden(c, "only the author can delete a post")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("post_count", gorm.Expr("GREATEST(post_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("failed to decrement post count for user "+userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetUserPosts returns a user's posts newest-first
// GET /api/v1/users/:id/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var posts []models.Post
	err := database.DB.Preload("Author").
		Where("author_id = ?", c.Param("id")).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func mediaTypeForFilename(filename string) models.MediaType {
	if util.IsVideoFile(filename) {
		return models.MediaTypeVideo
	}
	return models.MediaTypeImage
}
