package handlers

import (
	"net/http"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// BookmarkPost saves a post to the caller's reading list
// POST /api/v1/posts/:id/bookmark
func (h *Handlers) BookmarkPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var existing models.Bookmark
	if err := database.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"bookmarked": true, "message": "post already bookmarked"})
		return
	}

	bookmark := models.Bookmark{UserID: userID, PostID: postID}
	if err := database.DB.Create(&bookmark).Error; err != nil {
		util.RespondInternalError(c, "failed to bookmark post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarked": true})
}

// UnbookmarkPost removes a post from the caller's reading list
// DELETE /api/v1/posts/:id/bookmark
func (h *Handlers) UnbookmarkPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	result := database.DB.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Bookmark{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to remove bookmark")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "bookmark")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarked": false})
}

// GetBookmarks lists the caller's bookmarked posts newest-first
// GET /api/v1/bookmarks
func (h *Handlers) GetBookmarks(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var bookmarks []models.Bookmark
	err := database.DB.
		Preload("Post").
		Preload("Post.Author").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load bookmarks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks})
}
