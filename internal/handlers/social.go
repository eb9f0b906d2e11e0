package handlers

import (
	"net/http"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LikePost likes a post. Creation triggers the LIKE engagement log and
// notification fan-out; liking an already-liked post is a no-op.
// POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
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

	var existing models.Like
	if err := database.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"liked": true, "message": "post already liked"})
		return
	}

	like := models.Like{UserID: userID, PostID: postID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "failed to like post")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		logger.WarnWithFields("failed to increment like count for post "+postID, err)
	}

	h.engagement.LogLike(userID, postID)
	h.notifications.CreateBestEffort(post.AuthorID, userID, models.NotificationLike, &postID, nil)

	c.JSON(http.StatusOK, gin.H{"liked": true})
}

// UnlikePost removes a like. Unlike triggers neither logging nor fan-out.
// DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	result := database.DB.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unlike post")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "like")
		return
	}

	if err := database.DB.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("failed to decrement like count for post "+postID, err)
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// FollowUser creates a follow edge to :id. Creation triggers the FOLLOW
// engagement log and notification fan-out.
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == userID {
		util.RespondValidationError(c, "id", "cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var existing models.Follow
	if err := database.DB.Where("follower_id = ? AND following_id = ?", userID, targetID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"following": true, "message": "already following"})
		return
	}

	follow := models.Follow{FollowerID: userID, FollowingID: targetID}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "failed to follow user")
		return
	}

	database.DB.Model(&models.User{}).Where("id = ?", targetID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
	database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1"))

	h.engagement.LogFollow(userID, targetID)
	h.notifications.CreateBestEffort(targetID, userID, models.NotificationFollow, nil, nil)

	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowUser removes a follow edge. No logging or fan-out on unfollow.
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	result := database.DB.Where("follower_id = ? AND following_id = ?", userID, targetID).Delete(&models.Follow{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unfollow user")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "follow")
		return
	}

	database.DB.Model(&models.User{}).Where("id = ?", targetID).
		UpdateColumn("follower_count", gorm.Expr("GREATEST(follower_count - 1, 0)"))
	database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("GREATEST(following_count - 1, 0)"))

	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetFollowers lists the users following :id
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var follows []models.Follow
	err := database.DB.Preload("Follower").
		Where("following_id = ?", c.Param("id")).
		Order("created_at DESC").
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load followers")
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Follower)
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetFollowing lists the users :id follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var follows []models.Follow
	err := database.DB.Preload("Following").
		Where("follower_id = ?", c.Param("id")).
		Order("created_at DESC").
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load following")
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Following)
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
