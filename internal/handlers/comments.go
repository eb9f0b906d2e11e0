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

// CreateComment creates a comment on a post. The post author gets a COMMENT
// notification; when replying, the parent comment's author additionally gets
// a REPLY notification if they differ from the post author.
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required,min=1,max=2000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	// If replying, verify the parent exists and belongs to the same post
	var parentComment *models.Comment
	if req.ParentID != nil && *req.ParentID != "" {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ? AND post_id = ?", *req.ParentID, postID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "parent comment not found")
			return
		}
		parentComment = &parent
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   userID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("failed to increment comment count for post "+postID, err)
	}

	h.engagement.LogComment(userID, postID)

	// Fan-out: COMMENT to the post author, REPLY to the parent author when distinct
	h.notifications.CreateBestEffort(post.AuthorID, userID, models.NotificationComment, &postID, &comment.ID)
	if parentComment != nil && parentComment.UserID != post.AuthorID {
		h.notifications.CreateBestEffort(parentComment.UserID, userID, models.NotificationReply, &postID, &comment.ID)
	}

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("failed to load comment with user for post "+postID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments retrieves comments for a post with pagination
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if limit > 100 {
		limit = 100
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var comments []models.Comment
	err := database.DB.
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(comments),
		},
	})
}
