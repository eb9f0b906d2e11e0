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

// StartConversation finds or creates the two-party conversation between the
// caller and the target user.
// POST /api/v1/conversations
func (h *Handlers) StartConversation(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetUserID string `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.TargetUserID == userID {
		util.RespondValidationError(c, "target_user_id", "cannot message yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", req.TargetUserID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	conversation, err := findOrCreateConversation(userID, req.TargetUserID)
	if err != nil {
		util.RespondInternalError(c, "failed to start conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

// GetConversations lists the caller's conversations ordered by last activity
// GET /api/v1/conversations
func (h *Handlers) GetConversations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var conversationIDs []string
	err := database.DB.Model(&models.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &conversationIDs).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversations")
		return
	}

	var conversations []models.Conversation
	err = database.DB.
		Preload("Participants").
		Preload("Participants.User").
		Where("id IN ?", conversationIDs).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the message history of a conversation the caller
// participates in, oldest first.
// GET /api/v1/conversations/:id/messages
func (h *Handlers) GetMessages(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")

	if !isParticipant(conversationID, userID) {
		util.RespondForbidden(c, "not a participant of this conversation")
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "50"), 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var messages []models.Message
	err := database.DB.Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage sends a message in a conversation. Media upload failure
// degrades to text-only; a message needs text or media. Sending records a
// DM_SEND engagement log targeting the other participant.
// POST /api/v1/conversations/:id/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")

	if !isParticipant(conversationID, userID) {
		util.RespondForbidden(c, "not a participant of this conversation")
		return
	}

	content := c.PostForm("content")

	var mediaURL *string
	var mediaType *models.MediaType

	file, err := c.FormFile("media")
	if err == nil && file != nil && h.uploader != nil {
		if src, openErr := file.Open(); openErr == nil {
			data, readErr := io.ReadAll(src)
			src.Close()
			if readErr == nil {
				if result, upErr := h.uploader.UploadMedia(c.Request.Context(), data, "messages", userID, file.Filename); upErr != nil {
					logger.WarnWithFields("message media upload failed, sending text-only", upErr)
				} else {
					mediaURL = &result.URL
					mt := mediaTypeForFilename(file.Filename)
					mediaType = &mt
				}
			}
		}
	}

	if content == "" && mediaURL == nil {
		util.RespondValidationError(c, "content", "message needs text or media")
		return
	}

	var contentPtr *string
	if content != "" {
		contentPtr = &content
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        contentPtr,
		MediaURL:       mediaURL,
		MediaType:      mediaType,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		util.RespondInternalError(c, "failed to send message")
		return
	}

	// Bump conversation activity for sidebar ordering
	if err := database.DB.Model(&models.Conversation{}).Where("id = ?", conversationID).
		UpdateColumn("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		logger.WarnWithFields("failed to bump conversation "+conversationID, err)
	}

	if otherID, err := otherParticipant(conversationID, userID); err == nil {
		h.engagement.LogDMSend(userID, otherID)
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// EditMessage updates the caller's own message content
// PUT /api/v1/messages/:id
func (h *Handlers) EditMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var message models.Message
	if err := database.DB.First(&message, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "message")
		return
	}
	if message.SenderID != userID {
		util.RespondForbidden(c, "only the sender can edit a message")
		return
	}

	message.Content = &req.Content
	message.IsEdited = true
	if err := database.DB.Save(&message).Error; err != nil {
		util.RespondInternalError(c, "failed to edit message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// DeleteMessage deletes the caller's own message
// DELETE /api/v1/messages/:id
func (h *Handlers) DeleteMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var message models.Message
	if err := database.DB.First(&message, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "message")
		return
	}
	if message.SenderID != userID {
		util.RespondForbidden(c, "only the sender can delete a message")
		return
	}

	if err := database.DB.Delete(&message).Error; err != nil {
		util.RespondInternalError(c, "failed to delete message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// LikeMessage hearts a message in a conversation the caller participates in
// POST /api/v1/messages/:id/like
func (h *Handlers) LikeMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	messageID := c.Param("id")

	var message models.Message
	if err := database.DB.First(&message, "id = ?", messageID).Error; err != nil {
		util.RespondNotFound(c, "message")
		return
	}
	if !isParticipant(message.ConversationID, userID) {
		util.RespondForbidden(c, "not a participant of this conversation")
		return
	}

	var existing models.MessageLike
	if err := database.DB.Where("user_id = ? AND message_id = ?", userID, messageID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"liked": true})
		return
	}

	like := models.MessageLike{UserID: userID, MessageID: messageID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "failed to like message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": true})
}

// UnlikeMessage removes a heart from a message
// DELETE /api/v1/messages/:id/like
func (h *Handlers) UnlikeMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("user_id = ? AND message_id = ?", userID, c.Param("id")).Delete(&models.MessageLike{})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to unlike message")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "like")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// findOrCreateConversation returns the existing two-party conversation
// between a and b, creating it (with both memberships) if absent.
func findOrCreateConversation(a, b string) (*models.Conversation, error) {
	var conversationID string
	err := database.DB.Raw(`
		SELECT p1.conversation_id FROM conversation_participants p1
		JOIN conversation_participants p2 ON p1.conversation_id = p2.conversation_id
		WHERE p1.user_id = ? AND p2.user_id = ?
		LIMIT 1
	`, a, b).Scan(&conversationID).Error
	if err != nil {
		return nil, err
	}

	if conversationID != "" {
		var conversation models.Conversation
		err = database.DB.
			Preload("Participants").
			Preload("Participants.User").
			First(&conversation, "id = ?", conversationID).Error
		return &conversation, err
	}

	conversation := models.Conversation{}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conversation).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: conversation.ID, UserID: a},
			{ConversationID: conversation.ID, UserID: b},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}

	err = database.DB.
		Preload("Participants").
		Preload("Participants.User").
		First(&conversation, "id = ?", conversation.ID).Error
	return &conversation, err
}

func isParticipant(conversationID, userID string) bool {
	var count int64
	database.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count)
	return count > 0
}

// otherParticipant returns the other member of a two-party conversation
func otherParticipant(conversationID, userID string) (string, error) {
	var otherID string
	err := database.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id != ?", conversationID, userID).
		Limit(1).
		Pluck("user_id", &otherID).Error
	if err != nil {
		return "", err
	}
	if otherID == "" {
		return "", gorm.ErrRecordNotFound
	}
	return otherID, nil
}
