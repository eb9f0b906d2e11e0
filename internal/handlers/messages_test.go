package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startConversationBetween(t *testing.T, a, b *models.User) string {
	r, h := setupRouter(a)
	r.POST("/conversations", h.StartConversation)

	w := doJSON(r, "POST", "/conversations", gin.H{"target_user_id": b.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Conversation models.Conversation `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Conversation.ID)
	return resp.Conversation.ID
}

func TestStartConversation_FindOrCreate(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")
	bob := createTestUser(t, "bob-1", "bob")

	first := startConversationBetween(t, alice, bob)

	// Starting again, from either side, returns the same thread
	assert.Equal(t, first, startConversationBetween(t, alice, bob))
	assert.Equal(t, first, startConversationBetween(t, bob, alice))

	var count int64
	database.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var participants int64
	database.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", first).
		Count(&participants)
	assert.Equal(t, int64(2), participants)
}

func TestStartConversation_SelfRejected(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")

	r, h := setupRouter(alice)
	r.POST("/conversations", h.StartConversation)

	w := doJSON(r, "POST", "/conversations", gin.H{"target_user_id": alice.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, "POST", "/conversations", gin.H{"target_user_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_LogsDMSend(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")
	bob := createTestUser(t, "bob-1", "bob")
	conversationID := startConversationBetween(t, alice, bob)

	r, h := setupRouter(alice)
	r.POST("/conversations/:id/messages", h.SendMessage)

	w := doForm(r, "POST", "/conversations/"+conversationID+"/messages", map[string]string{
		"content": "hey bob",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var msg models.Message
	require.NoError(t, database.DB.First(&msg, "sender_id = ?", alice.ID).Error)
	require.NotNil(t, msg.Content)
	assert.Equal(t, "hey bob", *msg.Content)

	// The DM_SEND log targets the other participant, not the conversation
	var log models.EngagementLog
	require.NoError(t, database.DB.First(&log, "actor_id = ? AND type = ?", alice.ID, models.EngagementDMSend).Error)
	require.NotNil(t, log.TargetUserID)
	assert.Equal(t, bob.ID, *log.TargetUserID)
}

func TestSendMessage_EmptyRejected(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")
	bob := createTestUser(t, "bob-1", "bob")
	conversationID := startConversationBetween(t, alice, bob)

	r, h := setupRouter(alice)
	r.POST("/conversations/:id/messages", h.SendMessage)

	w := doForm(r, "POST", "/conversations/"+conversationID+"/messages", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetMessages_ParticipantsOnly(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")
	bob := createTestUser(t, "bob-1", "bob")
	eve := createTestUser(t, "eve-1", "eve")
	conversationID := startConversationBetween(t, alice, bob)

	r, h := setupRouter(eve)
	r.GET("/conversations/:id/messages", h.GetMessages)

	w := doJSON(r, "GET", "/conversations/"+conversationID+"/messages", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEditMessage_SenderOnly(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")
	bob := createTestUser(t, "bob-1", "bob")
	conversationID := startConversationBetween(t, alice, bob)

	content := "original"
	msg := models.Message{ConversationID: conversationID, SenderID: alice.ID, Content: &content}
	require.NoError(t, database.DB.Create(&msg).Error)

	rBob, hBob := setupRouter(bob)
	rBob.PUT("/messages/:id", hBob.EditMessage)
	w := doJSON(rBob, "PUT", "/messages/"+msg.ID, gin.H{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	rAlice, hAlice := setupRouter(alice)
	rAlice.PUT("/messages/:id", hAlice.EditMessage)
	w = doJSON(rAlice, "PUT", "/messages/"+msg.ID, gin.H{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Message
	require.NoError(t, database.DB.First(&updated, "id = ?", msg.ID).Error)
	require.NotNil(t, updated.Content)
	assert.Equal(t, "edited", *updated.Content)
	assert.True(t, updated.IsEdited)
}

func TestLikeMessage_ParticipantsOnly(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice-1", "alice")
	bob := createTestUser(t, "bob-1", "bob")
	eve := createTestUser(t, "eve-1", "eve")
	conversationID := startConversationBetween(t, alice, bob)

	content := "like me"
	msg := models.Message{ConversationID: conversationID, SenderID: alice.ID, Content: &content}
	require.NoError(t, database.DB.Create(&msg).Error)

	rEve, hEve := setupRouter(eve)
	rEve.POST("/messages/:id/like", hEve.LikeMessage)
	w := doJSON(rEve, "POST", "/messages/"+msg.ID+"/like", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	rBob, hBob := setupRouter(bob)
	rBob.POST("/messages/:id/like", hBob.LikeMessage)
	rBob.DELETE("/messages/:id/like", hBob.UnlikeMessage)

	w = doJSON(rBob, "POST", "/messages/"+msg.ID+"/like", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	// Idempotent
	w = doJSON(rBob, "POST", "/messages/"+msg.ID+"/like", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var likes int64
	database.DB.Model(&models.MessageLike{}).Where("message_id = ?", msg.ID).Count(&likes)
	assert.Equal(t, int64(1), likes)

	w = doJSON(rBob, "DELETE", "/messages/"+msg.ID+"/like", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(rBob, "DELETE", "/messages/"+msg.ID+"/like", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
