package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/engagement"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetAttentionMetrics returns the caller's transparency dashboard: their
// recent view history and how much of what they saw they interacted with.
// GET /api/v1/dashboard/attention
func (h *Handlers) GetAttentionMetrics(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	attention, err := engagement.ComputeAttentionMetrics(database.DB, userID)
	if err != nil {
		util.RespondInternalError(c, "failed to compute attention metrics")
		return
	}

	c.JSON(http.StatusOK, attention)
}

// dataExport is everything we hold about a user, in one JSON document
type dataExport struct {
	ExportedAt     time.Time              `json:"exported_at"`
	User           models.User            `json:"user"`
	Posts          []models.Post          `json:"posts"`
	Comments       []models.Comment       `json:"comments"`
	Likes          []models.Like          `json:"likes"`
	Bookmarks      []models.Bookmark      `json:"bookmarks"`
	Following      []models.Follow        `json:"following"`
	Followers      []models.Follow        `json:"followers"`
	Stories        []models.Story         `json:"stories"`
	Messages       []models.Message       `json:"messages"`
	EngagementLogs []models.EngagementLog `json:"engagement_logs"`
	PingsSent      []models.AffinityPing  `json:"pings_sent"`
	PingsReceived  []models.AffinityPing  `json:"pings_received"`
	Notifications  []models.Notification  `json:"notifications"`
}

// ExportData streams a full JSON export of the caller's account data as a
// download. Read-only; the account is untouched.
// GET /api/v1/dashboard/export
func (h *Handlers) ExportData(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	export := dataExport{ExportedAt: time.Now().UTC(), User: *user}

	db := database.DB
	userID := user.ID

	if err := db.Where("author_id = ?", userID).Order("created_at DESC").Find(&export.Posts).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&export.Comments).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("user_id = ?", userID).Find(&export.Likes).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("user_id = ?", userID).Find(&export.Bookmarks).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("follower_id = ?", userID).Find(&export.Following).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("following_id = ?", userID).Find(&export.Followers).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("author_id = ?", userID).Order("created_at DESC").Find(&export.Stories).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("sender_id = ?", userID).Order("created_at DESC").Find(&export.Messages).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("actor_id = ?", userID).Order("created_at DESC").Find(&export.EngagementLogs).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("sender_id = ?", userID).Find(&export.PingsSent).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("receiver_id = ?", userID).Find(&export.PingsReceived).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}
	if err := db.Where("recipient_id = ?", userID).Order("created_at DESC").Find(&export.Notifications).Error; err != nil {
		util.RespondInternalError(c, "export failed")
		return
	}

	filename := fmt.Sprintf("corclo-export-%s-%s.json", user.Username, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.JSON(http.StatusOK, export)
}
