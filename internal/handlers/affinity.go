package handlers

import (
	"net/http"
	"sort"

	"github.com/corclo/backend/internal/affinity"
	"github.com/corclo/backend/internal/database"
	apierrors "github.com/corclo/backend/internal/errors"
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// UserSuggestion is a candidate user annotated with the viewer's affinity
type UserSuggestion struct {
	User            models.User `json:"user"`
	Score           float64     `json:"score"`
	MutualFollowers int         `json:"mutual_followers"`
}

// GetSuggestions returns users the caller does not follow yet, scored by
// affinity and ordered best-first.
// GET /api/v1/affinity/suggestions
func (h *Handlers) GetSuggestions(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit > 50 {
		limit = 50
	}

	var followedIDs []string
	if err := database.DB.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &followedIDs).Error; err != nil {
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}
	excluded := append(followedIDs, userID)

	var candidates []models.User
	if err := database.DB.Where("id NOT IN ?", excluded).
		Order("follower_count DESC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}

	suggestions := make([]UserSuggestion, 0, len(candidates))
	for _, candidate := range candidates {
		score, err := affinity.CalculateScore(database.DB, userID, candidate.ID)
		if err != nil {
			logger.WarnWithFields("failed to score suggestion candidate "+candidate.ID, err)
			continue
		}
		suggestions = append(suggestions, UserSuggestion{
			User:            candidate,
			Score:           score.Score,
			MutualFollowers: score.MutualFollowers,
		})
	}

	// Best affinity first, ties broken by the follower-count prefetch order
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// SendPing sends an affinity ping to another user. Quota and duplicate
// rejections come back as a 200 with success=false so the client can show
// the message inline.
// POST /api/v1/affinity/pings
func (h *Handlers) SendPing(c *gin.Context) {
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

	var target models.User
	if err := database.DB.First(&target, "id = ?", req.TargetUserID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	result, err := h.affinity.SendPing(userID, req.TargetUserID)
	if err != nil {
		logger.ErrorWithFields("ping send failed", err)
		util.RespondInternalError(c, "failed to send ping")
		return
	}

	c.JSON(http.StatusOK, result)
}

// AcceptPing accepts a ping addressed to the caller
// POST /api/v1/affinity/pings/:id/accept
func (h *Handlers) AcceptPing(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ping, err := h.affinity.AcceptPing(c.Param("id"), userID)
	if err != nil {
		if apiErr, ok := err.(*apierrors.APIError); ok {
			util.RespondWithAPIError(c, apiErr)
			return
		}
		logger.ErrorWithFields("ping accept failed", err)
		util.RespondInternalError(c, "failed to accept ping")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ping": ping})
}

// GetPings lists the caller's sent and received pings
// GET /api/v1/affinity/pings
func (h *Handlers) GetPings(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	sent, received, err := h.affinity.ListPings(userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load pings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent, "received": received})
}
