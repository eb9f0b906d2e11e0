package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetUser returns a user's public profile by ID
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUserByUsername returns a user's public profile by username
// GET /api/v1/users/by-username/:username
func (h *Handlers) GetUserByUsername(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", c.Param("username")).First(&user).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile updates the caller's display name, bio, and avatar. Avatar
// upload failure keeps the old avatar rather than failing the whole update.
// PUT /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if displayName, exists := c.GetPostForm("display_name"); exists {
		displayName = strings.TrimSpace(displayName)
		if displayName == "" {
			util.RespondValidationError(c, "display_name", "display name cannot be empty")
			return
		}
		if len(displayName) > 100 {
			util.RespondValidationError(c, "display_name", "display name too long")
			return
		}
		user.DisplayName = displayName
	}

	if bio, exists := c.GetPostForm("bio"); exists {
		if len(bio) > 500 {
			util.RespondValidationError(c, "bio", "bio too long")
			return
		}
		user.Bio = bio
	}

	if file, err := c.FormFile("avatar"); err == nil && file != nil && h.uploader != nil {
		if !util.IsImageFile(file.Filename) {
			util.RespondValidationError(c, "avatar", "avatar must be an image")
			return
		}
		if src, openErr := file.Open(); openErr == nil {
			data, readErr := io.ReadAll(src)
			src.Close()
			if readErr == nil {
				if result, upErr := h.uploader.UploadMedia(c.Request.Context(), data, "avatars", user.ID, file.Filename); upErr != nil {
					logger.WarnWithFields("avatar upload failed, keeping current avatar", upErr)
				} else {
					user.AvatarURL = result.URL
				}
			}
		}
	}

	if err := database.DB.Save(user).Error; err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SearchUsers matches username and display name, case-insensitive substring
// GET /api/v1/users/search?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit > 50 {
		limit = 50
	}

	pattern := "%" + query + "%"
	var users []models.User
	err := database.DB.
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(display_name) LIKE LOWER(?)", pattern, pattern).
		Order("follower_count DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
