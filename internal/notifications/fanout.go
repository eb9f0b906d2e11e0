// Package notifications implements synchronous notification fan-out with
// unread dedup for like/follow notices.
package notifications

import (
	"fmt"

	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/metrics"
	"github.com/corclo/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service creates and reads notifications
type Service struct {
	db *gorm.DB
}

// NewService creates a notification service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create records a notification for recipientID about an action by senderID.
// Self-notifications are never created. LIKE and FOLLOW are idempotent while
// an identical notice is still unread, so like/unlike/like and
// follow/unfollow/follow churn does not spam the recipient. COMMENT and REPLY
// always insert: each comment is distinct content.
func (s *Service) Create(recipientID, senderID string, typ models.NotificationType, postID, commentID *string) error {
	if recipientID == senderID {
		return nil
	}

	if typ == models.NotificationLike || typ == models.NotificationFollow {
		query := s.db.Model(&models.Notification{}).
			Where("recipient_id = ? AND sender_id = ? AND type = ? AND read = ?", recipientID, senderID, typ, false)
		if postID != nil {
			query = query.Where("post_id = ?", *postID)
		} else {
			query = query.Where("post_id IS NULL")
		}

		var unread int64
		if err := query.Count(&unread).Error; err != nil {
			return fmt.Errorf("failed to check for unread notification: %w", err)
		}
		if unread > 0 {
			metrics.NotificationsSuppressedTotal.WithLabelValues(string(typ)).Inc()
			return nil
		}
	}

	notification := models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        typ,
		PostID:      postID,
		CommentID:   commentID,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	metrics.NotificationsCreatedTotal.WithLabelValues(string(typ)).Inc()
	return nil
}

// CreateBestEffort is Create with soft failure: the triggering action must
// not fail because its notification did, so errors are logged and swallowed.
func (s *Service) CreateBestEffort(recipientID, senderID string, typ models.NotificationType, postID, commentID *string) {
	if err := s.Create(recipientID, senderID, typ, postID, commentID); err != nil {
		logger.Warn("notification fan-out failed",
			zap.String("recipient_id", recipientID),
			zap.String("sender_id", senderID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

// List returns the recipient's notifications newest-first
func (s *Service) List(recipientID string, limit, offset int) ([]models.Notification, error) {
	var notifs []models.Notification
	err := s.db.Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return notifs, nil
}

// UnreadCount returns the number of unread notifications for badge display
func (s *Service) UnreadCount(recipientID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead flips every unread notification for the recipient to read.
// Idempotent: repeated calls leave the same rows read.
func (s *Service) MarkAllRead(recipientID string) error {
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
