package affinity

import (
	"fmt"
	"strings"
	"time"

	apierrors "github.com/corclo/backend/internal/errors"
	"github.com/corclo/backend/internal/metrics"
	"github.com/corclo/backend/internal/models"
	"gorm.io/gorm"
)

// DailyPingLimit is the maximum number of pings a sender may create per
// calendar day (server-local time).
const DailyPingLimit = 3

// EngagementLogger is the slice of the engagement writer the ping flow needs
type EngagementLogger interface {
	LogPingSend(actorID, targetUserID string)
}

// PingResult is the outcome of a ping attempt. Validation rejections are
// encoded here rather than returned as errors so callers can render the
// message directly.
type PingResult struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Ping    *models.AffinityPing `json:"ping,omitempty"`
}

// Service runs the ping rate limiter and dedup guard
type Service struct {
	db         *gorm.DB
	engagement EngagementLogger
	now        func() time.Time
}

// NewService creates a ping service
func NewService(db *gorm.DB, engagementLogger EngagementLogger) *Service {
	return &Service{
		db:         db,
		engagement: engagementLogger,
		now:        time.Now,
	}
}

// SendPing attempts to create a ping from sender to target. Preconditions are
// checked in order and the first failure wins, with no side effects:
// self-ping, daily quota, then pair dedup. On success the ping is inserted
// with the computed affinity score and a PING_SEND engagement log is written.
//
// The pair existence check is only there to produce a friendly message; the
// unique index on (sender_id, receiver_id) is the actual race-breaker, and a
// unique violation on insert maps to the same rejection.
func (s *Service) SendPing(senderID, targetUserID string) (*PingResult, error) {
	if senderID == targetUserID {
		metrics.AffinityPingsTotal.WithLabelValues("rejected_self").Inc()
		return &PingResult{Success: false, Message: "cannot ping self"}, nil
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var sentToday int64
	err := s.db.Model(&models.AffinityPing{}).
		Where("sender_id = ? AND created_at >= ?", senderID, midnight).
		Count(&sentToday).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count today's pings: %w", err)
	}
	if sentToday >= DailyPingLimit {
		metrics.AffinityPingsTotal.WithLabelValues("rejected_quota").Inc()
		return &PingResult{
			Success: false,
			Message: fmt.Sprintf("daily ping limit of %d reached, try again tomorrow", DailyPingLimit),
		}, nil
	}

	// Directional: an existing ping from target to sender does not block this
	var existing models.AffinityPing
	err = s.db.Where("sender_id = ? AND receiver_id = ?", senderID, targetUserID).First(&existing).Error
	if err == nil {
		metrics.AffinityPingsTotal.WithLabelValues("rejected_duplicate").Inc()
		return &PingResult{Success: false, Message: "ping already sent to this user"}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check existing ping: %w", err)
	}

	score, err := CalculateScore(s.db, senderID, targetUserID)
	if err != nil {
		return nil, err
	}

	ping := models.AffinityPing{
		SenderID:   senderID,
		ReceiverID: targetUserID,
		Status:     models.PingPending,
		Score:      score.Score,
	}
	if err := s.db.Create(&ping).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the check-then-insert race; same outcome as the pre-check
			metrics.AffinityPingsTotal.WithLabelValues("rejected_duplicate").Inc()
			return &PingResult{Success: false, Message: "ping already sent to this user"}, nil
		}
		return nil, fmt.Errorf("failed to create ping: %w", err)
	}

	s.engagement.LogPingSend(senderID, targetUserID)
	metrics.AffinityPingsTotal.WithLabelValues("sent").Inc()

	return &PingResult{Success: true, Message: "ping sent", Ping: &ping}, nil
}

// AcceptPing transitions a ping to ACCEPTED. Only the receiver may accept;
// anyone else gets a hard authorization error. Accepting an already accepted
// ping is a no-op since ACCEPTED is terminal.
func (s *Service) AcceptPing(pingID, callerID string) (*models.AffinityPing, error) {
	var ping models.AffinityPing
	if err := s.db.First(&ping, "id = ?", pingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apierrors.NotFound("ping")
		}
		return nil, fmt.Errorf("failed to load ping: %w", err)
	}

	if ping.ReceiverID != callerID {
		return nil, apierrors.Forbidden("only the ping receiver can accept it")
	}

	if ping.Status == models.PingAccepted {
		return &ping, nil
	}

	ping.Status = models.PingAccepted
	if err := s.db.Model(&ping).Update("status", models.PingAccepted).Error; err != nil {
		return nil, fmt.Errorf("failed to accept ping: %w", err)
	}

	return &ping, nil
}

// ListPings returns the pings sent by and received by userID
func (s *Service) ListPings(userID string) (sent []models.AffinityPing, received []models.AffinityPing, err error) {
	err = s.db.Preload("Receiver").
		Where("sender_id = ?", userID).
		Order("created_at DESC").
		Find(&sent).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sent pings: %w", err)
	}

	err = s.db.Preload("Sender").
		Where("receiver_id = ?", userID).
		Order("created_at DESC").
		Find(&received).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load received pings: %w", err)
	}

	return sent, received, nil
}

// isUniqueViolation reports whether err is a unique constraint violation on
// any supported driver
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
