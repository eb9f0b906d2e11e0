// Package engagement implements the append-only engagement log and the
// attention metrics derived from it for the transparency dashboard.
package engagement

import (
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/metrics"
	"github.com/corclo/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Writer appends engagement log rows. Writes are best-effort: a failed
// analytics write must never block the user action that triggered it, so
// errors are logged and swallowed.
type Writer struct {
	db *gorm.DB
}

// NewWriter creates an engagement log writer
func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

// Log appends one engagement record for actorID. targetPostID and
// targetUserID are optional. Callers get no failure signal.
func (w *Writer) Log(actorID string, typ models.EngagementType, targetPostID, targetUserID *string) {
	entry := models.EngagementLog{
		ActorID:      actorID,
		Type:         typ,
		TargetPostID: targetPostID,
		TargetUserID: targetUserID,
	}

	if err := w.db.Create(&entry).Error; err != nil {
		metrics.EngagementLogFailuresTotal.WithLabelValues(string(typ)).Inc()
		logger.Warn("engagement log write failed",
			zap.String("actor_id", actorID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return
	}

	metrics.EngagementLogsTotal.WithLabelValues(string(typ)).Inc()
}

// LogView records a VIEW of a post
func (w *Writer) LogView(actorID, postID string) {
	w.Log(actorID, models.EngagementView, &postID, nil)
}

// LogLike records a LIKE of a post
func (w *Writer) LogLike(actorID, postID string) {
	w.Log(actorID, models.EngagementLike, &postID, nil)
}

// LogComment records a COMMENT on a post
func (w *Writer) LogComment(actorID, postID string) {
	w.Log(actorID, models.EngagementComment, &postID, nil)
}

// LogFollow records a FOLLOW of a user
func (w *Writer) LogFollow(actorID, targetUserID string) {
	w.Log(actorID, models.EngagementFollow, nil, &targetUserID)
}

// LogDMSend records a direct message send to a user
func (w *Writer) LogDMSend(actorID, targetUserID string) {
	w.Log(actorID, models.EngagementDMSend, nil, &targetUserID)
}

// LogPingSend records an affinity ping send to a user
func (w *Writer) LogPingSend(actorID, targetUserID string) {
	w.Log(actorID, models.EngagementPingSend, nil, &targetUserID)
}
