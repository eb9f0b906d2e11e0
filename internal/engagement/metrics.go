package engagement

import (
	"fmt"

	"github.com/corclo/backend/internal/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// feedLogWindow is the number of recent VIEW logs shown on the dashboard.
// TotalViews is capped at this window size; it is not a lifetime count.
const feedLogWindow = 100

// AttentionMetrics is the transparency dashboard payload.
//
// InteractionLogs counts LIKE/COMMENT logs over the user's whole history
// while UniquePostsViewed only looks at the last-100 view window, so
// AttentionRatio is not bounded to [0,100%]. That asymmetry is the shipped
// product behavior; do not narrow either window without product sign-off.
type AttentionMetrics struct {
	FeedLogs          []models.EngagementLog `json:"feed_logs"`
	TotalViews        int                    `json:"total_views"`
	UniquePostsViewed int                    `json:"unique_posts_viewed"`
	InteractionLogs   int64                  `json:"interaction_logs"`
	AttentionRatio    float64                `json:"attention_ratio"`
}

// ComputeAttentionMetrics derives the dashboard metrics for userID from the
// engagement log. Pure read-side computation; recomputed on every call.
func ComputeAttentionMetrics(db *gorm.DB, userID string) (*AttentionMetrics, error) {
	var feedLogs []models.EngagementLog
	err := db.
		Preload("TargetPost").
		Preload("TargetPost.Author").
		Where("actor_id = ? AND type = ?", userID, models.EngagementView).
		Order("created_at DESC").
		Limit(feedLogWindow).
		Find(&feedLogs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load view logs: %w", err)
	}

	postIDs := lo.FilterMap(feedLogs, func(log models.EngagementLog, _ int) (string, bool) {
		if log.TargetPostID == nil {
			return "", false
		}
		return *log.TargetPostID, true
	})
	uniquePostsViewed := len(lo.Uniq(postIDs))

	var interactionLogs int64
	err = db.Model(&models.EngagementLog{}).
		Where("actor_id = ? AND type IN ?", userID, []models.EngagementType{models.EngagementLike, models.EngagementComment}).
		Count(&interactionLogs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count interaction logs: %w", err)
	}

	// Division-by-zero guard: no views means ratio 0 regardless of interactions
	attentionRatio := 0.0
	if uniquePostsViewed > 0 {
		attentionRatio = float64(interactionLogs) / float64(uniquePostsViewed) * 100
	}

	return &AttentionMetrics{
		FeedLogs:          feedLogs,
		TotalViews:        len(feedLogs),
		UniquePostsViewed: uniquePostsViewed,
		InteractionLogs:   interactionLogs,
		AttentionRatio:    attentionRatio,
	}, nil
}
