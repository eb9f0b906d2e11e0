// Package affinity implements mutual-follow affinity scoring and the
// one-shot, rate-limited ping flow built on top of it.
package affinity

import (
	"fmt"

	"github.com/corclo/backend/internal/models"
	"gorm.io/gorm"
)

// Score is the affinity between a viewer and a candidate, derived from how
// many of the candidate's followed accounts the viewer also follows.
type Score struct {
	Score           float64 `json:"score"`
	MutualFollowers int     `json:"mutual_followers"`
}

// CalculateScore computes the affinity score for viewer looking at candidate.
// It is a pure function of the current follow graph; nothing is cached.
// Callers filter out viewer == candidate before scoring.
func CalculateScore(db *gorm.DB, viewerID, candidateID string) (*Score, error) {
	var candidateFollows []string
	err := db.Model(&models.Follow{}).
		Where("follower_id = ?", candidateID).
		Pluck("following_id", &candidateFollows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate follows: %w", err)
	}

	var mutualFollows int64
	if len(candidateFollows) > 0 {
		err = db.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id IN ?", viewerID, candidateFollows).
			Count(&mutualFollows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count mutual follows: %w", err)
		}
	}

	return &Score{
		Score:           scoreForMutualCount(int(mutualFollows)),
		MutualFollowers: int(mutualFollows),
	}, nil
}

// scoreForMutualCount maps a mutual-follow count to a bounded score.
// Zero mutuals is a neutral baseline, not negative signal.
func scoreForMutualCount(mutualFollows int) float64 {
	switch {
	case mutualFollows > 2:
		return 0.8
	case mutualFollows > 0:
		return 0.65
	default:
		return 0.5
	}
}
