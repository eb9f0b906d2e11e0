package models

import (
	"time"

	"gorm.io/gorm"
)

// Story is a short-lived media post. Expiry is enforced at query time
// (expires_at > now), not by a background sweeper.
type Story struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	MediaURL  string    `gorm:"not null" json:"media_url"`
	MediaType MediaType `gorm:"type:varchar(10);not null" json:"media_type"`

	// created_at + 24 hours
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	ViewCount int `gorm:"default:0" json:"view_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// StoryView tracks who viewed a story. One view per (story, viewer) pair.
type StoryView struct {
	ID       string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	StoryID  string    `gorm:"not null;index" json:"story_id"`
	Story    Story     `gorm:"foreignKey:StoryID" json:"-"`
	ViewerID string    `gorm:"not null;index" json:"viewer_id"`
	Viewer   User      `gorm:"foreignKey:ViewerID" json:"viewer,omitempty"`
	ViewedAt time.Time `gorm:"not null" json:"viewed_at"`
}

func (StoryView) TableName() string {
	return "story_views"
}

func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = time.Now().UTC().Add(24 * time.Hour)
	}
	return nil
}

func (sv *StoryView) BeforeCreate(tx *gorm.DB) error {
	if sv.ID == "" {
		sv.ID = generateUUID()
	}
	if sv.ViewedAt.IsZero() {
		sv.ViewedAt = time.Now().UTC()
	}
	return nil
}
