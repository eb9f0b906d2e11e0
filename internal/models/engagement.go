package models

import (
	"time"

	"gorm.io/gorm"
)

// EngagementType classifies engagement log entries
type EngagementType string

const (
	EngagementView     EngagementType = "VIEW"
	EngagementLike     EngagementType = "LIKE"
	EngagementComment  EngagementType = "COMMENT"
	EngagementFollow   EngagementType = "FOLLOW"
	EngagementDMSend   EngagementType = "DM_SEND"
	EngagementPingSend EngagementType = "PING_SEND"
)

// EngagementLog is an append-only record of a user action, kept for the
// transparency dashboard and data export. Rows are never updated or deleted
// by application code.
type EngagementLog struct {
	ID      string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ActorID string         `gorm:"not null;index" json:"actor_id"`
	Actor   User           `gorm:"foreignKey:ActorID" json:"-"`
	Type    EngagementType `gorm:"type:varchar(20);not null;index" json:"type"`

	TargetPostID *string `gorm:"type:uuid;index" json:"target_post_id,omitempty"`
	TargetPost   *Post   `gorm:"foreignKey:TargetPostID" json:"target_post,omitempty"`
	TargetUserID *string `gorm:"type:uuid;index" json:"target_user_id,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// PingStatus is the lifecycle state of an affinity ping. ACCEPTED is terminal.
type PingStatus string

const (
	PingPending  PingStatus = "PENDING"
	PingAccepted PingStatus = "ACCEPTED"
)

// AffinityPing is a one-time outreach request from sender to receiver.
// At most one row may ever exist per ordered (sender, receiver) pair,
// enforced by a unique index.
type AffinityPing struct {
	ID         string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SenderID   string     `gorm:"not null;index" json:"sender_id"`
	Sender     User       `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string     `gorm:"not null;index" json:"receiver_id"`
	Receiver   User       `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Status     PingStatus `gorm:"type:varchar(10);not null;default:PENDING" json:"status"`
	Score      float64    `gorm:"not null" json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationType classifies notifications shown to the recipient
type NotificationType string

const (
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationReply   NotificationType = "REPLY"
)

// Notification is a per-recipient notice. The only permitted mutation is
// flipping Read to true.
type Notification struct {
	ID          string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RecipientID string           `gorm:"not null;index" json:"recipient_id"`
	Recipient   User             `gorm:"foreignKey:RecipientID" json:"-"`
	SenderID    string           `gorm:"not null;index" json:"sender_id"`
	Sender      User             `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        NotificationType `gorm:"type:varchar(10);not null" json:"type"`

	PostID    *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *string `gorm:"type:uuid" json:"comment_id,omitempty"`

	Read bool `gorm:"default:false;index" json:"read"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (e *EngagementLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}

func (p *AffinityPing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.Status == "" {
		p.Status = PingPending
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
