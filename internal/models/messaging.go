package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a two-party direct message thread. UpdatedAt is bumped on
// every message send so the sidebar can order threads by activity.
type Conversation struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// ConversationParticipant links a user into a conversation. One membership
// per (conversation, user) pair.
type ConversationParticipant struct {
	ID             string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string       `gorm:"not null;index" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"`
	UserID         string       `gorm:"not null;index" json:"user_id"`
	User           User         `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// Message is a single direct message. Content may be nil for media-only
// messages; media may be nil for text-only ones.
type Message struct {
	ID             string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string       `gorm:"not null;index" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"`
	SenderID       string       `gorm:"not null;index" json:"sender_id"`
	Sender         User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Content   *string    `gorm:"type:text" json:"content,omitempty"`
	MediaURL  *string    `json:"media_url,omitempty"`
	MediaType *MediaType `gorm:"type:varchar(10)" json:"media_type,omitempty"`

	IsEdited bool `gorm:"default:false" json:"is_edited"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MessageLike is a heart on a direct message. One per (user, message) pair.
type MessageLike struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	MessageID string  `gorm:"not null;index" json:"message_id"`
	Message   Message `gorm:"foreignKey:MessageID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (p *ConversationParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (ml *MessageLike) BeforeCreate(tx *gorm.DB) error {
	if ml.ID == "" {
		ml.ID = generateUUID()
	}
	return nil
}
