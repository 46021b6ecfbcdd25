package model

import (
	"time"
)

// ChatType defines the kind of chat a subscriber belongs to
type ChatType string

const (
	ChatTypeUser    ChatType = "user"
	ChatTypeGroup   ChatType = "group"
	ChatTypeChannel ChatType = "channel"
)

// ChatIdentity is the stable key of a chat
type ChatIdentity struct {
	ChatID   int64
	ChatType ChatType
}

// Subscriber holds the archive configuration of a single chat
type Subscriber struct {
	ID              uint      `gorm:"primaryKey"`
	ChatID          int64     `gorm:"uniqueIndex:idx_subscriber_chat;not null"`
	ChatType        ChatType  `gorm:"uniqueIndex:idx_subscriber_chat;size:20;not null"`
	ChannelName     *string   `gorm:"uniqueIndex;size:255"`
	Active          bool      `gorm:"not null;default:true"`
	AcceptedMedia   MediaList `gorm:"size:100;not null"`
	Verbose         bool      `gorm:"not null;default:false"`
	SortByUser      bool      `gorm:"not null;default:false"`
	AllowDuplicates bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for Subscriber
func (Subscriber) TableName() string {
	return "subscribers"
}

// DefaultSubscriber returns the record created for a chat seen for the first time
func DefaultSubscriber(id ChatIdentity) *Subscriber {
	return &Subscriber{
		ChatID:          id.ChatID,
		ChatType:        id.ChatType,
		Active:          true,
		AcceptedMedia:   MediaList{MediaDocument, MediaPhoto},
		Verbose:         false,
		SortByUser:      false,
		AllowDuplicates: false,
	}
}

// Identity returns the chat key of the subscriber
func (s *Subscriber) Identity() ChatIdentity {
	return ChatIdentity{ChatID: s.ChatID, ChatType: s.ChatType}
}

// Name returns the channel name or an empty string when unset
func (s *Subscriber) Name() string {
	if s.ChannelName == nil {
		return ""
	}
	return *s.ChannelName
}
