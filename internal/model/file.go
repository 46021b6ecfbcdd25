package model

import (
	"time"
)

// File is an attachment that has been written to the archive
type File struct {
	ID           uint      `gorm:"primaryKey"`
	SubscriberID uint      `gorm:"uniqueIndex:idx_file_subscriber_unique;not null"`
	FileUniqueID string    `gorm:"uniqueIndex:idx_file_subscriber_unique;size:100;not null"`
	ChatID       int64     `gorm:"index;not null"`
	MessageID    int       `gorm:"not null"`
	UserID       int64     `gorm:"index"`
	FileName     string    `gorm:"size:255;not null"`
	Kind         MediaKind `gorm:"size:20;not null"`
	Path         string    `gorm:"size:1024;not null"` // relative to the chat directory
	Size         int64
	CreatedAt    time.Time
}

// TableName returns the table name for File
func (File) TableName() string {
	return "files"
}

// ObservedMedia is a media message seen in a chat, archived or not.
// The Bot API cannot read chat history, so /scan_chat replays this log.
type ObservedMedia struct {
	ID           uint      `gorm:"primaryKey"`
	SubscriberID uint      `gorm:"uniqueIndex:idx_observed_message;not null"`
	MessageID    int       `gorm:"uniqueIndex:idx_observed_message;not null"`
	FileUniqueID string    `gorm:"uniqueIndex:idx_observed_message;size:100;not null"`
	FileID       string    `gorm:"size:255;not null"`
	FileName     string    `gorm:"size:255"`
	Kind         MediaKind `gorm:"size:20;not null"`
	Size         int64
	SenderID     int64
	SenderName   string `gorm:"size:255"`
	CreatedAt    time.Time
}

// TableName returns the table name for ObservedMedia
func (ObservedMedia) TableName() string {
	return "observed_media"
}
