package store

import (
	"context"

	"github.com/user/archive-bot-go/internal/model"
)

// Store defines the interface for data persistence operations
type Store interface {
	// Begin opens a transactional session. The caller must Release it.
	Begin(ctx context.Context) (Session, error)

	// CountSubscribers returns the number of known chats
	CountSubscribers(ctx context.Context) (int64, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}

// Session is a single database transaction. Nothing is persisted until Commit.
// Release rolls back an uncommitted session and is safe to call more than once.
type Session interface {
	// Subscriber operations
	GetOrCreateSubscriber(ctx context.Context, id model.ChatIdentity) (*model.Subscriber, error)
	SaveSubscriber(ctx context.Context, sub *model.Subscriber) error
	SubscriberByName(ctx context.Context, name string) (*model.Subscriber, error)

	// File operations
	RecordFile(ctx context.Context, file *model.File) error
	FileExists(ctx context.Context, subscriberID uint, fileUniqueID string) (bool, error)
	CountFiles(ctx context.Context, subscriberID uint) (int64, error)
	DeleteFiles(ctx context.Context, subscriberID uint) (int64, error)

	// Observed media operations
	RecordObservedMedia(ctx context.Context, media *model.ObservedMedia) error
	ListObservedMedia(ctx context.Context, subscriberID uint) ([]*model.ObservedMedia, error)

	Commit() error
	Release()
}
