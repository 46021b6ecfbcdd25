package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/archive-bot-go/internal/config"
	"github.com/user/archive-bot-go/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLStore implements Store on top of gorm (MySQL or SQLite)
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore opens the configured database and migrates the schema
func NewSQLStore(cfg *config.DBConfig) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool. SQLite allows a single writer, so every
	// transaction gets the one connection in turn.
	if cfg.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.Subscriber{}, &model.File{}, &model.ObservedMedia{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Begin starts a new transaction
func (s *SQLStore) Begin(ctx context.Context) (Session, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &sqlSession{tx: tx}, nil
}

// CountSubscribers returns the total count of subscribers
func (s *SQLStore) CountSubscribers(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.Subscriber{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", result.Error)
	}
	return count, nil
}

// Ping checks database connectivity
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

type sqlSession struct {
	tx   *gorm.DB
	done bool
}

// GetOrCreateSubscriber inserts the default record unless the chat already has
// one, then reads the surviving row. A concurrent creator that loses the race
// hits the unique index, does nothing, and reads the winner's row.
func (s *sqlSession) GetOrCreateSubscriber(ctx context.Context, id model.ChatIdentity) (*model.Subscriber, error) {
	result := s.tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "chat_type"}},
		DoNothing: true,
	}).Create(model.DefaultSubscriber(id))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", result.Error)
	}

	var sub model.Subscriber
	result = s.tx.WithContext(ctx).
		Where("chat_id = ? AND chat_type = ?", id.ChatID, id.ChatType).
		First(&sub)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", result.Error)
	}
	return &sub, nil
}

// SaveSubscriber writes every column of the subscriber
func (s *sqlSession) SaveSubscriber(ctx context.Context, sub *model.Subscriber) error {
	if err := s.tx.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to save subscriber: %w", err)
	}
	return nil
}

// SubscriberByName returns the subscriber using the given channel name, or nil
func (s *sqlSession) SubscriberByName(ctx context.Context, name string) (*model.Subscriber, error) {
	var sub model.Subscriber
	result := s.tx.WithContext(ctx).Where("channel_name = ?", name).First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscriber by name: %w", result.Error)
	}
	return &sub, nil
}

// RecordFile records an archived file
func (s *sqlSession) RecordFile(ctx context.Context, file *model.File) error {
	if err := s.tx.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to record file: %w", err)
	}
	return nil
}

// FileExists checks if an attachment has already been archived for a subscriber
func (s *sqlSession) FileExists(ctx context.Context, subscriberID uint, fileUniqueID string) (bool, error) {
	var count int64
	result := s.tx.WithContext(ctx).
		Model(&model.File{}).
		Where("subscriber_id = ? AND file_unique_id = ?", subscriberID, fileUniqueID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check file existence: %w", result.Error)
	}
	return count > 0, nil
}

// CountFiles returns the number of archived files of a subscriber
func (s *sqlSession) CountFiles(ctx context.Context, subscriberID uint) (int64, error) {
	var count int64
	result := s.tx.WithContext(ctx).
		Model(&model.File{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count files: %w", result.Error)
	}
	return count, nil
}

// DeleteFiles deletes all file records of a subscriber
func (s *sqlSession) DeleteFiles(ctx context.Context, subscriberID uint) (int64, error) {
	result := s.tx.WithContext(ctx).
		Where("subscriber_id = ?", subscriberID).
		Delete(&model.File{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete files: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RecordObservedMedia records a media message, ignoring repeats
func (s *sqlSession) RecordObservedMedia(ctx context.Context, media *model.ObservedMedia) error {
	result := s.tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscriber_id"}, {Name: "message_id"}, {Name: "file_unique_id"}},
		DoNothing: true,
	}).Create(media)
	if result.Error != nil {
		return fmt.Errorf("failed to record observed media: %w", result.Error)
	}
	return nil
}

// ListObservedMedia retrieves media observed in a chat, in message order
func (s *sqlSession) ListObservedMedia(ctx context.Context, subscriberID uint) ([]*model.ObservedMedia, error) {
	var media []*model.ObservedMedia
	result := s.tx.WithContext(ctx).
		Where("subscriber_id = ?", subscriberID).
		Order("message_id ASC").
		Find(&media)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list observed media: %w", result.Error)
	}
	return media, nil
}

// Commit commits the transaction
func (s *sqlSession) Commit() error {
	if s.done {
		return fmt.Errorf("session already finished")
	}
	s.done = true
	if err := s.tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Release rolls back the transaction unless it was committed
func (s *sqlSession) Release() {
	if s.done {
		return
	}
	s.done = true
	s.tx.Rollback()
}
