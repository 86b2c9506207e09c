package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"chatgo/internal/models"
)

// MessageRepository 定义了消息数据操作的接口。
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// GetByChannelID 返回频道的全部历史，按时间戳升序；创建顺序即频道历史。
	GetByChannelID(ctx context.Context, channelID string) ([]*models.Message, error)
	// GetLastForChannel 返回频道最近一条消息，没有消息时返回 (nil, nil)。
	GetLastForChannel(ctx context.Context, channelID string) (*models.Message, error)
}

// gormMessageRepository 使用 GORM 实现 MessageRepository。
type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建一个新的基于 GORM 的 MessageRepository。
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create 在数据库中创建一条新的消息记录。
func (r *gormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetByID 通过ID检索消息。
func (r *gormMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// GetByChannelID 通过频道ID检索消息列表，按时间戳升序排列。
func (r *gormMessageRepository) GetByChannelID(ctx context.Context, channelID string) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetLastForChannel 检索频道最近的一条消息，用于会话列表预览。
func (r *gormMessageRepository) GetLastForChannel(ctx context.Context, channelID string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("timestamp DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}
