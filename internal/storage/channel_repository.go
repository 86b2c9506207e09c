package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatgo/internal/models"
)

// ChannelRepository 定义了频道数据操作的接口。
type ChannelRepository interface {
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	// CreateIfAbsent inserts the channel unless a row with the same id exists
	// already. Concurrent first-contact materializations of the same DM
	// channel both succeed.
	CreateIfAbsent(ctx context.Context, channel *models.Channel) error
	// AddMember is idempotent: adding an existing member is a no-op.
	AddMember(ctx context.Context, channelID, userID string) error
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
	// GetUserChannels 获取用户可见的所有频道（按成员关系）。
	GetUserChannels(ctx context.Context, userID string) ([]models.Channel, error)
	// GetOtherMember returns the counterpart member of a channel, excluding
	// the given user. Intended for DM channels with exactly two members.
	GetOtherMember(ctx context.Context, channelID, excludeUserID string) (*models.User, error)
}

// gormChannelRepository 使用 GORM 实现 ChannelRepository。
type gormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository 创建一个新的基于 GORM 的 ChannelRepository。
func NewGormChannelRepository(db *gorm.DB) ChannelRepository {
	return &gormChannelRepository{db: db}
}

func (r *gormChannelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *gormChannelRepository) CreateIfAbsent(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(channel).Error
}

func (r *gormChannelRepository) AddMember(ctx context.Context, channelID, userID string) error {
	member := models.ChannelMember{
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
}

func (r *gormChannelRepository) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserChannels 通过 channel_members 连接查询用户参与的频道。
// 返回顺序是成员关系查询的自然顺序，调用方如需按最近消息排序自行处理。
func (r *gormChannelRepository) GetUserChannels(ctx context.Context, userID string) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_members cm ON cm.channel_id = channels.id").
		Where("cm.user_id = ?", userID).
		Find(&channels).Error
	return channels, err
}

func (r *gormChannelRepository) GetOtherMember(ctx context.Context, channelID, excludeUserID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_members cm ON cm.user_id = users.id").
		Where("cm.channel_id = ? AND cm.user_id != ?", channelID, excludeUserID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 单人频道没有对方成员，不视为错误
		}
		return nil, err
	}
	return &user, nil
}
