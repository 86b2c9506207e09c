package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chatgo/internal/avatar"
	"chatgo/internal/models"
	"chatgo/internal/social"
	"chatgo/internal/storage"
)

var (
	ErrChannelNotFound  = errors.New("频道不存在")
	ErrNotChannelMember = errors.New("您不是该频道的成员")
)

// 无消息时的列表占位文案
const (
	placeholderNoMessages = "No messages yet"
	placeholderAIGreeting = "Hi! I'm your AI assistant. How can I help you today?"
	placeholderNewFriend  = "You are now friends"
)

// ChannelService 定义了频道列表和 DM 频道管理的服务接口。
type ChannelService interface {
	// ListChannels 合成用户可见的会话列表：已持久化的频道，加上由好友
	// 关系推导出的、尚未落库的 DM 会话。AI 助手会话始终排在首位。
	ListChannels(ctx context.Context, userID string) ([]models.ChannelView, error)
	// GetOrCreateDMChannel 物化当前用户与另一用户的 DM 频道。
	// 频道 id 由用户对推导，重复调用返回同一个频道。
	GetOrCreateDMChannel(ctx context.Context, userID, otherUserID string) (*models.Channel, error)
}

type channelService struct {
	channelRepo    storage.ChannelRepository
	messageRepo    storage.MessageRepository
	friendshipRepo storage.FriendshipRepository
	userRepo       storage.UserRepository
}

// NewChannelService 创建一个新的 ChannelService 实例。
func NewChannelService(channelRepo storage.ChannelRepository, messageRepo storage.MessageRepository, friendshipRepo storage.FriendshipRepository, userRepo storage.UserRepository) ChannelService {
	return &channelService{
		channelRepo:    channelRepo,
		messageRepo:    messageRepo,
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
	}
}

func (s *channelService) ListChannels(ctx context.Context, userID string) ([]models.ChannelView, error) {
	channels, err := s.channelRepo.GetUserChannels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户频道失败: %w", err)
	}

	views := make([]models.ChannelView, 0, len(channels))
	seen := make(map[string]bool, len(channels)) // 已出现的频道 id，用于去重推导会话
	hasAIChannel := false

	for _, ch := range channels {
		view, err := s.buildChannelView(ctx, userID, ch)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
		seen[ch.ID] = true
		if ch.Type == models.AIChannel {
			hasAIChannel = true
		}
	}

	implied, err := s.impliedDMViews(ctx, userID, seen)
	if err != nil {
		return nil, err
	}
	views = append(views, implied...)

	// AI 助手会话对所有用户可见，即使用户不是成员、频道还没有消息
	if !hasAIChannel {
		views = append([]models.ChannelView{s.aiAssistantView()}, views...)
	}

	return views, nil
}

// buildChannelView 把一个已持久化的频道投影成当前用户视角的会话条目。
func (s *channelService) buildChannelView(ctx context.Context, userID string, ch models.Channel) (models.ChannelView, error) {
	view := models.ChannelView{
		ID:        ch.ID,
		Name:      ch.Name,
		Type:      ch.Type,
		AvatarURL: ch.AvatarURL,
	}

	last, err := s.messageRepo.GetLastForChannel(ctx, ch.ID)
	if err != nil {
		return view, fmt.Errorf("查询频道最近消息失败: %w", err)
	}
	if last != nil {
		view.LastMessage = last.Content
		view.LastMessageTime = last.Timestamp
		view.LastMessageSender = last.SenderID
	} else if ch.Type == models.AIChannel {
		view.LastMessage = placeholderAIGreeting
	} else {
		view.LastMessage = placeholderNoMessages
	}

	// DM 频道显示对方的名字和头像，而不是频道自身的
	if ch.Type == models.DMChannel {
		other, err := s.channelRepo.GetOtherMember(ctx, ch.ID, userID)
		if err != nil {
			return view, fmt.Errorf("查询 DM 对方成员失败: %w", err)
		}
		if other != nil {
			view.Name = other.FullName
			view.AvatarURL = avatar.OrDefault(other.AvatarURL, other.FullName)
			view.OtherUserID = other.ID

			isFriend, err := s.friendshipRepo.AreUsersFriends(ctx, userID, other.ID)
			if err != nil {
				return view, fmt.Errorf("查询好友关系失败: %w", err)
			}
			view.IsFriend = isFriend
		}
	}

	return view, nil
}

// impliedDMViews 为每个还没有对应 DM 频道的好友合成一个会话条目。
// 推导的 id 与物化时使用的 id 相同，因此前端点开即可无缝创建频道。
func (s *channelService) impliedDMViews(ctx context.Context, userID string, seen map[string]bool) ([]models.ChannelView, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询好友列表失败: %w", err)
	}
	if len(friendIDs) == 0 {
		return nil, nil
	}

	friends, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("查询好友信息失败: %w", err)
	}

	var views []models.ChannelView
	for _, friend := range friends {
		channelID := social.DMChannelID(userID, friend.ID)
		if seen[channelID] {
			continue
		}
		views = append(views, models.ChannelView{
			ID:          channelID,
			Name:        friend.FullName,
			Type:        models.DMChannel,
			LastMessage: placeholderNewFriend,
			AvatarURL:   avatar.OrDefault(friend.AvatarURL, friend.FullName),
			IsFriend:    true,
			OtherUserID: friend.ID,
		})
	}
	return views, nil
}

func (s *channelService) aiAssistantView() models.ChannelView {
	return models.ChannelView{
		ID:          models.AIAssistantChannelID,
		Name:        models.AIAssistantName,
		Type:        models.AIChannel,
		LastMessage: placeholderAIGreeting,
	}
}

func (s *channelService) GetOrCreateDMChannel(ctx context.Context, userID, otherUserID string) (*models.Channel, error) {
	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询对方用户失败: %w", err)
	}

	channelID := social.DMChannelID(userID, otherUserID)
	channel := &models.Channel{
		ID:   channelID,
		Name: other.FullName, // 频道名仅作后备，列表展示时总是用对方的名字
		Type: models.DMChannel,
	}
	if err := s.channelRepo.CreateIfAbsent(ctx, channel); err != nil {
		return nil, fmt.Errorf("创建 DM 频道失败: %w", err)
	}

	if err := s.channelRepo.AddMember(ctx, channelID, userID); err != nil {
		return nil, fmt.Errorf("加入 DM 频道失败: %w", err)
	}
	if err := s.channelRepo.AddMember(ctx, channelID, otherUserID); err != nil {
		return nil, fmt.Errorf("加入 DM 频道失败: %w", err)
	}

	created, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("查询 DM 频道失败: %w", err)
	}
	return created, nil
}
