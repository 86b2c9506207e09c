package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"chatgo/internal/config"
	"chatgo/internal/kafka"
	"chatgo/internal/models"
	"chatgo/internal/social"
	"chatgo/internal/storage"
)

var ErrReceiverRequired = errors.New("首次私聊需要指定接收者")

// AIReplyRequest 是发往 AI 请求主题的载荷，消费端据此生成并持久化回复。
type AIReplyRequest struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
}

// SendMessageInput 聚合了发送消息需要的全部字段。
// ReceiverID 仅在首次向尚未物化的 DM 频道发消息时需要。
type SendMessageInput struct {
	ChannelID  string
	SenderID   string
	Type       models.MessageType
	Content    string
	FileName   string
	FileURL    string
	ReceiverID string
}

// MessageService 定义了消息发送和历史查询的服务接口。
type MessageService interface {
	SendMessage(ctx context.Context, input SendMessageInput) (*models.Message, error)
	// GetChannelMessages 返回频道完整历史，按时间戳升序。
	GetChannelMessages(ctx context.Context, channelID, userID string) ([]*models.Message, error)
}

type messageService struct {
	messageRepo storage.MessageRepository
	channelRepo storage.ChannelRepository
	channelSvc  ChannelService
	producer    kafka.MessageProducer
	kafkaCfg    config.KafkaConfig
}

// NewMessageService 创建一个新的 MessageService 实例。
// producer 可以为 nil，此时发给 AI 频道的消息不会产生回复。
func NewMessageService(messageRepo storage.MessageRepository, channelRepo storage.ChannelRepository, channelSvc ChannelService, producer kafka.MessageProducer, kafkaCfg config.KafkaConfig) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		channelSvc:  channelSvc,
		producer:    producer,
		kafkaCfg:    kafkaCfg,
	}
}

func (s *messageService) SendMessage(ctx context.Context, input SendMessageInput) (*models.Message, error) {
	channel, err := s.resolveChannel(ctx, input)
	if err != nil {
		return nil, err
	}

	if input.Type == "" {
		input.Type = models.TextMessage
	}

	message := &models.Message{
		ChannelID:  channel.ID,
		SenderID:   input.SenderID,
		SenderType: models.SenderTypeUser,
		Type:       input.Type,
		Content:    input.Content,
		FileName:   input.FileName,
		FileURL:    input.FileURL,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("保存消息失败: %w", err)
	}

	if channel.Type == models.AIChannel {
		s.publishAIRequest(ctx, message)
	}

	return message, nil
}

// resolveChannel 定位目标频道，必要时物化它。
// 发往推导 id 的 DM 频道的第一条消息会触发频道创建；发往 AI 助手频道的
// 第一条消息会把发送者加入该种子频道。
func (s *messageService) resolveChannel(ctx context.Context, input SendMessageInput) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, input.ChannelID)
	if err == nil {
		if input.ChannelID == models.AIAssistantChannelID {
			if err := s.channelRepo.AddMember(ctx, channel.ID, input.SenderID); err != nil {
				return nil, fmt.Errorf("加入 AI 频道失败: %w", err)
			}
		}
		return channel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询频道失败: %w", err)
	}

	// 频道不存在：只有推导出的 DM 频道可以惰性创建
	if !strings.HasPrefix(input.ChannelID, social.DMChannelIDPrefix) {
		return nil, ErrChannelNotFound
	}
	if input.ReceiverID == "" {
		return nil, ErrReceiverRequired
	}
	if social.DMChannelID(input.SenderID, input.ReceiverID) != input.ChannelID {
		return nil, ErrChannelNotFound
	}

	return s.channelSvc.GetOrCreateDMChannel(ctx, input.SenderID, input.ReceiverID)
}

// publishAIRequest 把需要 AI 回复的消息发布到请求主题。发布失败只记录
// 日志，用户消息已经落库，回复缺失由前端的占位逻辑兜底。
func (s *messageService) publishAIRequest(ctx context.Context, message *models.Message) {
	if s.producer == nil || s.kafkaCfg.AIRequestsTopic == "" {
		return
	}

	req := AIReplyRequest{
		ChannelID: message.ChannelID,
		MessageID: message.ID,
		SenderID:  message.SenderID,
		Content:   message.Content,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Msg("序列化 AI 请求失败")
		return
	}

	if err := s.producer.SendMessage(ctx, s.kafkaCfg.AIRequestsTopic, []byte(message.ChannelID), payload); err != nil {
		log.Error().Err(err).Str("messageId", message.ID).Msg("发布 AI 请求失败")
	}
}

func (s *messageService) GetChannelMessages(ctx context.Context, channelID, userID string) ([]*models.Message, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 推导出的 DM 频道还没物化时历史为空，不是错误
			if strings.HasPrefix(channelID, social.DMChannelIDPrefix) {
				return []*models.Message{}, nil
			}
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("查询频道失败: %w", err)
	}

	// AI 频道对所有用户开放，首次发消息时才成为成员；其余频道只有成员可读
	if channel.Type != models.AIChannel {
		isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
		if err != nil {
			return nil, fmt.Errorf("查询频道成员失败: %w", err)
		}
		if !isMember {
			return nil, ErrNotChannelMember
		}
	}

	messages, err := s.messageRepo.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("查询频道消息失败: %w", err)
	}
	return messages, nil
}
