package kafkahandlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"

	"chatgo/internal/ai"
	"chatgo/internal/models"
	"chatgo/internal/services"
	"chatgo/internal/storage"
)

// AIReplyConsumerLogic consumes AI reply requests and persists assistant
// replies into the originating channel.
type AIReplyConsumerLogic struct {
	assistant   ai.Assistant
	messageRepo storage.MessageRepository
}

// NewAIReplyConsumerLogic creates a new AIReplyConsumerLogic.
func NewAIReplyConsumerLogic(assistant ai.Assistant, messageRepo storage.MessageRepository) *AIReplyConsumerLogic {
	return &AIReplyConsumerLogic{
		assistant:   assistant,
		messageRepo: messageRepo,
	}
}

// HandleAIRequest is the MessageHandler passed to the Kafka consumer.
// Reply generation failures still persist the fallback text, so every user
// message to the assistant gets exactly one stored answer. Only database
// errors are returned for redelivery.
func (h *AIReplyConsumerLogic) HandleAIRequest(ctx context.Context, msg *kafka.Message) error {
	var req services.AIReplyRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		log.Error().Err(err).
			Str("value", string(msg.Value)).
			Msg("无法解析 AI 请求消息，跳过")
		return nil // 畸形消息重试也不会成功
	}

	replyText, err := h.assistant.Reply(ctx, req.Content)
	if err != nil {
		log.Warn().Err(err).
			Str("messageId", req.MessageID).
			Msg("AI 回复生成失败，使用兜底文案")
	}

	reply := &models.Message{
		ChannelID:  req.ChannelID,
		SenderID:   models.AIAssistantChannelID,
		SenderType: models.SenderTypeAI,
		Type:       models.TextMessage,
		Content:    replyText,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := h.messageRepo.Create(ctx, reply); err != nil {
		log.Error().Err(err).
			Str("channelId", req.ChannelID).
			Msg("保存 AI 回复失败")
		return err
	}

	log.Info().
		Str("channelId", req.ChannelID).
		Str("inReplyTo", req.MessageID).
		Msg("AI 回复已保存")
	return nil
}
