package kafka

import (
	"context"
	"fmt"
	"strings"

	"chatgo/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"
)

// MessageHandler is a function type for processing consumed Kafka messages.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer creates a new Kafka consumer instance using confluent-kafka-go.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	// GroupID is set in Consume; the consumer itself is created lazily there.
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// Consume starts consuming messages from the specified topics and group.
// This method blocks until the context is canceled or a fatal error occurs.
// Offsets are committed manually after the handler returns nil, so a failed
// message is redelivered.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close() // Best effort close
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log.Info().Str("group", groupID).Strs("topics", topics).Msg("Kafka consumer started, waiting for messages")

	run := true
	for run {
		select {
		case <-ctx.Done():
			log.Info().Str("group", groupID).Msg("context canceled, shutting down consumer")
			run = false
		default:
			ev := c.consumer.Poll(1000) // Poll for 1 second
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				if err := handler(ctx, e); err != nil {
					log.Error().Err(err).
						Str("group", groupID).
						Str("topic", *e.TopicPartition.Topic).
						Int64("offset", int64(e.TopicPartition.Offset)).
						Msg("error processing Kafka message")
				} else {
					if _, err := c.consumer.CommitMessage(e); err != nil {
						log.Error().Err(err).
							Str("group", groupID).
							Str("topic", *e.TopicPartition.Topic).
							Int64("offset", int64(e.TopicPartition.Offset)).
							Msg("failed to commit offset")
					}
				}
			case kafka.Error:
				log.Error().Err(e).Str("group", groupID).Bool("fatal", e.IsFatal()).Msg("Kafka consumer error")
				if e.IsFatal() {
					run = false
					return e
				}
			case kafka.AssignedPartitions:
				c.consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				c.consumer.Unassign()
			default:
			}
		}
	}
	log.Info().Str("group", groupID).Msg("Kafka consumer loop finished")
	return nil
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer != nil {
		if err := c.consumer.Close(); err != nil {
			log.Error().Err(err).Str("group", c.groupID).Msg("error closing Kafka consumer")
		}
		c.consumer = nil
	}
}
