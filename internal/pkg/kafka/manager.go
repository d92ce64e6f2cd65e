package kafka

import (
	"Murmur/internal/api/config"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理变更流消费者组
type ConsumerManager struct {
	topics   []string
	consumer sarama.ConsumerGroup
	handler  sarama.ConsumerGroupHandler
}

func NewConsumerManager(cfg *config.Config, publisher Publisher, tables ...string) (*ConsumerManager, error) {
	if len(cfg.ChangeFeed.Topics) == 0 {
		return nil, errors.New("change feed topics not configured")
	}
	consumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.ChangeFeed.GroupID, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return &ConsumerManager{
		topics:   cfg.ChangeFeed.Topics,
		consumer: consumer,
		handler:  NewChangeFeedHandler(publisher, cfg.ChangeFeed.Database, tables...),
	}, nil
}

// Start 阻塞消费直到 ctx 结束；重平衡后 Consume 返回，需要循环重新加入
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.consumer.Errors() {
			log.Error("change feed consumer error", "err", err)
		}
	}()

	log.Info("change feed consumer started", "topics", m.topics)
	for {
		if err := m.consumer.Consume(ctx, m.topics, m.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			log.Error("Error from consumer", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Info("Kafka Manager shutting down...")
	if err := m.consumer.Close(); err != nil {
		log.Error("Failed to close change feed consumer", "err", err)
	}
	return nil
}
