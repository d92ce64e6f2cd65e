package kafka

import (
	"Murmur/internal/pkg/realtime"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// Publisher 变更事件的下游，通常是 realtime.Hub
type Publisher interface {
	Publish(ctx context.Context, ev realtime.ChangeEvent) int
}

// ChangeFeedHandler 把 Canal binlog 消息解码为 ChangeEvent 并发布
type ChangeFeedHandler struct {
	publisher Publisher
	database  string
	tables    map[string]struct{}
}

// NewChangeFeedHandler tables 为空时发布所有表
func NewChangeFeedHandler(publisher Publisher, database string, tables ...string) *ChangeFeedHandler {
	h := &ChangeFeedHandler{
		publisher: publisher,
		database:  database,
	}
	if len(tables) > 0 {
		h.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			h.tables[t] = struct{}{}
		}
	}
	return h
}

func (h *ChangeFeedHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("change feed consumer setup")
	return nil
}

func (h *ChangeFeedHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("change feed consumer cleanup")
	return nil
}

func (h *ChangeFeedHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("change feed consume claim", "topic", claim.Topic(), "partition", claim.Partition())
	return pullMessageBatch(session, claim, h.logic)
}

func (h *ChangeFeedHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, h.database)
	if err != nil || canalMsg == nil {
		// 格式错误或无关的消息不重试
		return nil
	}
	if h.tables != nil {
		if _, ok := h.tables[canalMsg.Table]; !ok {
			return nil
		}
	}

	for _, ev := range canalMsg.ToChangeEvents() {
		n := h.publisher.Publish(ctx, ev)
		log.DebugContext(ctx, "change feed event", "table", ev.Table, "type", ev.Type, "deliveries", n)
	}
	return nil
}
