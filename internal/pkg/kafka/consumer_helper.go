package kafka

import (
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second

	retryBase = 100 * time.Millisecond
	retryMax  = 5 * time.Second
	retryMaxN = 5
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批后按分区内顺序处理，处理完一批提交一次位移
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		processBatch(session.Context(), batch, logic)
		session.MarkMessage(batch[len(batch)-1], "")
		batch = batch[:0]
	}

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush()
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			flush()
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 逐条处理，失败按指数退避重试，超过次数后记录并跳过
func processBatch(ctx context.Context, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	for _, msg := range messages {
		interval := retryBase
		for attempt := 1; ; attempt++ {
			err := logic(ctx, msg)
			if err == nil {
				break
			}
			if attempt >= retryMaxN {
				log.ErrorContext(ctx, "drop message after retries",
					"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
				break
			}
			log.WarnContext(ctx, "process message error", "attempt", attempt, "err", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			interval = min(interval*2, retryMax)
		}
	}
}

// ToCanalMessage 将kafka消息转换为canal消息结构体，database 为空时不校验库名
func ToCanalMessage(msg *sarama.ConsumerMessage, database string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		return nil, err
	}

	if database != "" && canalMsg.Database != database {
		return nil, errors.New("database name not match")
	}

	if len(canalMsg.Data) == 0 {
		return nil, errors.New("data is empty")
	}

	return &canalMsg, nil
}

// StrToUint64 Canal 的列值均为字符串，解析失败返回 0
func StrToUint64(v interface{}) uint64 {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		return uint64(val)
	case uint64:
		return val
	case int64:
		return uint64(val)
	}
	return 0
}
