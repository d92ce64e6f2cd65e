package kafka

import (
	"Murmur/internal/pkg/realtime"
	"time"
)

const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage Canal 推送到 Kafka 的 flat message
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"` // binlog 提交时间，毫秒
	TS       int64    `json:"ts"`

	// Data 变更后的行；DELETE 时为被删除的行
	Data []map[string]interface{} `json:"data"`

	// Old UPDATE 时只包含被修改的列的旧值
	Old []map[string]interface{} `json:"old"`
}

// ToChangeEvents 每一行转换为一个 ChangeEvent，DDL 与未知类型返回空
func (m *CanalMessage) ToChangeEvents() []realtime.ChangeEvent {
	if m.IsDDL {
		return nil
	}

	var eventType realtime.EventType
	switch m.Type {
	case INSERT:
		eventType = realtime.EventInsert
	case UPDATE:
		eventType = realtime.EventUpdate
	case DELETE:
		eventType = realtime.EventDelete
	default:
		return nil
	}

	commitTs := time.UnixMilli(m.ES)
	events := make([]realtime.ChangeEvent, 0, len(m.Data))
	for i, row := range m.Data {
		ev := realtime.ChangeEvent{
			Table:    m.Table,
			Type:     eventType,
			CommitTs: commitTs,
		}
		switch eventType {
		case realtime.EventInsert:
			ev.New = realtime.Row(row)
		case realtime.EventDelete:
			ev.Old = realtime.Row(row)
		case realtime.EventUpdate:
			ev.New = realtime.Row(row)
			// 用新行补全旧行中未变化的列
			old := make(realtime.Row, len(row))
			for k, v := range row {
				old[k] = v
			}
			if i < len(m.Old) {
				for k, v := range m.Old[i] {
					old[k] = v
				}
			}
			ev.Old = old
		}
		events = append(events, ev)
	}
	return events
}
