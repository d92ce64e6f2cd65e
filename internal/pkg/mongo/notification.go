package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	TypeLike     NotificationType = "like"     // 评论被回应
	TypeReaction NotificationType = "reaction" // 帖子被回应
	TypeComment  NotificationType = "comment"
	TypeReply    NotificationType = "reply"
	TypeFollow   NotificationType = "follow"
	TypeMention  NotificationType = "mention"
	TypeMovie    NotificationType = "movie" // 电影被评分
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeLike, TypeReaction, TypeComment, TypeReply, TypeFollow, TypeMention, TypeMovie:
		return true
	}
	return false
}

// Notification 站内通知
//
// 除 mention 外，(user_id, actor_id, type, entity_type, entity_id) 唯一，重复动作会把已有通知重新置为未读。
type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     uint64             `bson:"user_id" json:"userId"`   // 接收者
	ActorID    uint64             `bson:"actor_id" json:"actorId"` // 触发者
	Type       NotificationType   `bson:"type" json:"type"`
	EntityType string             `bson:"entity_type" json:"entityType"`
	EntityID   uint64             `bson:"entity_id" json:"entityId"`
	IsRead     bool               `bson:"is_read" json:"isRead"`
	Metadata   map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Dedup      bool               `bson:"dedup,omitempty" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// Tuple 通知去重键
type Tuple struct {
	UserID     uint64
	ActorID    uint64
	Type       NotificationType
	EntityType string
	EntityID   uint64
}

func (n *Notification) Tuple() Tuple {
	return Tuple{
		UserID:     n.UserID,
		ActorID:    n.ActorID,
		Type:       n.Type,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
	}
}
