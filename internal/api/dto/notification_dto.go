package dto

import (
	"Murmur/internal/model"
	"time"
)

// NotificationDTO 通知列表项，附带触发者资料与其当前回应
type NotificationDTO struct {
	ID           string         `json:"id" copier:"-"`
	UserID       uint64         `json:"userId"`
	ActorID      uint64         `json:"actorId"`
	Type         string         `json:"type"`
	EntityType   string         `json:"entityType"`
	EntityID     uint64         `json:"entityId"`
	IsRead       bool           `json:"isRead"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	Actor        *model.Profile `json:"actor,omitempty"`
	ReactionKind *string        `json:"reactionKind,omitempty"`
	ReactionIcon string         `json:"reactionIcon,omitempty"`
}

type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

type MarkReadDTO struct {
	ID string `json:"id" binding:"required" validate:"len=24,hexadecimal"`
}
