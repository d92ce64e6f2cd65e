package model

import (
	"time"
)

type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"not null;index:idx_post_id" json:"postId"`
	UserID    uint64    `gorm:"not null" json:"userId"`
	ParentID  *uint64   `gorm:"index:idx_parent_id" json:"parentId"` // nil 表示直接评论帖子
	Content   string    `gorm:"type:varchar(2000);not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author *Profile `gorm:"-" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
