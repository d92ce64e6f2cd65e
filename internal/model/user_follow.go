package model

import "time"

// UserFollow 关注边，(follower_id, following_id) 为主键，不允许指向自己
type UserFollow struct {
	FollowerID  uint64    `gorm:"primaryKey" json:"followerId"`
	FollowingID uint64    `gorm:"primaryKey;index:idx_following_id" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (UserFollow) TableName() string {
	return "user_follows"
}

func (f *UserFollow) IsSelf() bool {
	return f.FollowerID == f.FollowingID
}
