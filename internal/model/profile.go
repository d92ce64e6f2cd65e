package model

// Profile 通知、评论中附带的作者信息，来自 users 与 user_detail 联表
type Profile struct {
	UserID    uint64 `gorm:"column:user_id" json:"userId"`
	Username  string `gorm:"column:username" json:"username"`
	Nickname  string `gorm:"column:nickname" json:"nickname"`
	AvatarURL string `gorm:"column:avatar_url" json:"avatarUrl"`
}
