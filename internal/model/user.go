package model

// User 账号由身份提供方维护，这里只读取用户名解析提及
type User struct {
	ID       uint64  `gorm:"primaryKey"`
	Username *string `gorm:"type:varchar(50);uniqueIndex:idx_username"`
	IsDelete bool    `gorm:"type:tinyint(1);default:0"`
}

func (User) TableName() string {
	return "users"
}
