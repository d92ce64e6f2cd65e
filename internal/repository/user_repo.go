package repository

import (
	"Murmur/internal/model"
	"context"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetProfiles(ctx context.Context, ids []uint64) ([]*model.Profile, error)
	GetIDsByUsernames(ctx context.Context, usernames []string) (map[string]uint64, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

// GetProfiles 已删除的用户不返回
func (s *UserRepoImpl) GetProfiles(ctx context.Context, ids []uint64) ([]*model.Profile, error) {
	profiles := make([]*model.Profile, 0, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}
	result := s.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id AS user_id, u.username, d.nickname, d.avatar_url").
		Joins("LEFT JOIN user_detail AS d ON d.user_id = u.id").
		Where("u.id IN ? AND u.is_delete = ?", ids, false).
		Scan(&profiles)
	if result.Error != nil {
		return nil, result.Error
	}
	return profiles, nil
}

// GetIDsByUsernames 一次查询，未知用户名不出现在结果中
func (s *UserRepoImpl) GetIDsByUsernames(ctx context.Context, usernames []string) (map[string]uint64, error) {
	ids := make(map[string]uint64, len(usernames))
	if len(usernames) == 0 {
		return ids, nil
	}

	var users []*model.User
	result := s.db.WithContext(ctx).
		Select("id", "username").
		Where("username IN ? AND is_delete = ?", usernames, false).
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	for _, u := range users {
		if u.Username != nil {
			ids[*u.Username] = u.ID
		}
	}
	return ids, nil
}
