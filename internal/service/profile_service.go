package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/repository"
	"context"
)

// ProfileService 作者资料批量读取，按 profile 层级缓存
type ProfileService interface {
	GetProfiles(ctx context.Context, ids []uint64) (map[uint64]*model.Profile, error)
}

type ProfileServiceImpl struct {
	userRepo repository.UserRepo
	cache    *cache.Cache
}

func NewProfileService(userRepo repository.UserRepo, c *cache.Cache) ProfileService {
	return &ProfileServiceImpl{userRepo: userRepo, cache: c}
}

func (s *ProfileServiceImpl) GetProfiles(ctx context.Context, ids []uint64) (map[uint64]*model.Profile, error) {
	if len(ids) == 0 {
		return map[uint64]*model.Profile{}, nil
	}
	return cache.FetchMany(ctx, s.cache, ids, cache.Profile, s.cache.Tiers().Profile,
		func(ctx context.Context, missing []uint64) (map[uint64]*model.Profile, error) {
			list, err := s.userRepo.GetProfiles(ctx, missing)
			if err != nil {
				return nil, err
			}
			out := make(map[uint64]*model.Profile, len(list))
			for _, p := range list {
				out[p.UserID] = p
			}
			return out, nil
		})
}
