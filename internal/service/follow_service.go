package service

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/repository"
	"context"
	log "log/slog"
)

type FollowService interface {
	IsFollowing(ctx context.Context, targetID uint64) (bool, error)
	ToggleFollow(ctx context.Context, targetID uint64, currentlyFollowing bool) (*dto.FollowStateDTO, error)
	GetFollowCounts(ctx context.Context, userID uint64) (*dto.FollowCountDTO, error)
}

type followInput struct {
	actorID            uint64
	targetID           uint64
	currentlyFollowing bool
}

type FollowServiceImpl struct {
	userFollowRepo repository.UserFollowRepo
	notifications  NotificationService
	cache          *cache.Cache
	toggle         *cache.Mutation[followInput, *dto.FollowStateDTO]
}

func NewFollowService(userFollowRepo repository.UserFollowRepo, notifications NotificationService, c *cache.Cache) FollowService {
	s := &FollowServiceImpl{
		userFollowRepo: userFollowRepo,
		notifications:  notifications,
		cache:          c,
	}
	s.toggle = cache.NewMutation(c, s.runToggle, func(in followInput, _ *dto.FollowStateDTO) cache.Invalidation {
		return followInvalidation(in.actorID, in.targetID)
	})
	return s
}

// IsFollowing 未登录时视为未关注
func (s *FollowServiceImpl) IsFollowing(ctx context.Context, targetID uint64) (bool, error) {
	if targetID == 0 {
		return false, ErrTargetUserInvalid
	}
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return false, nil
	}
	if actorID == targetID {
		return false, nil
	}
	return cache.Fetch(ctx, s.cache, cache.FollowState(actorID, targetID), s.cache.Tiers().Social,
		func(ctx context.Context) (bool, error) {
			return s.userFollowRepo.IsFollowing(ctx, actorID, targetID)
		})
}

func (s *FollowServiceImpl) ToggleFollow(ctx context.Context, targetID uint64, currentlyFollowing bool) (*dto.FollowStateDTO, error) {
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if targetID == 0 {
		return nil, ErrTargetUserInvalid
	}
	if targetID == actorID {
		return nil, ErrFollowSelf
	}
	return s.toggle.MutateAsync(ctx, followInput{
		actorID:            actorID,
		targetID:           targetID,
		currentlyFollowing: currentlyFollowing,
	})
}

func (s *FollowServiceImpl) runToggle(ctx context.Context, in followInput) (*dto.FollowStateDTO, error) {
	tuple := mongo.Tuple{
		UserID:     in.targetID,
		ActorID:    in.actorID,
		Type:       mongo.TypeFollow,
		EntityType: "user",
		EntityID:   in.actorID,
	}

	if in.currentlyFollowing {
		if _, err := s.userFollowRepo.DeleteUserFollow(ctx, in.actorID, in.targetID); err != nil {
			return nil, err
		}
		// 取消关注撤回关注通知
		if err := s.notifications.Retract(ctx, tuple); err != nil {
			log.WarnContext(ctx, "follow notification retract failed", "target", in.targetID, "err", err)
		}
		return &dto.FollowStateDTO{TargetID: in.targetID, NowFollowing: false}, nil
	}

	if err := s.userFollowRepo.CreateUserFollow(ctx, &model.UserFollow{
		FollowerID:  in.actorID,
		FollowingID: in.targetID,
	}); err != nil {
		return nil, err
	}
	if err := s.notifications.Create(ctx, NotificationInput{
		RecipientID: tuple.UserID,
		ActorID:     tuple.ActorID,
		Type:        tuple.Type,
		EntityType:  tuple.EntityType,
		EntityID:    tuple.EntityID,
	}); err != nil {
		log.WarnContext(ctx, "follow notification failed", "target", in.targetID, "err", err)
	}
	return &dto.FollowStateDTO{TargetID: in.targetID, NowFollowing: true}, nil
}

func (s *FollowServiceImpl) GetFollowCounts(ctx context.Context, userID uint64) (*dto.FollowCountDTO, error) {
	if userID == 0 {
		return nil, ErrTargetUserInvalid
	}
	tier := s.cache.Tiers().Profile
	followers, err := cache.Fetch(ctx, s.cache, cache.FollowerCount(userID), tier, func(ctx context.Context) (int64, error) {
		return s.userFollowRepo.GetUserFollowerCount(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	following, err := cache.Fetch(ctx, s.cache, cache.FollowingCount(userID), tier, func(ctx context.Context) (int64, error) {
		return s.userFollowRepo.GetUserFollowingCount(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &dto.FollowCountDTO{UserID: userID, FollowerCount: followers, FollowingCount: following}, nil
}
