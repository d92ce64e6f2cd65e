package service

import (
	"Murmur/internal/pkg/mention"
	"Murmur/internal/repository"
	"context"
)

type MentionService interface {
	ExtractMentions(text string) []string
	Resolve(ctx context.Context, usernames []string) ([]uint64, error)
	Notify(ctx context.Context, actorID uint64, text, entityType string, entityID uint64, metadata map[string]any) (int, error)
}

type mentionServiceImpl struct {
	userRepo      repository.UserRepo
	notifications NotificationService
}

func NewMentionService(userRepo repository.UserRepo, notifications NotificationService) MentionService {
	return &mentionServiceImpl{userRepo: userRepo, notifications: notifications}
}

func (s *mentionServiceImpl) ExtractMentions(text string) []string {
	return mention.Extract(text)
}

// Resolve 一次批量查询；未知用户名静默丢弃，每次出现对应一个 id
func (s *mentionServiceImpl) Resolve(ctx context.Context, usernames []string) ([]uint64, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	ids, err := s.userRepo.GetIDsByUsernames(ctx, mention.Unique(usernames))
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(usernames))
	for _, name := range usernames {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Notify 提取、解析并批量发送 mention 通知，返回发送条数
func (s *mentionServiceImpl) Notify(ctx context.Context, actorID uint64, text, entityType string, entityID uint64, metadata map[string]any) (int, error) {
	names := s.ExtractMentions(text)
	if len(names) == 0 {
		return 0, nil
	}
	ids, err := s.Resolve(ctx, names)
	if err != nil {
		return 0, err
	}
	return s.notifications.FanOut(ctx, actorID, ids, entityType, entityID, metadata)
}
