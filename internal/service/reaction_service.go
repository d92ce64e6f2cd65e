package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/repository"
	"context"
	log "log/slog"
)

// Subject 被回应的对象
type Subject struct {
	Type model.SubjectType `json:"subjectType"`
	ID   uint64            `json:"subjectId"`
}

func (s Subject) valid() bool {
	return s.Type.Valid() && s.ID != 0
}

// Aggregate 各回应类型计数，total 为总和
type Aggregate struct {
	Counts map[model.ReactionKind]int `json:"counts"`
	Total  int                        `json:"total"`
}

type ToggleResult struct {
	Subject Subject             `json:"subject"`
	Kind    *model.ReactionKind `json:"kind"`
}

type ReactionService interface {
	GetUserReaction(ctx context.Context, subject Subject) (*model.ReactionKind, error)
	GetAggregate(ctx context.Context, subject Subject) (*Aggregate, error)
	GetAggregates(ctx context.Context, subjectType model.SubjectType, ids []uint64) (map[uint64]*Aggregate, error)
	Toggle(ctx context.Context, subject Subject, kind model.ReactionKind, current *model.ReactionKind) (*ToggleResult, error)
}

type toggleInput struct {
	actorID uint64
	subject Subject
	kind    model.ReactionKind
	current *model.ReactionKind
}

type reactionServiceImpl struct {
	reactionRepo  repository.ReactionRepo
	postRepo      repository.PostRepo
	commentRepo   repository.CommentRepo
	notifications NotificationService
	cache         *cache.Cache
	toggle        *cache.Mutation[toggleInput, *ToggleResult]
}

func NewReactionService(
	reactionRepo repository.ReactionRepo,
	postRepo repository.PostRepo,
	commentRepo repository.CommentRepo,
	notifications NotificationService,
	c *cache.Cache,
) ReactionService {
	s := &reactionServiceImpl{
		reactionRepo:  reactionRepo,
		postRepo:      postRepo,
		commentRepo:   commentRepo,
		notifications: notifications,
		cache:         c,
	}
	s.toggle = cache.NewMutation(c, s.runToggle, func(in toggleInput, _ *ToggleResult) cache.Invalidation {
		return reactionInvalidation(in.subject.Type, in.subject.ID, in.actorID)
	})
	return s
}

// GetUserReaction 未登录时返回 nil
func (s *reactionServiceImpl) GetUserReaction(ctx context.Context, subject Subject) (*model.ReactionKind, error) {
	if !subject.valid() {
		return nil, ErrSubjectTypeInvalid
	}
	userID, err := ActorFrom(ctx)
	if err != nil {
		return nil, nil
	}

	key := cache.UserReaction(string(subject.Type), subject.ID, userID)
	return cache.Fetch(ctx, s.cache, key, s.cache.Tiers().Social, func(ctx context.Context) (*model.ReactionKind, error) {
		r, err := s.reactionRepo.GetReaction(ctx, subject.Type, subject.ID, userID)
		if err != nil || r == nil {
			return nil, err
		}
		kind := r.Kind
		return &kind, nil
	})
}

func (s *reactionServiceImpl) GetAggregate(ctx context.Context, subject Subject) (*Aggregate, error) {
	if !subject.valid() {
		return nil, ErrSubjectTypeInvalid
	}
	aggs, err := s.GetAggregates(ctx, subject.Type, []uint64{subject.ID})
	if err != nil {
		return nil, err
	}
	return aggs[subject.ID], nil
}

// GetAggregates 列表页批量读取，未命中的 id 合并为一次分组计数
func (s *reactionServiceImpl) GetAggregates(ctx context.Context, subjectType model.SubjectType, ids []uint64) (map[uint64]*Aggregate, error) {
	if !subjectType.Valid() {
		return nil, ErrSubjectTypeInvalid
	}
	keyOf := func(id uint64) string {
		return cache.ReactionAggregate(string(subjectType), id)
	}
	return cache.FetchMany(ctx, s.cache, ids, keyOf, s.cache.Tiers().Social,
		func(ctx context.Context, missing []uint64) (map[uint64]*Aggregate, error) {
			rows, err := s.reactionRepo.CountByKind(ctx, subjectType, missing)
			if err != nil {
				return nil, err
			}
			out := make(map[uint64]*Aggregate, len(missing))
			for _, id := range missing {
				out[id] = &Aggregate{Counts: map[model.ReactionKind]int{}}
			}
			for _, row := range rows {
				agg, ok := out[row.SubjectID]
				if !ok {
					continue
				}
				agg.Counts[row.Kind] += row.Count
				agg.Total += row.Count
			}
			return out, nil
		})
}

// Toggle current 为调用方当前看到的回应：与 kind 相同则取消，否则写入 kind
func (s *reactionServiceImpl) Toggle(ctx context.Context, subject Subject, kind model.ReactionKind, current *model.ReactionKind) (*ToggleResult, error) {
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !subject.valid() {
		return nil, ErrSubjectTypeInvalid
	}
	if !subject.Type.Accepts(kind) || (current != nil && !subject.Type.Accepts(*current)) {
		return nil, ErrReactionKindInvalid
	}
	return s.toggle.MutateAsync(ctx, toggleInput{
		actorID: actorID,
		subject: subject,
		kind:    kind,
		current: current,
	})
}

func (s *reactionServiceImpl) runToggle(ctx context.Context, in toggleInput) (*ToggleResult, error) {
	if in.current != nil && *in.current == in.kind {
		if _, err := s.reactionRepo.DeleteReaction(ctx, in.subject.Type, in.subject.ID, in.actorID); err != nil {
			return nil, err
		}
		return &ToggleResult{Subject: in.subject}, nil
	}

	ownerID, metadata, err := s.subjectOwner(ctx, in.subject)
	if err != nil {
		return nil, err
	}

	// 新增与修改都走 upsert，保证每个 (对象, 用户) 至多一行
	if err := s.reactionRepo.UpsertReaction(ctx, &model.Reaction{
		SubjectType: in.subject.Type,
		SubjectID:   in.subject.ID,
		UserID:      in.actorID,
		Kind:        in.kind,
	}); err != nil {
		return nil, err
	}

	notifType := mongo.TypeReaction
	if in.subject.Type == model.SubjectComment {
		notifType = mongo.TypeLike
	}
	if err := s.notifications.Create(ctx, NotificationInput{
		RecipientID: ownerID,
		ActorID:     in.actorID,
		Type:        notifType,
		EntityType:  string(in.subject.Type),
		EntityID:    in.subject.ID,
		Metadata:    metadata,
	}); err != nil {
		log.WarnContext(ctx, "reaction notification failed", "subject", in.subject, "err", err)
	}

	kind := in.kind
	return &ToggleResult{Subject: in.subject, Kind: &kind}, nil
}

func (s *reactionServiceImpl) subjectOwner(ctx context.Context, subject Subject) (uint64, map[string]any, error) {
	switch subject.Type {
	case model.SubjectPost:
		post, err := s.postRepo.GetPost(ctx, subject.ID)
		if err != nil {
			return 0, nil, err
		}
		if post == nil {
			return 0, nil, ErrPostNotFound
		}
		return post.UserID, nil, nil
	case model.SubjectComment:
		comment, err := s.commentRepo.GetComment(ctx, subject.ID)
		if err != nil {
			return 0, nil, err
		}
		if comment == nil {
			return 0, nil, ErrCommentNotFound
		}
		return comment.UserID, map[string]any{"post_id": comment.PostID}, nil
	}
	return 0, nil, ErrSubjectTypeInvalid
}
