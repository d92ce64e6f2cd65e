package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/pkg/rpc"
	"Murmur/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
)

type CommentService interface {
	List(ctx context.Context, postID uint64) ([]*CommentNode, error)
	Count(ctx context.Context, postID uint64) (int64, error)
	Create(ctx context.Context, postID uint64, parentID *uint64, content string) (*model.Comment, error)
	Update(ctx context.Context, id uint64, content string) error
	Delete(ctx context.Context, id uint64) error
}

type createCommentInput struct {
	actorID  uint64
	postID   uint64
	parentID *uint64
	content  string
}

// manageCommentInput 修改与删除都交给后端存储过程校验归属
type manageCommentInput struct {
	actorID uint64
	comment *model.Comment
	action  string
	content string
}

type manageCommentArgs struct {
	Action    string  `json:"p_action"`
	CommentID uint64  `json:"p_comment_id"`
	UserID    uint64  `json:"p_user_id"`
	Content   *string `json:"p_content,omitempty"`
}

type commentServiceImpl struct {
	commentRepo   repository.CommentRepo
	postRepo      repository.PostRepo
	profiles      ProfileService
	notifications NotificationService
	mentions      MentionService
	rpc           rpc.Caller
	cache         *cache.Cache

	create *cache.Mutation[createCommentInput, *model.Comment]
	manage *cache.Mutation[manageCommentInput, struct{}]
}

func NewCommentService(
	commentRepo repository.CommentRepo,
	postRepo repository.PostRepo,
	profiles ProfileService,
	notifications NotificationService,
	mentions MentionService,
	caller rpc.Caller,
	c *cache.Cache,
) CommentService {
	s := &commentServiceImpl{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		profiles:      profiles,
		notifications: notifications,
		mentions:      mentions,
		rpc:           caller,
		cache:         c,
	}
	s.create = cache.NewMutation(c, s.runCreate, func(in createCommentInput, _ *model.Comment) cache.Invalidation {
		return commentInvalidation(in.postID)
	})
	s.manage = cache.NewMutation(c, s.runManage, func(in manageCommentInput, _ struct{}) cache.Invalidation {
		return commentInvalidation(in.comment.PostID)
	})
	return s
}

// List 整棵评论树按帖子缓存，作者资料单独按用户缓存
func (s *commentServiceImpl) List(ctx context.Context, postID uint64) ([]*CommentNode, error) {
	if postID == 0 {
		return nil, ErrParamInvalid
	}
	tree, err := cache.Fetch(ctx, s.cache, cache.CommentTree(postID), s.cache.Tiers().Social,
		func(ctx context.Context) ([]*CommentNode, error) {
			flat, err := s.commentRepo.ListByPost(ctx, postID)
			if err != nil {
				return nil, err
			}
			return BuildTree(flat), nil
		})
	if err != nil {
		return nil, err
	}

	var authorIDs []uint64
	walkTree(tree, func(n *CommentNode) { authorIDs = append(authorIDs, n.UserID) })
	profiles, err := s.profiles.GetProfiles(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	walkTree(tree, func(n *CommentNode) { n.Author = profiles[n.UserID] })
	return tree, nil
}

func walkTree(nodes []*CommentNode, fn func(*CommentNode)) {
	for _, n := range nodes {
		fn(n)
		walkTree(n.Replies, fn)
	}
}

func (s *commentServiceImpl) Count(ctx context.Context, postID uint64) (int64, error) {
	if postID == 0 {
		return 0, ErrParamInvalid
	}
	return cache.Fetch(ctx, s.cache, cache.CommentCount(postID), s.cache.Tiers().Social,
		func(ctx context.Context) (int64, error) {
			return s.commentRepo.CountByPost(ctx, postID)
		})
}

func (s *commentServiceImpl) Create(ctx context.Context, postID uint64, parentID *uint64, content string) (*model.Comment, error) {
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentContentInvalid
	}
	if postID == 0 || (parentID != nil && *parentID == 0) {
		return nil, ErrParamInvalid
	}
	return s.create.MutateAsync(ctx, createCommentInput{
		actorID:  actorID,
		postID:   postID,
		parentID: parentID,
		content:  content,
	})
}

func (s *commentServiceImpl) runCreate(ctx context.Context, in createCommentInput) (*model.Comment, error) {
	post, err := s.postRepo.GetPost(ctx, in.postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	var parent *model.Comment
	if in.parentID != nil {
		parent, err = s.commentRepo.GetComment(ctx, *in.parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCommentNotFound
		}
		if parent.PostID != in.postID {
			return nil, ErrCommentParentMismatch
		}
	}

	comment := &model.Comment{
		PostID:   in.postID,
		UserID:   in.actorID,
		ParentID: in.parentID,
		Content:  in.content,
	}
	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	metadata := map[string]any{"post_id": in.postID, "comment_id": comment.ID}
	s.notify(ctx, NotificationInput{
		RecipientID: post.UserID,
		ActorID:     in.actorID,
		Type:        mongo.TypeComment,
		EntityType:  string(model.SubjectPost),
		EntityID:    in.postID,
		Metadata:    metadata,
	})
	if parent != nil {
		s.notify(ctx, NotificationInput{
			RecipientID: parent.UserID,
			ActorID:     in.actorID,
			Type:        mongo.TypeReply,
			EntityType:  string(model.SubjectComment),
			EntityID:    parent.ID,
			Metadata:    metadata,
		})
	}
	s.mention(ctx, in.actorID, comment)
	return comment, nil
}

func (s *commentServiceImpl) Update(ctx context.Context, id uint64, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrCommentContentInvalid
	}
	in, err := s.manageInput(ctx, id, "update")
	if err != nil {
		return err
	}
	in.content = content
	_, err = s.manage.MutateAsync(ctx, in)
	return err
}

func (s *commentServiceImpl) Delete(ctx context.Context, id uint64) error {
	in, err := s.manageInput(ctx, id, "delete")
	if err != nil {
		return err
	}
	_, err = s.manage.MutateAsync(ctx, in)
	return err
}

func (s *commentServiceImpl) manageInput(ctx context.Context, id uint64, action string) (manageCommentInput, error) {
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return manageCommentInput{}, err
	}
	if id == 0 {
		return manageCommentInput{}, ErrParamInvalid
	}
	comment, err := s.commentRepo.GetComment(ctx, id)
	if err != nil {
		return manageCommentInput{}, err
	}
	if comment == nil {
		return manageCommentInput{}, ErrCommentNotFound
	}
	return manageCommentInput{actorID: actorID, comment: comment, action: action}, nil
}

func (s *commentServiceImpl) runManage(ctx context.Context, in manageCommentInput) (struct{}, error) {
	args := manageCommentArgs{
		Action:    in.action,
		CommentID: in.comment.ID,
		UserID:    in.actorID,
	}
	if in.action == "update" {
		args.Content = &in.content
	}
	if _, err := s.rpc.Call(ctx, consts.RPCManageComment, args); err != nil {
		return struct{}{}, err
	}

	// 编辑后的内容重新提及，不与旧的提及合并
	if in.action == "update" {
		edited := *in.comment
		edited.Content = in.content
		s.mention(ctx, in.actorID, &edited)
	}
	return struct{}{}, nil
}

func (s *commentServiceImpl) notify(ctx context.Context, in NotificationInput) {
	if err := s.notifications.Create(ctx, in); err != nil {
		log.WarnContext(ctx, "comment notification failed", "type", in.Type, "recipient", in.RecipientID, "err", err)
	}
}

func (s *commentServiceImpl) mention(ctx context.Context, actorID uint64, comment *model.Comment) {
	metadata := map[string]any{"post_id": comment.PostID}
	if _, err := s.mentions.Notify(ctx, actorID, comment.Content, string(model.SubjectComment), comment.ID, metadata); err != nil {
		log.WarnContext(ctx, "mention fan-out failed", "comment_id", comment.ID, "err", err)
	}
}
