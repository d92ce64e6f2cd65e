package repository

import (
	"Murmur/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubjectUser 用于批量查询某些用户在某些实体上的当前回应
type SubjectUser struct {
	SubjectID uint64
	UserID    uint64
}

type ReactionRepo interface {
	GetReaction(ctx context.Context, subjectType model.SubjectType, subjectID, userID uint64) (*model.Reaction, error)
	UpsertReaction(ctx context.Context, reaction *model.Reaction) error
	DeleteReaction(ctx context.Context, subjectType model.SubjectType, subjectID, userID uint64) (int64, error)
	CountByKind(ctx context.Context, subjectType model.SubjectType, subjectIDs []uint64) ([]*model.ReactionCount, error)
	GetKinds(ctx context.Context, subjectType model.SubjectType, pairs []SubjectUser) (map[SubjectUser]model.ReactionKind, error)
}

type ReactionRepoImpl struct {
	db *gorm.DB
}

func NewReactionRepo(db *gorm.DB) ReactionRepo {
	return &ReactionRepoImpl{db: db}
}

// GetReaction 不存在时返回 nil
func (s *ReactionRepoImpl) GetReaction(ctx context.Context, subjectType model.SubjectType, subjectID, userID uint64) (*model.Reaction, error) {
	var reaction model.Reaction
	result := s.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND user_id = ?", subjectType, subjectID, userID).
		First(&reaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &reaction, nil
}

// UpsertReaction 主键冲突时原地更新 kind，重复执行结果不变
func (s *ReactionRepoImpl) UpsertReaction(ctx context.Context, reaction *model.Reaction) error {
	now := time.Now()
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = now
	}
	reaction.UpdatedAt = now

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_type"}, {Name: "subject_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
		}).
		Create(reaction).Error
}

// DeleteReaction 删除不存在的行不是错误
func (s *ReactionRepoImpl) DeleteReaction(ctx context.Context, subjectType model.SubjectType, subjectID, userID uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND user_id = ?", subjectType, subjectID, userID).
		Delete(&model.Reaction{})
	return result.RowsAffected, result.Error
}

// CountByKind 按实体与类型分组计数
func (s *ReactionRepoImpl) CountByKind(ctx context.Context, subjectType model.SubjectType, subjectIDs []uint64) ([]*model.ReactionCount, error) {
	counts := make([]*model.ReactionCount, 0)
	if len(subjectIDs) == 0 {
		return counts, nil
	}
	result := s.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("subject_id, kind, COUNT(*) AS count").
		Where("subject_type = ? AND subject_id IN ?", subjectType, subjectIDs).
		Group("subject_id, kind").
		Scan(&counts)
	if result.Error != nil {
		return nil, result.Error
	}
	return counts, nil
}

// GetKinds 一次查询多个 (实体, 用户) 的当前回应
func (s *ReactionRepoImpl) GetKinds(ctx context.Context, subjectType model.SubjectType, pairs []SubjectUser) (map[SubjectUser]model.ReactionKind, error) {
	kinds := make(map[SubjectUser]model.ReactionKind, len(pairs))
	if len(pairs) == 0 {
		return kinds, nil
	}

	tuples := make([][]interface{}, len(pairs))
	for i, p := range pairs {
		tuples[i] = []interface{}{p.SubjectID, p.UserID}
	}

	var reactions []*model.Reaction
	result := s.db.WithContext(ctx).
		Where("subject_type = ? AND (subject_id, user_id) IN ?", subjectType, tuples).
		Find(&reactions)
	if result.Error != nil {
		return nil, result.Error
	}
	for _, r := range reactions {
		kinds[SubjectUser{SubjectID: r.SubjectID, UserID: r.UserID}] = r.Kind
	}
	return kinds, nil
}
